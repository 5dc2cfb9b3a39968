package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/Trazabilidad-api/internal/application/analytics"
	"github.com/jhoicas/Trazabilidad-api/internal/application/auth"
	"github.com/jhoicas/Trazabilidad-api/internal/application/catalog"
	"github.com/jhoicas/Trazabilidad-api/internal/application/report"
	"github.com/jhoicas/Trazabilidad-api/internal/application/traceability"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Traceability *traceability.Service
	ProductUC    *catalog.ProductUseCase
	AuthUC       *auth.AuthUseCase
	ReportUC     *report.UseCase
	DashboardUC  *appanalytics.DashboardUseCase
	Logger       *logger.Logger
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api")

	// Unidades (público)
	units := api.Group("/units")
	unitHandler := NewUnitHandler(log)
	units.Get("/", unitHandler.List)
	units.Get("/convert", unitHandler.Convert)
	units.Get("/suggest", unitHandler.Suggest)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Auth: login público; alta y listado de operadores solo ADMIN
	if deps.AuthUC != nil {
		authHandler := NewAuthHandler(deps.AuthUC, log)
		api.Post("/auth/login", authHandler.Login)
		admin := protected.Group("/auth", RequireRole(entity.RoleAdmin))
		admin.Post("/register", authHandler.Register)
		admin.Get("/users", authHandler.ListUsers)
	}

	// Products (protegido; alta solo supervisor o superior)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, log)
	products.Post("/", RequireLevel(entity.RoleLevels[entity.RoleSupervisor]), productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:code", productHandler.Get)

	// Dashboard (protegido)
	if deps.DashboardUC != nil {
		protected.Get("/dashboard/summary", NewDashboardHandler(deps.DashboardUC, log).GetSummary)
	}

	// Lotes (protegido). La autorización fina (reversos, ajustes) la decide el motor.
	lots := protected.Group("/lots")
	lotHandler := NewLotHandler(deps.Traceability, log)
	lots.Get("/", lotHandler.List)
	lots.Get("/use-cases", lotHandler.UseCases)
	if deps.ReportUC != nil {
		lots.Get("/:code/sheet.pdf", NewReportHandler(deps.ReportUC, log).LotSheet)
	}
	lots.Get("/:code", lotHandler.Get)
	lots.Post("/:code/:useCase/validate", lotHandler.Validate)
	lots.Post("/:code/:useCase", lotHandler.Execute)
}
