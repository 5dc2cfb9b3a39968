package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Trazabilidad-api/internal/application/analytics"
	"github.com/jhoicas/Trazabilidad-api/internal/application/auth"
	"github.com/jhoicas/Trazabilidad-api/internal/application/catalog"
	"github.com/jhoicas/Trazabilidad-api/internal/application/report"
	"github.com/jhoicas/Trazabilidad-api/internal/application/traceability"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/lifecycle"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/memory"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/messaging"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Trazabilidad-api/internal/interfaces/http"
	"github.com/jhoicas/Trazabilidad-api/pkg/config"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Engine.Store).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		lots     repository.LotRepository
		products repository.ProductRepository
		users    repository.UserRepository
		stats    repository.AnalyticsRepository
		txRunner traceability.TxRunner
	)
	switch cfg.Engine.Store {
	case config.StoreMemory:
		store := memory.NewStore()
		lots, products, users, txRunner = store.Lots(), store.Products(), store.Users(), store
		stats = store.Analytics()
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		lots = postgres.NewLotRepository(pool)
		products = postgres.NewProductRepository(pool)
		users = postgres.NewUserRepository(pool)
		stats = postgres.NewAnalyticsRepository(pool)
		txRunner = postgres.NewTxRunner(pool)
	}

	policy, err := lifecycle.NewTracePolicy(cfg.Engine.RetireTracesOn)
	if err != nil {
		log.Fatal().Err(err).Msg("ENGINE_RETIRE_TRACES_ON inválido")
	}
	engine := traceability.NewEngine(
		traceability.WithTracePolicy(policy),
		traceability.WithMinAdjustmentLevel(cfg.Engine.MinAdjustmentLevel),
		traceability.WithLogger(log.WithComponent("engine")),
	)

	var events traceability.EventPublisher = messaging.NopPublisher{}
	if cfg.AMQP.Enabled {
		rmq, err := messaging.Connect(cfg.AMQP.URL, log.WithComponent("amqp"))
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer rmq.Close()
		pub, err := messaging.NewPublisher(rmq, cfg.AMQP.Exchange, cfg.App.Name, log.WithComponent("amqp"))
		if err != nil {
			log.Fatal().Err(err).Msg("publicador de eventos")
		}
		events = pub
	}

	svc := traceability.NewService(engine, txRunner, lots, products, events, log)
	productUC := catalog.NewProductUseCase(products)
	reportUC := report.NewUseCase(svc, products, pdf.NewLotSheetGenerator(cfg.App.Company))
	authUC := auth.NewAuthUseCase(users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Traceability: svc,
		ProductUC:    productUC,
		AuthUC:       authUC,
		ReportUC:     reportUC,
		DashboardUC:  analytics.NewDashboardUseCase(stats),
		Logger:       log.WithComponent("http"),
		JWTSecret:    cfg.JWT.Secret,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Listen(cfg.HTTP.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeout)*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("servidor HTTP finalizado")
	}
	log.Info().Msg("aplicación detenida")
}
