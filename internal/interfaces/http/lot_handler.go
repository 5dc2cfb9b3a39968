package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/traceability"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/messaging"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

// HeaderCorrelationID propaga el id de correlación hasta los eventos publicados.
const HeaderCorrelationID = "X-Correlation-ID"

// LotHandler maneja los casos de uso sobre lotes (protegido).
type LotHandler struct {
	svc *traceability.Service
	log *logger.Logger
}

// NewLotHandler construye el handler.
func NewLotHandler(svc *traceability.Service, log *logger.Logger) *LotHandler {
	return &LotHandler{svc: svc, log: log}
}

// Execute godoc
// @Summary      Ejecutar un caso de uso sobre un lote
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        code     path  string  true  "Código del lote"
// @Param        useCase  path  string  true  "Caso de uso (purchase-intake, sale, reversal, ...)"
// @Success      201  {object}  dto.ExecuteResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/lots/{code}/{useCase} [post]
func (h *LotHandler) Execute(c *fiber.Ctx) error {
	uc, req, err := h.parse(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.svc.Execute(h.context(c), uc, c.Params("code"), req, GetActor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Validate godoc
// @Summary      Validar un caso de uso sin aplicarlo
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        code     path  string  true  "Código del lote"
// @Param        useCase  path  string  true  "Caso de uso"
// @Success      200  {object}  dto.ValidateResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/lots/{code}/{useCase}/validate [post]
func (h *LotHandler) Validate(c *fiber.Ctx) error {
	uc, req, err := h.parse(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.svc.ValidateOnly(c.UserContext(), uc, c.Params("code"), req, GetActor(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener lote
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "Código del lote"
// @Success      200  {object}  dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{code} [get]
func (h *LotHandler) Get(c *fiber.Ctx) error {
	out, err := h.svc.GetLot(c.UserContext(), c.Params("code"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar lotes
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        product_code  query  string  false  "Filtrar por producto"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.LotListResponse
// @Router       /api/lots [get]
func (h *LotHandler) List(c *fiber.Ctx) error {
	out, err := h.svc.ListLots(c.UserContext(), c.Query("product_code"), pageFrom(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// UseCases godoc
// @Summary      Listar casos de uso disponibles
// @Tags         lots
// @Produce      json
// @Success      200  {array}  string
// @Router       /api/lots/use-cases [get]
func (h *LotHandler) UseCases(c *fiber.Ctx) error {
	out := make([]string, 0)
	for _, uc := range traceability.UseCases() {
		out = append(out, string(uc))
	}
	return c.JSON(out)
}

func (h *LotHandler) parse(c *fiber.Ctx) (traceability.UseCase, any, error) {
	uc, err := traceability.ParseUseCase(c.Params("useCase"))
	if err != nil {
		return "", nil, err
	}
	req := traceability.NewRequest(uc)
	if err := c.BodyParser(req); err != nil {
		return "", nil, errInvalidBody
	}
	return uc, req, nil
}

// context agrega el id de correlación (header o nuevo) al contexto de la petición.
func (h *LotHandler) context(c *fiber.Ctx) context.Context {
	id := c.Get(HeaderCorrelationID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(HeaderCorrelationID, id)
	return messaging.WithCorrelationID(c.UserContext(), id)
}

func pageFrom(c *fiber.Ctx) dto.PageRequest {
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	if page.Limit > 100 {
		page.Limit = 100
	}
	if page.Offset < 0 {
		page.Offset = 0
	}
	return page
}
