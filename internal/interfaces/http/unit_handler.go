package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/measure"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

// displayPlaces decimales usados al mostrar conversiones.
const displayPlaces = 3

// UnitHandler expone el catálogo de unidades y el conversor (público).
type UnitHandler struct {
	log *logger.Logger
}

// NewUnitHandler construye el handler.
func NewUnitHandler(log *logger.Logger) *UnitHandler {
	return &UnitHandler{log: log}
}

// List godoc
// @Summary      Listar unidades de medida
// @Tags         units
// @Produce      json
// @Param        family  query  string  false  "Familia (MASA, VOLUMEN, ...)"
// @Success      200  {array}  dto.UnitResponse
// @Router       /api/units [get]
func (h *UnitHandler) List(c *fiber.Ctx) error {
	units := entity.Units()
	if f := strings.ToUpper(c.Query("family")); f != "" {
		units = measure.UnitsOf(entity.UnitFamily(f))
	}
	out := make([]dto.UnitResponse, 0, len(units))
	for _, u := range units {
		out = append(out, dto.UnitResponse{
			Code:   u.Code,
			Name:   u.Name,
			Symbol: u.Symbol,
			Family: string(u.Family),
			Factor: u.Factor,
		})
	}
	return c.JSON(out)
}

// Convert godoc
// @Summary      Convertir una cantidad entre unidades de la misma familia
// @Tags         units
// @Produce      json
// @Param        quantity  query  string  true  "Cantidad"
// @Param        from      query  string  true  "Unidad origen (código o símbolo)"
// @Param        to        query  string  true  "Unidad destino (código o símbolo)"
// @Success      200  {object}  dto.ConvertResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/units/convert [get]
func (h *UnitHandler) Convert(c *fiber.Ctx) error {
	q, err := quantityParam(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	from, err := unitParam(c, "from")
	if err != nil {
		return writeError(c, h.log, err)
	}
	to, err := unitParam(c, "to")
	if err != nil {
		return writeError(c, h.log, err)
	}
	result, err := measure.Convert(q, from, to)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ConvertResponse{
		Quantity:  q,
		From:      from.Code,
		To:        to.Code,
		Result:    result,
		Displayed: result.Round(displayPlaces),
	})
}

// Suggest godoc
// @Summary      Sugerir la unidad más legible para una cantidad
// @Tags         units
// @Produce      json
// @Param        quantity  query  string  true  "Cantidad"
// @Param        unit      query  string  true  "Unidad (código o símbolo)"
// @Success      200  {object}  dto.SuggestResponse
// @Router       /api/units/suggest [get]
func (h *UnitHandler) Suggest(c *fiber.Ctx) error {
	q, err := quantityParam(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	u, err := unitParam(c, "unit")
	if err != nil {
		return writeError(c, h.log, err)
	}
	s := measure.SuggestDisplayUnit(u, q)
	result, err := measure.ConvertForDisplay(q, u, s, displayPlaces)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.SuggestResponse{Quantity: q, Unit: u.Code, Suggest: s.Code, Result: result})
}

func quantityParam(c *fiber.Ctx) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(strings.TrimSpace(c.Query("quantity")))
	if err != nil {
		return decimal.Zero, domain.NewFieldError(domain.KindInvalidField, "quantity", "cantidad inválida")
	}
	return q, nil
}

func unitParam(c *fiber.Ctx, name string) (entity.Unit, error) {
	u, ok := entity.LookupUnit(c.Query(name))
	if !ok {
		return entity.Unit{}, domain.NewFieldError(domain.KindInvalidField, name, "unidad desconocida: %q", c.Query(name))
	}
	return u, nil
}
