package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/Trazabilidad-api/internal/application/analytics"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

// DashboardHandler maneja los endpoints del tablero de calidad.
type DashboardHandler struct {
	uc  *appanalytics.DashboardUseCase
	log *logger.Logger
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{uc: uc, log: log}
}

// GetSummary godoc
// @Summary      Tablero de calidad
// @Description  Lotes activos por dictamen y alertas de vencimiento/reanálisis dentro del horizonte.
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Horizonte en días"  default(30)
// @Success      200   {object}  dto.DashboardSummaryDTO
// @Router       /api/dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.uc.GetSummary(c.UserContext(), c.QueryInt("days", 0))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(summary)
}
