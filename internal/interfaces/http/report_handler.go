package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Trazabilidad-api/internal/application/report"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

// ReportHandler entrega documentos generados a partir de un lote.
type ReportHandler struct {
	uc  *report.UseCase
	log *logger.Logger
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *report.UseCase, log *logger.Logger) *ReportHandler {
	return &ReportHandler{uc: uc, log: log}
}

// LotSheet godoc
// @Summary      Descargar la ficha de trazabilidad del lote (PDF)
// @Tags         lots
// @Security     Bearer
// @Produce      application/pdf
// @Param        code  path  string  true  "Código del lote"
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{code}/sheet.pdf [get]
func (h *ReportHandler) LotSheet(c *fiber.Ctx) error {
	doc, filename, err := h.uc.LotSheet(c.UserContext(), c.Params("code"), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(doc)
}
