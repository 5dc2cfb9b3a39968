package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

var errInvalidBody = domain.NewFieldError(domain.KindInvalidField, "", "cuerpo inválido")

// kindStatus código HTTP por tipo de error de validación.
var kindStatus = map[domain.Kind]int{
	domain.KindInvalidField:           fiber.StatusBadRequest,
	domain.KindIncompatibleUnitFamily: fiber.StatusBadRequest,
	domain.KindFractionalCountUnit:    fiber.StatusBadRequest,
	domain.KindQuantityMismatch:       fiber.StatusConflict,
	domain.KindInsufficientStock:      fiber.StatusConflict,
	domain.KindVerdictNotEligible:     fiber.StatusConflict,
	domain.KindDuplicateAnalysis:      fiber.StatusConflict,
	domain.KindMultipleOpenAnalyses:   fiber.StatusConflict,
	domain.KindInvalidDateOrdering:    fiber.StatusUnprocessableEntity,
	domain.KindInvalidAssayResult:     fiber.StatusUnprocessableEntity,
	domain.KindDateBeforeIntake:       fiber.StatusUnprocessableEntity,
	domain.KindDateBeforeOrigin:       fiber.StatusUnprocessableEntity,
	domain.KindReversalNotAuthorized:  fiber.StatusForbidden,
}

// writeError traduce errores de dominio a respuestas HTTP. Los errores no clasificados se registran.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		status, ok := kindStatus[fe.Kind]
		if !ok {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(dto.ErrorResponse{Code: string(fe.Kind), Message: fe.Message, Field: fe.Field})
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "cuenta inactiva o sin permisos"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "TIMEOUT", Message: "la operación no terminó a tiempo"})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}
