// Package authz decide si un actor puede revertir movimientos o registrar ajustes según su nivel jerárquico.
package authz

import (
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// DefaultMinAdjustmentLevel nivel mínimo para ajustes (SUPERVISOR).
const DefaultMinAdjustmentLevel = 3

// CanReverse permite revertir m a quien lo registró o a un nivel estrictamente superior.
func CanReverse(caller entity.Actor, m *entity.Movement) error {
	if caller.ID != "" && caller.ID == m.RecordedBy {
		return nil
	}
	if caller.Level > m.RecordedByLevel {
		return nil
	}
	return domain.NewFieldError(domain.KindReversalNotAuthorized, "movement_code",
		"el movimiento %s fue registrado con nivel %d; se requiere ser su autor o tener nivel superior (nivel actual %d)",
		m.Code, m.RecordedByLevel, caller.Level)
}

// CanAdjust exige nivel mínimo para registrar ajustes de inventario.
func CanAdjust(caller entity.Actor, minLevel int) error {
	if minLevel <= 0 {
		minLevel = DefaultMinAdjustmentLevel
	}
	if caller.Level >= minLevel {
		return nil
	}
	return domain.NewFieldError(domain.KindReversalNotAuthorized, "nivel",
		"los ajustes requieren nivel %d o superior (nivel actual %d)", minLevel, caller.Level)
}
