package lifecycle

import (
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// TracePolicy indica, por motivo de egreso, el estado al que pasan las trazas retiradas.
// Un motivo ausente no retira trazas salvo que el bulto se agote.
type TracePolicy map[entity.Reason]entity.Status

// DefaultTracePolicy retira trazas en ventas, consumos, descartes y retiros de mercado.
func DefaultTracePolicy() TracePolicy {
	return TracePolicy{
		entity.ReasonSale:                  entity.StatusSold,
		entity.ReasonProductionConsumption: entity.StatusConsumed,
		entity.ReasonDisposal:              entity.StatusDiscarded,
		entity.ReasonMarketRecall:          entity.StatusRecalled,
	}
}

// NewTracePolicy construye la política desde una lista de motivos (ej. configuración).
func NewTracePolicy(reasons []string) (TracePolicy, error) {
	p := TracePolicy{}
	for _, r := range reasons {
		reason := entity.Reason(r)
		if !IsWithdrawalReason(reason) || reason == entity.ReasonSaleReturn {
			return nil, domain.NewFieldError(domain.KindInvalidField, "retire_traces_on", "%s no es un motivo de egreso", r)
		}
		p[reason] = entity.TerminalStatusFor(reason)
	}
	return p, nil
}

// Retires devuelve el estado de retiro para el motivo, si la política lo activa.
func (p TracePolicy) Retires(r entity.Reason) (entity.Status, bool) {
	s, ok := p[r]
	return s, ok
}
