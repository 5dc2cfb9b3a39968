package traceability

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Garantiza que el lote, el lote derivado y el cursor de trazas se guarden juntos o no se guarden.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		lots repository.LotRepository,
		products repository.ProductRepository,
	) error) error
}

// EventPublisher publica eventos de dominio una vez confirmada la transacción.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// EventLotMovementRecorded tipo de evento emitido por cada movimiento registrado.
const EventLotMovementRecorded = "lote.movimiento.registrado"

// LotMovementEvent payload del evento EventLotMovementRecorded.
type LotMovementEvent struct {
	UseCase        string           `json:"use_case"`
	LotCode        string           `json:"lot_code"`
	MovementCode   string           `json:"movement_code"`
	Kind           string           `json:"kind"`
	Reason         string           `json:"reason"`
	Date           string           `json:"date"`
	Quantity       *decimal.Decimal `json:"quantity,omitempty"`
	Unit           string           `json:"unit,omitempty"`
	Verdict        string           `json:"verdict"`
	Status         string           `json:"status"`
	DerivedLotCode string           `json:"derived_lot_code,omitempty"`
	RecordedBy     string           `json:"recorded_by"`
	RecordedAt     time.Time        `json:"recorded_at"`
}

func newLotMovementEvent(uc UseCase, lot *entity.Lot, m *entity.Movement) LotMovementEvent {
	return LotMovementEvent{
		UseCase:        string(uc),
		LotCode:        m.LotCode,
		MovementCode:   m.Code,
		Kind:           string(m.Kind),
		Reason:         string(m.Reason),
		Date:           m.Date.Format(dateLayout),
		Quantity:       m.Quantity,
		Unit:           m.Unit,
		Verdict:        string(lot.Verdict),
		Status:         string(lot.Status),
		DerivedLotCode: m.DerivedLotCode,
		RecordedBy:     m.RecordedBy,
		RecordedAt:     m.RecordedAt,
	}
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, string, interface{}) error { return nil }
