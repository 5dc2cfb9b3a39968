package lifecycle

import (
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/measure"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// Stamp datos comunes de todo movimiento: código, fecha de negocio y quién lo registra.
type Stamp struct {
	Code       string
	Date       time.Time
	Notes      string
	Actor      entity.Actor
	RecordedAt time.Time
}

func (s Stamp) movement(lot *entity.Lot, kind entity.MovementKind, reason entity.Reason) *entity.Movement {
	return &entity.Movement{
		Code:            s.Code,
		LotCode:         lot.Code,
		Kind:            kind,
		Reason:          reason,
		Date:            s.Date,
		Unit:            lot.Unit.Code,
		InitialVerdict:  lot.Verdict,
		ResultVerdict:   lot.Verdict,
		Notes:           s.Notes,
		RecordedBy:      s.Actor.ID,
		RecordedByLevel: s.Actor.Level,
		RecordedAt:      s.RecordedAt,
		Active:          true,
	}
}

func quantityPtr(q decimal.Decimal) *decimal.Decimal { return &q }

// Intake crea los bultos y trazas de un lote nuevo y registra su movimiento de ingreso.
// El lote queda con dictamen RECIBIDO y estado NUEVO. product puede ser nil para lotes derivados.
func Intake(lot *entity.Lot, product *entity.Product, quantities []decimal.Decimal, units []entity.Unit,
	reason entity.Reason, st Stamp) (*entity.Movement, error) {
	switch reason {
	case entity.ReasonPurchase, entity.ReasonOwnProduction, entity.ReasonDerivedLot:
	default:
		return nil, domain.NewFieldError(domain.KindInvalidField, "reason", "%s no es un motivo de ingreso", reason)
	}
	if len(lot.Movements) > 0 {
		return nil, domain.NewFieldError(domain.KindVerdictNotEligible, "lot_code", "el lote %s ya fue ingresado", lot.Code)
	}
	if !lot.InitialQuantity.IsPositive() {
		return nil, domain.NewFieldError(domain.KindInvalidField, "quantity", "la cantidad del lote debe ser mayor que cero")
	}

	pkgs, err := stock.AllocateInitialPackages(lot, quantities, units)
	if err != nil {
		return nil, err
	}
	lot.Packages = pkgs
	lot.CurrentQuantity = lot.InitialQuantity
	lot.Verdict = entity.VerdictReceived
	lot.Status = entity.StatusNew
	lot.IntakeDate = st.Date
	lot.Active = true
	if reason != entity.ReasonDerivedLot {
		stock.AssignTraceUnits(lot, product, st.RecordedAt)
	}

	m := st.movement(lot, entity.KindIntake, reason)
	m.InitialVerdict = ""
	m.ResultVerdict = entity.VerdictReceived
	m.Quantity = quantityPtr(lot.InitialQuantity)
	for _, p := range lot.Packages {
		m.Lines = append(m.Lines, entity.MovementLine{
			PackageSeq:   p.Seq,
			Quantity:     p.InitialQuantity,
			Unit:         p.Unit.Code,
			ResultStatus: p.Status,
		})
	}
	lot.Movements = append(lot.Movements, m)
	return m, nil
}

// NewDerivedLot crea un lote derivado de origin (devolución o retiro) con los bultos indicados.
// El lote nuevo no recibe trazas; su dictamen inicial es verdict.
func NewDerivedLot(origin *entity.Lot, code string, quantities []decimal.Decimal, units []entity.Unit,
	verdict entity.Verdict, originMovement string, st Stamp) (*entity.Lot, *entity.Movement, error) {
	total := decimal.Zero
	for i, q := range quantities {
		u := origin.Unit
		if i < len(units) && !units[i].IsZero() {
			u = units[i]
		}
		v, err := measure.Convert(q, u, origin.Unit)
		if err != nil {
			return nil, nil, err
		}
		total = total.Add(v)
	}
	lot := &entity.Lot{
		Code:            code,
		ProductCode:     origin.ProductCode,
		Supplier:        origin.Supplier,
		Manufacturer:    origin.Manufacturer,
		InitialQuantity: total,
		Unit:            origin.Unit,
		PackageCount:    len(quantities),
		OriginLotCode:   origin.Code,
	}
	m, err := Intake(lot, nil, quantities, units, entity.ReasonDerivedLot, st)
	if err != nil {
		return nil, nil, err
	}
	lot.Verdict = verdict
	m.ResultVerdict = verdict
	m.OriginMovementCode = originMovement
	return lot, m, nil
}
