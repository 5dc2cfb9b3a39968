package lifecycle

import (
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// FindMovement devuelve el movimiento a revertir o InvalidField si no existe en el lote.
func FindMovement(lot *entity.Lot, code string) (*entity.Movement, error) {
	m := lot.MovementByCode(code)
	if m == nil {
		return nil, domain.NewFieldError(domain.KindInvalidField, "movement_code",
			"el movimiento %s no pertenece al lote %s", code, lot.Code)
	}
	return m, nil
}

// CheckReversible valida el estado del lote para revertir el movimiento code.
// No evalúa autorización: eso ocurre después, con el movimiento ya validado.
// Los movimientos ligados a un lote derivado se validan con CheckReversibleWithDerived.
func CheckReversible(lot *entity.Lot, code string) (*entity.Movement, error) {
	return checkReversible(lot, code, false)
}

func checkReversible(lot *entity.Lot, code string, withDerived bool) (*entity.Movement, error) {
	m, err := FindMovement(lot, code)
	if err != nil {
		return nil, err
	}
	notEligible := func(format string, args ...any) error {
		return domain.NewFieldError(domain.KindVerdictNotEligible, "movement_code", format, args...)
	}
	switch {
	case !m.Active:
		return nil, notEligible("el movimiento %s está anulado", code)
	case m.IsReversal():
		return nil, notEligible("el movimiento %s es un reverso y no puede revertirse", code)
	case lot.ReversalOf(code) != nil:
		return nil, notEligible("el movimiento %s ya fue revertido", code)
	case !withDerived && m.DerivedLotCode != "":
		return nil, notEligible("el movimiento %s generó el lote %s y debe revertirse junto con él", code, m.DerivedLotCode)
	case !withDerived && m.Reason == entity.ReasonDerivedLot:
		return nil, notEligible("el ingreso del lote derivado %s se revierte desde el movimiento %s del lote %s",
			lot.Code, m.OriginMovementCode, lot.OriginLotCode)
	}

	switch m.Kind {
	case entity.KindModification:
		if lot.Verdict != m.ResultVerdict {
			return nil, notEligible("el lote tiene dictamen %s, el movimiento %s dejó %s", lot.Verdict, code, m.ResultVerdict)
		}
	case entity.KindIntake:
		for _, other := range lot.Movements {
			if other.Code == m.Code || !other.Active || other.IsReversal() || lot.ReversalOf(other.Code) != nil {
				continue
			}
			return nil, notEligible("el lote %s tiene movimientos posteriores sin revertir (%s)", lot.Code, other.Code)
		}
	}

	if m.AnalysisEffect == entity.AnalysisAnnulled {
		if open, err := GetOpenAnalysis(lot); err != nil {
			return nil, err
		} else if open >= 0 {
			return nil, notEligible("el lote %s tiene otro análisis en curso", lot.Code)
		}
	}

	if m.Kind != entity.KindIntake {
		for _, l := range m.Lines {
			idx := lot.PackageBySeq(l.PackageSeq)
			if idx < 0 {
				return nil, notEligible("el bulto %d ya no existe", l.PackageSeq)
			}
			p := lot.Packages[idx]
			for _, tc := range l.Traces {
				ti := p.TraceByNumber(tc.Number)
				if ti < 0 || p.Traces[ti].Status != tc.ResultStatus {
					return nil, notEligible("la traza %d cambió de estado después del movimiento %s", tc.Number, code)
				}
			}
		}
	}
	return m, nil
}

// CheckReversibleWithDerived valida revertir code en origin junto con el lote derivado que generó.
// El lote derivado debe seguir intacto: activo y sin movimientos vigentes además de su ingreso.
func CheckReversibleWithDerived(origin, derived *entity.Lot, code string) (*entity.Movement, *entity.Movement, error) {
	m, err := checkReversible(origin, code, true)
	if err != nil {
		return nil, nil, err
	}
	notEligible := func(format string, args ...any) error {
		return domain.NewFieldError(domain.KindVerdictNotEligible, "movement_code", format, args...)
	}
	if m.DerivedLotCode == "" {
		return nil, nil, notEligible("el movimiento %s no generó un lote derivado", code)
	}
	if derived == nil || derived.Code != m.DerivedLotCode {
		return nil, nil, notEligible("no se encontró el lote derivado %s", m.DerivedLotCode)
	}
	if !derived.Active {
		return nil, nil, notEligible("el lote derivado %s está inactivo", derived.Code)
	}
	in := derived.IntakeMovement()
	if in == nil || in.Reason != entity.ReasonDerivedLot || in.OriginMovementCode != m.Code {
		return nil, nil, notEligible("el lote %s no deriva del movimiento %s", derived.Code, code)
	}
	if _, err := checkReversible(derived, in.Code, true); err != nil {
		return nil, nil, err
	}
	return m, in, nil
}

// ReverseWithDerived revierte code en origin y desactiva el lote derivado que generó.
// Devuelve el reverso registrado en origin y el registrado en el lote derivado.
func ReverseWithDerived(origin, derived *entity.Lot, code string, st, derivedSt Stamp) (*entity.Movement, *entity.Movement, error) {
	_, in, err := CheckReversibleWithDerived(origin, derived, code)
	if err != nil {
		return nil, nil, err
	}
	dm, err := reverse(derived, in.Code, derivedSt, true)
	if err != nil {
		return nil, nil, err
	}
	m, err := reverse(origin, code, st, true)
	if err != nil {
		return nil, nil, err
	}
	return m, dm, nil
}

// Reverse registra un movimiento que invierte el efecto de code. El original no se modifica.
// Revertir un ingreso desactiva el lote, sus bultos y trazas; el cursor de trazas del producto no retrocede.
func Reverse(lot *entity.Lot, code string, st Stamp) (*entity.Movement, error) {
	return reverse(lot, code, st, false)
}

func reverse(lot *entity.Lot, code string, st Stamp, withDerived bool) (*entity.Movement, error) {
	orig, err := checkReversible(lot, code, withDerived)
	if err != nil {
		return nil, err
	}

	kind := entity.KindModification
	if orig.Kind == entity.KindIntake {
		kind = entity.KindWithdrawal
	}
	m := st.movement(lot, kind, entity.ReasonReversal)
	m.OriginMovementCode = orig.Code
	m.AnalysisNumber = orig.AnalysisNumber
	if orig.Quantity != nil {
		m.Quantity = quantityPtr(orig.Quantity.Neg())
	}
	m.Unit = orig.Unit

	if orig.Kind == entity.KindIntake {
		reverseIntake(lot, m)
	} else {
		for i, l := range orig.Lines {
			line, err := reverseLine(lot, l)
			if err != nil {
				return nil, domain.Scope(err, linePrefix(i))
			}
			m.Lines = append(m.Lines, line)
		}
		if orig.Kind == entity.KindModification {
			lot.Verdict = orig.InitialVerdict
		}
		undoAnalysis(lot, orig)
		if err := stock.RecomputeLot(lot); err != nil {
			return nil, err
		}
	}
	m.ResultVerdict = lot.Verdict
	lot.Movements = append(lot.Movements, m)
	return m, nil
}

func reverseIntake(lot *entity.Lot, m *entity.Movement) {
	for i := range lot.Packages {
		p := &lot.Packages[i]
		m.Lines = append(m.Lines, entity.MovementLine{
			PackageSeq:   p.Seq,
			Quantity:     p.CurrentQuantity.Neg(),
			Unit:         p.Unit.Code,
			PriorStatus:  p.Status,
			ResultStatus: entity.StatusDiscarded,
		})
		p.Status = entity.StatusDiscarded
		p.Active = false
		for t := range p.Traces {
			p.Traces[t].Status = entity.StatusDiscarded
		}
	}
	for i := range lot.Analyses {
		lot.Analyses[i].Active = false
	}
	lot.CurrentQuantity = decimal.Zero
	lot.Status = entity.StatusDiscarded
	lot.Active = false
}

// reverseLine invierte una línea: repone o descuenta la cantidad, restaura el estado
// previo del bulto si nadie lo cambió y devuelve las trazas a su estado anterior.
func reverseLine(lot *entity.Lot, l entity.MovementLine) (entity.MovementLine, error) {
	idx := lot.PackageBySeq(l.PackageSeq)
	if idx < 0 {
		return entity.MovementLine{}, domain.NewFieldError(domain.KindInvalidField, "package_seq",
			"el lote %s no tiene el bulto %d", lot.Code, l.PackageSeq)
	}
	before := lot.Packages[idx]
	restore := entity.Status("")
	if before.Status == l.ResultStatus {
		restore = l.PriorStatus
	}

	after := before
	var err error
	switch {
	case l.Quantity.IsNegative():
		after, err = stock.Credit(before, l.Quantity.Neg(), before.Unit, restore)
	case l.Quantity.IsPositive():
		after, err = stock.Debit(before, l.Quantity, before.Unit, entity.ReasonReversal)
		if err == nil && restore != "" {
			after.Status = restore
		}
	default:
		if restore != "" {
			after.Status = restore
		}
	}
	if err != nil {
		return entity.MovementLine{}, err
	}

	after.Traces = append([]entity.TraceUnit(nil), before.Traces...)
	var changes []entity.TraceChange
	for _, tc := range l.Traces {
		changes = append(changes, setTrace(&after, tc.Number, tc.PriorStatus))
	}
	lot.Packages[idx] = after

	return entity.MovementLine{
		PackageSeq:   l.PackageSeq,
		Quantity:     l.Quantity.Neg(),
		Unit:         before.Unit.Code,
		PriorStatus:  before.Status,
		ResultStatus: after.Status,
		Traces:       changes,
	}, nil
}
