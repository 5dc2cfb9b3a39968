package traceability

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/authz"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/lifecycle"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/measure"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/stock"
)

const dateLayout = "2006-01-02"

// builder arma el plan de un caso de uso. Solo devuelve errores de estructura;
// el resto de los chequeos se registran en el plan por etapa.
type builder func(e *Engine, req any, snap *Snapshot, caller entity.Actor) (*plan, error)

var builders = map[UseCase]builder{
	UseCasePurchaseIntake:     intakeBuilder(entity.ReasonPurchase),
	UseCaseProductionIntake:   intakeBuilder(entity.ReasonOwnProduction),
	UseCaseSampling:           withdrawalBuilder(entity.ReasonSampling),
	UseCaseConsumption:        withdrawalBuilder(entity.ReasonProductionConsumption),
	UseCaseSale:               withdrawalBuilder(entity.ReasonSale),
	UseCaseDisposal:           withdrawalBuilder(entity.ReasonDisposal),
	UseCaseReturn:             buildReturn,
	UseCaseRecall:             buildRecall,
	UseCaseQuarantineDecision: analysisBuilder(entity.ReasonVerdictChange),
	UseCaseReanalysis:         analysisBuilder(entity.ReasonReanalysis),
	UseCaseResultRecording:    buildResult,
	UseCaseRelease:            verdictBuilder(entity.ReasonRelease, entity.VerdictReleased),
	UseCaseExpiry:             verdictBuilder(entity.ReasonAnalysisExpiry, entity.VerdictExpired),
	UseCaseAnalysisAnnulment:  buildAnnulment,
	UseCaseAdjustment:         buildAdjustment,
	UseCaseReversal:           buildReversal,
}

// ─────────────────────────────────────────────────────────────────────────────
// Ingresos
// ─────────────────────────────────────────────────────────────────────────────

func intakeBuilder(reason entity.Reason) builder {
	return func(_ *Engine, req any, snap *Snapshot, _ entity.Actor) (*plan, error) {
		r, err := requestAs[dto.IntakeRequest](req)
		if err != nil {
			return nil, err
		}
		if reason == entity.ReasonPurchase && strings.TrimSpace(r.Supplier) == "" {
			return nil, domain.NewFieldError(domain.KindInvalidField, "supplier", "el proveedor es obligatorio en ingresos por compra")
		}
		if snap.Product == nil || snap.Product.Code != r.ProductCode {
			return nil, domain.NewFieldError(domain.KindInvalidField, "product_code", "el producto %s no existe", r.ProductCode)
		}
		unit, err := unitOr("unit", r.Unit, entity.Unit{})
		if err != nil {
			return nil, err
		}
		date, err := parseDate("date", r.Date)
		if err != nil {
			return nil, err
		}
		qs, us, err := packageSplit(r.Packages)
		if err != nil {
			return nil, err
		}
		count := r.PackageCount
		if count == 0 {
			count = max(len(qs), 1)
		}
		newLot := func() *entity.Lot {
			return &entity.Lot{
				Code:            snap.LotCode,
				ProductCode:     r.ProductCode,
				Supplier:        r.Supplier,
				Manufacturer:    r.Manufacturer,
				InitialQuantity: r.Quantity,
				Unit:            unit,
				PackageCount:    count,
			}
		}

		p := &plan{}
		p.check(stageQuantity, func() error {
			if !r.Quantity.IsPositive() {
				return domain.NewFieldError(domain.KindInvalidField, "quantity", "la cantidad del lote debe ser mayor que cero")
			}
			if err := wholeCount(r.Quantity, unit, "quantity"); err != nil {
				return err
			}
			_, err := stock.AllocateInitialPackages(newLot(), qs, us)
			return err
		})
		p.check(stageState, func() error {
			if snap.Lot != nil {
				return domain.NewFieldError(domain.KindVerdictNotEligible, "lot_code", "el lote %s ya existe", snap.LotCode)
			}
			return nil
		})
		p.apply = func(w *workspace) error {
			lot := newLot()
			m, err := lifecycle.Intake(lot, w.product, qs, us, reason, w.stamp(date, r.Notes))
			if err != nil {
				return err
			}
			w.lot = lot
			w.record(m)
			return nil
		}
		return p, nil
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Egresos
// ─────────────────────────────────────────────────────────────────────────────

func withdrawalBuilder(reason entity.Reason) builder {
	return func(e *Engine, req any, snap *Snapshot, _ entity.Actor) (*plan, error) {
		r, err := requestAs[dto.WithdrawalRequest](req)
		if err != nil {
			return nil, err
		}
		lot := snap.Lot
		date, err := parseDate("date", r.Date)
		if err != nil {
			return nil, err
		}
		unit, err := unitOr("unit", r.Unit, lot.Unit)
		if err != nil {
			return nil, err
		}
		seqs := make([]int, len(r.Lines))
		units := make([]entity.Unit, len(r.Lines))
		for i, l := range r.Lines {
			if units[i], err = unitOr(lineField(i, "unit"), l.Unit, entity.Unit{}); err != nil {
				return nil, err
			}
			seqs[i] = l.PackageSeq
		}
		if err := uniqueSeqs(seqs); err != nil {
			return nil, err
		}

		var allocs []stock.Allocation
		p := &plan{}
		p.check(stageDates, notBeforeIntake(lot, date))
		p.check(stageQuantity, func() error {
			if r.Quantity != nil {
				if err := wholeCount(*r.Quantity, unit, "quantity"); err != nil {
					return err
				}
				allocs, err = stock.AllocateFIFO(lot, *r.Quantity, unit)
				return err
			}
			allocs = make([]stock.Allocation, 0, len(r.Lines))
			for i, l := range r.Lines {
				pkg, err := livePackage(lot, i, l.PackageSeq)
				if err != nil {
					return err
				}
				u := units[i]
				if u.IsZero() {
					u = pkg.Unit
				}
				if _, err := stock.Debit(pkg, l.Quantity, u, reason); err != nil {
					return scopeLine(err, i, "quantity")
				}
				allocs = append(allocs, stock.Allocation{PackageSeq: l.PackageSeq, Quantity: l.Quantity, Unit: u})
			}
			return nil
		})
		p.check(stageState, activeLot(lot))
		p.check(stageState, func() error { return lifecycle.CanWithdraw(lot.Verdict, reason) })
		p.apply = func(w *workspace) error {
			m, err := lifecycle.Withdraw(w.lot, reason, allocs, e.policy, w.stamp(date, r.Notes))
			if err != nil {
				return err
			}
			w.record(m)
			return nil
		}
		return p, nil
	}
}

// buildReturn registra en el lote de origen la devolución de una venta y crea el lote
// derivado con la cantidad devuelta y dictamen DEVOLUCION_CLIENTES.
func buildReturn(_ *Engine, req any, snap *Snapshot, _ entity.Actor) (*plan, error) {
	r, err := requestAs[dto.ReturnRequest](req)
	if err != nil {
		return nil, err
	}
	lot := snap.Lot
	date, err := parseDate("date", r.Date)
	if err != nil {
		return nil, err
	}
	unit, err := unitOr("unit", r.Unit, lot.Unit)
	if err != nil {
		return nil, err
	}
	qs, us, err := packageSplit(r.Packages)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		qs, us = []decimal.Decimal{r.Quantity}, []entity.Unit{unit}
	}
	code := r.DerivedLotCode
	if code == "" {
		code = fmt.Sprintf("%s-D%d", lot.Code, countReason(lot, entity.ReasonSaleReturn)+1)
	}

	var returned decimal.Decimal
	p := &plan{derivedLotCode: code}
	p.check(stageDates, notBeforeIntake(lot, date))
	p.check(stageDates, func() error {
		return lifecycle.CheckNotBeforeOrigin(lot.MovementByCode(r.SaleMovementCode), date, "date")
	})
	p.check(stageQuantity, func() error {
		if !r.Quantity.IsPositive() {
			return domain.NewFieldError(domain.KindInvalidField, "quantity", "la cantidad devuelta debe ser mayor que cero")
		}
		v, err := measure.Convert(r.Quantity, unit, lot.Unit)
		if err != nil {
			return err
		}
		if err := wholeCount(v, lot.Unit, "quantity"); err != nil {
			return err
		}
		total := decimal.Zero
		for i, q := range qs {
			u := lot.Unit
			if !us[i].IsZero() {
				u = us[i]
			}
			inLot, err := measure.Convert(q, u, lot.Unit)
			if err != nil {
				return domain.WithField(err, fmt.Sprintf("packages[%d].unit", i))
			}
			total = total.Add(inLot)
		}
		if !total.Round(6).Equal(v.Round(6)) {
			return domain.NewFieldError(domain.KindQuantityMismatch, "packages",
				"los bultos suman %s %s y la devolución es de %s %s", total.Round(6), lot.Unit.Symbol, v, lot.Unit.Symbol)
		}
		if _, err := lifecycle.CheckSaleReturn(lot, r.SaleMovementCode, v); err != nil {
			return err
		}
		returned = v
		return nil
	})
	p.check(stageState, activeLot(lot))
	p.check(stageState, func() error { return lifecycle.CanWithdraw(lot.Verdict, entity.ReasonSaleReturn) })
	p.apply = func(w *workspace) error {
		mr, err := lifecycle.MarkReturned(w.lot, r.SaleMovementCode, returned, w.stamp(date, r.Notes))
		if err != nil {
			return err
		}
		derived, dm, err := lifecycle.NewDerivedLot(w.lot, code, qs, us, entity.VerdictCustomerReturn, mr.Code, w.stamp(date, r.Notes))
		if err != nil {
			return err
		}
		mr.DerivedLotCode = code
		w.derived = derived
		w.record(mr, dm)
		return nil
	}
	return p, nil
}

// buildRecall declara RETIRO_MERCADO, retira el stock remanente y opcionalmente lo
// traslada a un lote derivado de retiro con los mismos bultos.
func buildRecall(e *Engine, req any, snap *Snapshot, _ entity.Actor) (*plan, error) {
	r, err := requestAs[dto.RecallRequest](req)
	if err != nil {
		return nil, err
	}
	lot := snap.Lot
	date, err := parseDate("date", r.Date)
	if err != nil {
		return nil, err
	}
	code := ""
	if r.CreateDerivedLot || r.DerivedLotCode != "" {
		code = r.DerivedLotCode
		if code == "" {
			code = lot.Code + "-R"
		}
	}

	p := &plan{derivedLotCode: code}
	p.check(stageDates, notBeforeIntake(lot, date))
	p.check(stageQuantity, func() error {
		if code != "" && !lot.CurrentQuantity.IsPositive() {
			return domain.NewFieldError(domain.KindInsufficientStock, "create_derived_lot",
				"el lote %s no tiene stock para trasladar al lote de retiro", lot.Code)
		}
		return nil
	})
	p.check(stageState, activeLot(lot))
	p.check(stageState, func() error {
		return lifecycle.CheckTransition(entity.ReasonRecallDeclaration, lot.Verdict, entity.VerdictMarketRecall)
	})
	p.apply = func(w *workspace) error {
		decl, err := lifecycle.ChangeVerdict(w.lot, entity.ReasonRecallDeclaration, entity.VerdictMarketRecall, w.stamp(date, r.Notes))
		if err != nil {
			return err
		}
		w.record(decl)
		if !w.lot.CurrentQuantity.IsPositive() {
			return nil
		}
		allocs, err := stock.AllocateFIFO(w.lot, w.lot.CurrentQuantity, w.lot.Unit)
		if err != nil {
			return err
		}
		wd, err := lifecycle.Withdraw(w.lot, entity.ReasonMarketRecall, allocs, e.policy, w.stamp(date, r.Notes))
		if err != nil {
			return err
		}
		w.record(wd)
		if code == "" {
			return nil
		}
		qs := make([]decimal.Decimal, len(wd.Lines))
		us := make([]entity.Unit, len(wd.Lines))
		for i, l := range wd.Lines {
			qs[i] = l.Quantity.Neg()
			us[i], _ = entity.UnitByCode(l.Unit)
		}
		derived, dm, err := lifecycle.NewDerivedLot(w.lot, code, qs, us, entity.VerdictMarketRecall, wd.Code, w.stamp(date, r.Notes))
		if err != nil {
			return err
		}
		wd.DerivedLotCode = code
		w.derived = derived
		w.record(dm)
		return nil
	}
	return p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Modificaciones de dictamen y análisis
// ─────────────────────────────────────────────────────────────────────────────

// analysisBuilder pone el lote en CUARENTENA y abre un análisis (cuarentena o reanálisis).
func analysisBuilder(reason entity.Reason) builder {
	return func(_ *Engine, req any, snap *Snapshot, _ entity.Actor) (*plan, error) {
		r, err := requestAs[dto.AnalysisRequest](req)
		if err != nil {
			return nil, err
		}
		lot := snap.Lot
		date, err := parseDate("date", r.Date)
		if err != nil {
			return nil, err
		}

		p := &plan{}
		p.check(stageDates, notBeforeIntake(lot, date))
		p.check(stageState, activeLot(lot))
		p.check(stageState, func() error { return lifecycle.CheckTransition(reason, lot.Verdict, entity.VerdictQuarantine) })
		p.check(stageState, func() error { return lifecycle.CheckNewAnalysis(lot, r.AnalysisNumber, snap.Analyses) })
		p.apply = func(w *workspace) error {
			m, err := lifecycle.ChangeVerdict(w.lot, reason, entity.VerdictQuarantine, w.stamp(date, r.Notes))
			if err != nil {
				return err
			}
			if err := lifecycle.CreateAnalysis(w.lot, r.AnalysisNumber, date, r.Notes, snap.Analyses); err != nil {
				return err
			}
			m.AnalysisNumber = r.AnalysisNumber
			m.AnalysisEffect = entity.AnalysisCreated
			w.record(m)
			return nil
		}
		return p, nil
	}
}

// buildResult registra el resultado del análisis en curso y aprueba o rechaza el lote.
func buildResult(_ *Engine, req any, snap *Snapshot, _ entity.Actor) (*plan, error) {
	r, err := requestAs[dto.ResultRequest](req)
	if err != nil {
		return nil, err
	}
	lot := snap.Lot
	verdict := entity.Verdict(r.Verdict)
	date, err := parseDate("date", r.Date)
	if err != nil {
		return nil, err
	}
	performed, err := parseDate("performed_at", r.PerformedAt)
	if err != nil {
		return nil, err
	}
	reanalysis, err := parseOptionalDate("reanalysis_date", r.ReanalysisDate)
	if err != nil {
		return nil, err
	}
	expiry, err := parseOptionalDate("expiry_date", r.ExpiryDate)
	if err != nil {
		return nil, err
	}

	p := &plan{}
	p.check(stageDates, notBeforeIntake(lot, date))
	p.check(stageDates, func() error { return lifecycle.CheckNotBeforeIntake(lot, performed, "performed_at") })
	p.check(stageDates, optionalNotBeforeIntake(lot, reanalysis, "reanalysis_date"))
	p.check(stageDates, optionalNotBeforeIntake(lot, expiry, "expiry_date"))
	p.check(stageDates, func() error {
		if performed.After(date) {
			return domain.NewFieldError(domain.KindInvalidDateOrdering, "performed_at",
				"la fecha de realización (%s) es posterior a la del movimiento (%s)", performed.Format(dateLayout), r.Date)
		}
		idx, err := lifecycle.GetOpenAnalysis(lot)
		if err != nil || idx < 0 {
			return err
		}
		if a := lot.Analyses[idx]; performed.Before(a.RequestedAt) {
			return domain.NewFieldError(domain.KindInvalidDateOrdering, "performed_at",
				"la fecha de realización es anterior a la solicitud del análisis %s (%s)", a.Number, a.RequestedAt.Format(dateLayout))
		}
		return nil
	})
	if verdict == entity.VerdictApproved {
		p.check(stageDates, func() error { return lifecycle.CheckApprovalDates(reanalysis, expiry) })
	}
	p.check(stageQuantity, func() error { return lifecycle.CheckAssay(r.Assay) })
	p.check(stageState, activeLot(lot))
	p.check(stageState, func() error { return lifecycle.CheckTransition(entity.ReasonVerdictChange, lot.Verdict, verdict) })
	p.check(stageState, func() error {
		_, err := lifecycle.OpenAnalysisFor(lot)
		return err
	})
	p.apply = func(w *workspace) error {
		number, err := lifecycle.RecordResult(w.lot, lifecycle.AnalysisResult{
			Verdict:        verdict,
			PerformedAt:    performed,
			ReanalysisDate: reanalysis,
			ExpiryDate:     expiry,
			Assay:          r.Assay,
			Notes:          r.Notes,
		})
		if err != nil {
			return err
		}
		m, err := lifecycle.ChangeVerdict(w.lot, entity.ReasonVerdictChange, verdict, w.stamp(date, r.Notes))
		if err != nil {
			return err
		}
		m.AnalysisNumber = number
		m.AnalysisEffect = entity.AnalysisResulted
		w.record(m)
		return nil
	}
	return p, nil
}

// verdictBuilder cambios de dictamen sin efecto sobre análisis (liberación, vencimiento).
func verdictBuilder(reason entity.Reason, to entity.Verdict) builder {
	return func(_ *Engine, req any, snap *Snapshot, _ entity.Actor) (*plan, error) {
		r, err := requestAs[dto.VerdictRequest](req)
		if err != nil {
			return nil, err
		}
		lot := snap.Lot
		date, err := parseDate("date", r.Date)
		if err != nil {
			return nil, err
		}

		p := &plan{}
		p.check(stageDates, notBeforeIntake(lot, date))
		p.check(stageState, activeLot(lot))
		p.check(stageState, func() error { return lifecycle.CheckTransition(reason, lot.Verdict, to) })
		p.apply = func(w *workspace) error {
			m, err := lifecycle.ChangeVerdict(w.lot, reason, to, w.stamp(date, r.Notes))
			if err != nil {
				return err
			}
			w.record(m)
			return nil
		}
		return p, nil
	}
}

// buildAnnulment anula el análisis en curso y devuelve el lote a RECIBIDO.
func buildAnnulment(_ *Engine, req any, snap *Snapshot, _ entity.Actor) (*plan, error) {
	r, err := requestAs[dto.VerdictRequest](req)
	if err != nil {
		return nil, err
	}
	lot := snap.Lot
	date, err := parseDate("date", r.Date)
	if err != nil {
		return nil, err
	}

	p := &plan{}
	p.check(stageDates, notBeforeIntake(lot, date))
	p.check(stageState, activeLot(lot))
	p.check(stageState, func() error {
		return lifecycle.CheckTransition(entity.ReasonAnalysisAnnulment, lot.Verdict, entity.VerdictReceived)
	})
	p.check(stageState, func() error {
		_, err := lifecycle.OpenAnalysisFor(lot)
		return err
	})
	p.apply = func(w *workspace) error {
		number, err := lifecycle.AnnulAnalysis(w.lot)
		if err != nil {
			return err
		}
		m, err := lifecycle.ChangeVerdict(w.lot, entity.ReasonAnalysisAnnulment, entity.VerdictReceived, w.stamp(date, r.Notes))
		if err != nil {
			return err
		}
		m.AnalysisNumber = number
		m.AnalysisEffect = entity.AnalysisAnnulled
		w.record(m)
		return nil
	}
	return p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Ajustes y reversos (con autorización)
// ─────────────────────────────────────────────────────────────────────────────

func buildAdjustment(e *Engine, req any, snap *Snapshot, caller entity.Actor) (*plan, error) {
	r, err := requestAs[dto.AdjustmentRequest](req)
	if err != nil {
		return nil, err
	}
	lot := snap.Lot
	date, err := parseDate("date", r.Date)
	if err != nil {
		return nil, err
	}
	seqs := make([]int, len(r.Lines))
	units := make([]entity.Unit, len(r.Lines))
	for i, l := range r.Lines {
		if units[i], err = unitOr(lineField(i, "unit"), l.Unit, entity.Unit{}); err != nil {
			return nil, err
		}
		seqs[i] = l.PackageSeq
	}
	if err := uniqueSeqs(seqs); err != nil {
		return nil, err
	}

	lines := make([]lifecycle.AdjustmentLine, len(r.Lines))
	p := &plan{}
	p.check(stageDates, notBeforeIntake(lot, date))
	p.check(stageQuantity, func() error {
		for i, l := range r.Lines {
			if l.Delta.IsZero() {
				return domain.NewFieldError(domain.KindInvalidField, lineField(i, "delta"), "el ajuste no puede ser cero")
			}
			pkg, err := livePackage(lot, i, l.PackageSeq)
			if err != nil {
				return err
			}
			u := units[i]
			if u.IsZero() {
				u = pkg.Unit
			}
			if l.Delta.IsNegative() {
				_, err = stock.Debit(pkg, l.Delta.Neg(), u, entity.ReasonAdjustment)
			} else {
				_, err = stock.Credit(pkg, l.Delta, u, "")
			}
			if err != nil {
				return scopeLine(err, i, "delta")
			}
			lines[i] = lifecycle.AdjustmentLine{PackageSeq: l.PackageSeq, Delta: l.Delta, Unit: u}
		}
		return nil
	})
	p.check(stageState, activeLot(lot))
	p.check(stageAuthorization, func() error { return authz.CanAdjust(caller, e.minAdjustmentLevel) })
	p.apply = func(w *workspace) error {
		m, err := lifecycle.Adjust(w.lot, lines, e.policy, w.stamp(date, r.Notes))
		if err != nil {
			return err
		}
		w.record(m)
		return nil
	}
	return p, nil
}

func buildReversal(_ *Engine, req any, snap *Snapshot, caller entity.Actor) (*plan, error) {
	r, err := requestAs[dto.ReversalRequest](req)
	if err != nil {
		return nil, err
	}
	lot := snap.Lot
	date, err := parseDate("date", r.Date)
	if err != nil {
		return nil, err
	}

	var orig *entity.Movement
	p := &plan{}
	p.check(stageDates, func() error {
		m, err := lifecycle.FindMovement(lot, r.MovementCode)
		if err != nil {
			return err
		}
		orig = m
		return lifecycle.CheckNotBeforeOrigin(orig, date, "date")
	})
	p.check(stageDates, notBeforeIntake(lot, date))
	if m := lot.MovementByCode(r.MovementCode); m != nil && m.DerivedLotCode != "" {
		p.relatedLotCode = m.DerivedLotCode
	}
	p.check(stageState, func() error {
		if p.relatedLotCode != "" {
			_, _, err := lifecycle.CheckReversibleWithDerived(lot, snap.Derived, r.MovementCode)
			return err
		}
		_, err := lifecycle.CheckReversible(lot, r.MovementCode)
		return err
	})
	p.check(stageAuthorization, func() error { return authz.CanReverse(caller, orig) })
	p.apply = func(w *workspace) error {
		if p.relatedLotCode != "" {
			m, dm, err := lifecycle.ReverseWithDerived(w.lot, w.derived, r.MovementCode,
				w.stamp(date, r.Notes), w.stamp(date, r.Notes))
			if err != nil {
				return err
			}
			w.record(m, dm)
			return nil
		}
		m, err := lifecycle.Reverse(w.lot, r.MovementCode, w.stamp(date, r.Notes))
		if err != nil {
			return err
		}
		w.record(m)
		return nil
	}
	return p, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// requestAs acepta el DTO por valor o por puntero.
func requestAs[T any](req any) (*T, error) {
	switch r := req.(type) {
	case *T:
		if r != nil {
			return r, nil
		}
	case T:
		return &r, nil
	}
	var zero T
	return nil, domain.NewFieldError(domain.KindInvalidField, "", "se esperaba un cuerpo %T", zero)
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, domain.NewFieldError(domain.KindInvalidField, field, "fecha inválida %q, se espera AAAA-MM-DD", s)
	}
	return t, nil
}

func parseOptionalDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := parseDate(field, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// unitOr resuelve una unidad por código o símbolo; vacío devuelve def.
func unitOr(field, code string, def entity.Unit) (entity.Unit, error) {
	if strings.TrimSpace(code) == "" {
		return def, nil
	}
	u, ok := entity.LookupUnit(code)
	if !ok {
		return entity.Unit{}, domain.NewFieldError(domain.KindInvalidField, field, "unidad desconocida: %q", code)
	}
	return u, nil
}

// packageSplit traduce el reparto declarado. Las unidades vacías quedan en cero (unidad del lote).
func packageSplit(pkgs []dto.PackageQuantity) ([]decimal.Decimal, []entity.Unit, error) {
	qs := make([]decimal.Decimal, len(pkgs))
	us := make([]entity.Unit, len(pkgs))
	for i, pq := range pkgs {
		u, err := unitOr(fmt.Sprintf("packages[%d].unit", i), pq.Unit, entity.Unit{})
		if err != nil {
			return nil, nil, err
		}
		qs[i], us[i] = pq.Quantity, u
	}
	return qs, us, nil
}

// wholeCount rechaza cantidades fraccionadas en unidades de conteo.
func wholeCount(q decimal.Decimal, unit entity.Unit, field string) error {
	if unit.Family == entity.FamilyCount && !measure.ToBase(q, unit).IsInteger() {
		return domain.NewFieldError(domain.KindFractionalCountUnit, field,
			"%s %s: las unidades de conteo no admiten fracciones", q, unit.Symbol)
	}
	return nil
}

func uniqueSeqs(seqs []int) error {
	seen := make(map[int]bool, len(seqs))
	for i, s := range seqs {
		if seen[s] {
			return domain.NewFieldError(domain.KindInvalidField, lineField(i, "package_seq"), "el bulto %d está repetido", s)
		}
		seen[s] = true
	}
	return nil
}

func livePackage(lot *entity.Lot, i, seq int) (entity.Package, error) {
	idx := lot.PackageBySeq(seq)
	if idx < 0 || !lot.Packages[idx].Active {
		return entity.Package{}, domain.NewFieldError(domain.KindInvalidField, lineField(i, "package_seq"),
			"el lote %s no tiene el bulto %d", lot.Code, seq)
	}
	return lot.Packages[idx], nil
}

func lineField(i int, name string) string { return fmt.Sprintf("lines[%d].%s", i, name) }

// scopeLine ubica un error de bulto en la línea i: los de familia en .unit, el resto en qtyField.
func scopeLine(err error, i int, qtyField string) error {
	if domain.KindOf(err) == domain.KindIncompatibleUnitFamily {
		return domain.WithField(err, lineField(i, "unit"))
	}
	return domain.WithField(err, lineField(i, qtyField))
}

func notBeforeIntake(lot *entity.Lot, date time.Time) func() error {
	return func() error { return lifecycle.CheckNotBeforeIntake(lot, date, "date") }
}

func optionalNotBeforeIntake(lot *entity.Lot, date *time.Time, field string) func() error {
	return func() error {
		if date == nil {
			return nil
		}
		return lifecycle.CheckNotBeforeIntake(lot, *date, field)
	}
}

func activeLot(lot *entity.Lot) func() error {
	return func() error {
		if !lot.Active {
			return domain.NewFieldError(domain.KindVerdictNotEligible, "lot_code", "el lote %s está inactivo", lot.Code)
		}
		return nil
	}
}

func countReason(lot *entity.Lot, r entity.Reason) int {
	n := 0
	for _, m := range lot.Movements {
		if m.Reason == r {
			n++
		}
	}
	return n
}
