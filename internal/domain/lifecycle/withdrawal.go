package lifecycle

import (
	"fmt"
	"sort"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/measure"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// Withdraw descuenta las asignaciones de los bultos del lote y registra el egreso.
// Las trazas se retiran según policy; las de un bulto agotado siguen su estado terminal.
func Withdraw(lot *entity.Lot, reason entity.Reason, allocs []stock.Allocation, policy TracePolicy, st Stamp) (*entity.Movement, error) {
	if reason == entity.ReasonSaleReturn || !IsWithdrawalReason(reason) {
		return nil, domain.NewFieldError(domain.KindInvalidField, "reason", "%s no es un motivo de egreso de stock", reason)
	}
	if !lot.Active {
		return nil, domain.NewFieldError(domain.KindVerdictNotEligible, "lot_code", "el lote %s está inactivo", lot.Code)
	}
	if err := CanWithdraw(lot.Verdict, reason); err != nil {
		return nil, err
	}
	if len(allocs) == 0 {
		return nil, domain.NewFieldError(domain.KindInvalidField, "lines", "el egreso no tiene bultos")
	}

	m := st.movement(lot, entity.KindWithdrawal, reason)
	total := decimal.Zero
	for i, a := range allocs {
		line, inLot, err := debitPackage(lot, a, reason, policy)
		if err != nil {
			return nil, domain.Scope(err, linePrefix(i))
		}
		total = total.Add(inLot)
		m.Lines = append(m.Lines, line)
	}
	if err := stock.RecomputeLot(lot); err != nil {
		return nil, err
	}
	m.Quantity = quantityPtr(total)
	lot.Movements = append(lot.Movements, m)
	return m, nil
}

// debitPackage aplica una asignación y devuelve la línea resultante y la cantidad en la unidad del lote.
func debitPackage(lot *entity.Lot, a stock.Allocation, reason entity.Reason, policy TracePolicy) (entity.MovementLine, decimal.Decimal, error) {
	idx := lot.PackageBySeq(a.PackageSeq)
	if idx < 0 {
		return entity.MovementLine{}, decimal.Zero, domain.NewFieldError(domain.KindInvalidField, "package_seq",
			"el lote %s no tiene el bulto %d", lot.Code, a.PackageSeq)
	}
	before := lot.Packages[idx]
	after, err := stock.Debit(before, a.Quantity, a.Unit, reason)
	if err != nil {
		return entity.MovementLine{}, decimal.Zero, err
	}
	amount := before.CurrentQuantity.Sub(after.CurrentQuantity)

	var changes []entity.TraceChange
	after.Traces = append([]entity.TraceUnit(nil), before.Traces...)
	n := 0
	if len(before.Traces) > 0 {
		n = int(measure.ToBase(amount, before.Unit).IntPart())
	}
	if retire, ok := policy.Retires(reason); ok && n > 0 {
		for _, t := range stock.FirstAvailableTraceUnits(before, n) {
			changes = append(changes, setTrace(&after, t.Number, retire))
		}
		n = 0
	}
	if entity.IsTerminal(after.Status) {
		changes = append(changes, closeTraces(lot, &after, n)...)
	}
	lot.Packages[idx] = after

	inLot, err := measure.Convert(amount, before.Unit, lot.Unit)
	if err != nil {
		return entity.MovementLine{}, decimal.Zero, err
	}
	return entity.MovementLine{
		PackageSeq:   before.Seq,
		Quantity:     amount.Neg(),
		Unit:         before.Unit.Code,
		PriorStatus:  before.Status,
		ResultStatus: after.Status,
		Traces:       changes,
	}, inLot, nil
}

// closeTraces retira las trazas vivas de un bulto agotado. Las own más recientes salen con
// el estado del bulto; las anteriores corresponden a egresos previos que no retiraron trazas
// y toman el estado terminal del motivo de ese egreso.
func closeTraces(lot *entity.Lot, p *entity.Package, own int) []entity.TraceChange {
	var live []int64
	for _, t := range p.Traces {
		if !entity.IsTerminal(t.Status) {
			live = append(live, t.Number)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i] < live[j] })

	earlier := untracedWithdrawals(lot, p.Seq, p.Unit)
	surplus := len(live) - own
	changes := make([]entity.TraceChange, 0, len(live))
	for i, num := range live {
		status := p.Status
		if i < surplus && i < len(earlier) {
			status = earlier[i]
		}
		changes = append(changes, setTrace(p, num, status))
	}
	return changes
}

// untracedWithdrawals devuelve, una entrada por unidad y en orden de registro, el estado
// terminal de las unidades que egresos vigentes sacaron del bulto seq sin retirar trazas.
func untracedWithdrawals(lot *entity.Lot, seq int, unit entity.Unit) []entity.Status {
	var out []entity.Status
	for _, m := range lot.Movements {
		if !m.Active || m.Kind != entity.KindWithdrawal || m.IsReversal() || lot.ReversalOf(m.Code) != nil {
			continue
		}
		for _, l := range m.Lines {
			if l.PackageSeq != seq || !l.Quantity.IsNegative() {
				continue
			}
			units := int(measure.ToBase(l.Quantity.Neg(), unit).IntPart())
			for _, tc := range l.Traces {
				if entity.IsTerminal(tc.ResultStatus) {
					units--
				}
			}
			for ; units > 0; units-- {
				out = append(out, entity.TerminalStatusFor(m.Reason))
			}
		}
	}
	return out
}

// creditPackage suma q al bulto, restaurando el estado indicado. Devuelve la línea y la cantidad en la unidad del lote.
func creditPackage(lot *entity.Lot, seq int, q decimal.Decimal, restore entity.Status) (entity.MovementLine, decimal.Decimal, error) {
	idx := lot.PackageBySeq(seq)
	if idx < 0 {
		return entity.MovementLine{}, decimal.Zero, domain.NewFieldError(domain.KindInvalidField, "package_seq",
			"el lote %s no tiene el bulto %d", lot.Code, seq)
	}
	before := lot.Packages[idx]
	after, err := stock.Credit(before, q, before.Unit, restore)
	if err != nil {
		return entity.MovementLine{}, decimal.Zero, err
	}
	lot.Packages[idx] = after
	inLot, err := measure.Convert(q, before.Unit, lot.Unit)
	if err != nil {
		return entity.MovementLine{}, decimal.Zero, err
	}
	return entity.MovementLine{
		PackageSeq:   seq,
		Quantity:     q,
		Unit:         before.Unit.Code,
		PriorStatus:  before.Status,
		ResultStatus: after.Status,
	}, inLot, nil
}

// setTrace cambia el estado de una traza del bulto y devuelve el cambio aplicado.
func setTrace(p *entity.Package, number int64, status entity.Status) entity.TraceChange {
	i := p.TraceByNumber(number)
	ch := entity.TraceChange{Number: number, PriorStatus: p.Traces[i].Status, ResultStatus: status}
	p.Traces[i].Status = status
	return ch
}

// AdjustmentLine ajuste con signo sobre un bulto, en la unidad indicada.
type AdjustmentLine struct {
	PackageSeq int
	Delta      decimal.Decimal
	Unit       entity.Unit
}

// Adjust aplica ajustes de inventario con signo. Los negativos descuentan como AJUSTE;
// los positivos reponen sin superar la cantidad inicial del bulto.
func Adjust(lot *entity.Lot, lines []AdjustmentLine, policy TracePolicy, st Stamp) (*entity.Movement, error) {
	if !lot.Active {
		return nil, domain.NewFieldError(domain.KindVerdictNotEligible, "lot_code", "el lote %s está inactivo", lot.Code)
	}
	if len(lines) == 0 {
		return nil, domain.NewFieldError(domain.KindInvalidField, "lines", "el ajuste no tiene bultos")
	}
	m := st.movement(lot, entity.KindWithdrawal, entity.ReasonAdjustment)
	net := decimal.Zero
	for i, l := range lines {
		var (
			line entity.MovementLine
			v    decimal.Decimal
			err  error
		)
		switch {
		case l.Delta.IsNegative():
			line, v, err = debitPackage(lot, stock.Allocation{PackageSeq: l.PackageSeq, Quantity: l.Delta.Neg(), Unit: l.Unit},
				entity.ReasonAdjustment, policy)
			v = v.Neg()
		case l.Delta.IsPositive():
			idx := lot.PackageBySeq(l.PackageSeq)
			if idx < 0 {
				err = domain.NewFieldError(domain.KindInvalidField, "package_seq", "el lote %s no tiene el bulto %d", lot.Code, l.PackageSeq)
				break
			}
			var q decimal.Decimal
			q, err = measure.Convert(l.Delta, l.Unit, lot.Packages[idx].Unit)
			if err == nil {
				line, v, err = creditPackage(lot, l.PackageSeq, q, "")
			}
		default:
			err = domain.NewFieldError(domain.KindInvalidField, "quantity", "el ajuste no puede ser cero")
		}
		if err != nil {
			return nil, domain.Scope(err, linePrefix(i))
		}
		net = net.Add(v)
		m.Lines = append(m.Lines, line)
	}
	if err := stock.RecomputeLot(lot); err != nil {
		return nil, err
	}
	m.Quantity = quantityPtr(net)
	lot.Movements = append(lot.Movements, m)
	return m, nil
}

// Returned devuelve la cantidad ya devuelta (en la unidad del lote) contra una venta.
func Returned(lot *entity.Lot, saleCode string) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range lot.Movements {
		if m.Active && m.Reason == entity.ReasonSaleReturn && m.OriginMovementCode == saleCode &&
			lot.ReversalOf(m.Code) == nil && m.Quantity != nil {
			sum = sum.Add(*m.Quantity)
		}
	}
	return sum
}

// CheckSaleReturn valida una devolución de qty (unidad del lote) contra la venta saleCode y devuelve la venta.
func CheckSaleReturn(lot *entity.Lot, saleCode string, qty decimal.Decimal) (*entity.Movement, error) {
	sale := lot.MovementByCode(saleCode)
	if sale == nil || sale.Reason != entity.ReasonSale {
		return nil, domain.NewFieldError(domain.KindInvalidField, "sale_movement_code",
			"el movimiento %s no es una venta del lote %s", saleCode, lot.Code)
	}
	if !sale.Active || lot.ReversalOf(sale.Code) != nil {
		return nil, domain.NewFieldError(domain.KindVerdictNotEligible, "sale_movement_code",
			"la venta %s fue revertida", saleCode)
	}
	sold := decimal.Zero
	if sale.Quantity != nil {
		sold = sale.Quantity.Abs()
	}
	returnable := sold.Sub(Returned(lot, saleCode))
	if qty.GreaterThan(returnable) {
		return nil, domain.NewFieldError(domain.KindQuantityMismatch, "quantity",
			"se intentan devolver %s %s pero la venta %s solo admite %s %s", qty, lot.Unit.Symbol, saleCode, returnable, lot.Unit.Symbol)
	}
	return sale, nil
}

// MarkReturned registra en el lote de origen la devolución de qty (unidad del lote) de una venta.
// No mueve cantidad: las trazas vendidas pasan de VENDIDO a DEVUELTO.
func MarkReturned(lot *entity.Lot, saleCode string, qty decimal.Decimal, st Stamp) (*entity.Movement, error) {
	if err := CanWithdraw(lot.Verdict, entity.ReasonSaleReturn); err != nil {
		return nil, err
	}
	sale, err := CheckSaleReturn(lot, saleCode, qty)
	if err != nil {
		return nil, err
	}

	m := st.movement(lot, entity.KindWithdrawal, entity.ReasonSaleReturn)
	m.Quantity = quantityPtr(qty)
	m.OriginMovementCode = sale.Code

	if lot.Unit.Family == entity.FamilyCount {
		n := int(measure.ToBase(qty, lot.Unit).IntPart())
		for _, sl := range sale.Lines {
			if n == 0 {
				break
			}
			idx := lot.PackageBySeq(sl.PackageSeq)
			if idx < 0 {
				continue
			}
			sold := make([]int64, 0, len(sl.Traces))
			for _, tc := range sl.Traces {
				if tc.ResultStatus == entity.StatusSold {
					sold = append(sold, tc.Number)
				}
			}
			sort.Slice(sold, func(i, j int) bool { return sold[i] < sold[j] })

			p := &lot.Packages[idx]
			line := entity.MovementLine{PackageSeq: p.Seq, Quantity: decimal.Zero, Unit: p.Unit.Code, PriorStatus: p.Status, ResultStatus: p.Status}
			for _, num := range sold {
				if n == 0 {
					break
				}
				ti := p.TraceByNumber(num)
				if ti < 0 || p.Traces[ti].Status != entity.StatusSold {
					continue
				}
				line.Traces = append(line.Traces, setTrace(p, num, entity.StatusReturned))
				n--
			}
			if len(line.Traces) > 0 {
				m.Lines = append(m.Lines, line)
			}
		}
	}
	lot.Movements = append(lot.Movements, m)
	return m, nil
}

func linePrefix(i int) string {
	return fmt.Sprintf("lines[%d]", i)
}
