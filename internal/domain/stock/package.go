package stock

import (
	"sort"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/measure"
	"github.com/shopspring/decimal"
)

// Debit descuenta q (en unit) del bulto y devuelve el bulto resultante; pkg no se modifica.
// Al quedar en cero el bulto pasa al estado terminal del motivo; si no, queda EN_USO.
func Debit(pkg entity.Package, q decimal.Decimal, unit entity.Unit, reason entity.Reason) (entity.Package, error) {
	if !q.IsPositive() {
		return pkg, domain.NewFieldError(domain.KindInvalidField, "quantity", "la cantidad a descontar debe ser mayor que cero")
	}
	amount, err := measure.Convert(q, unit, pkg.Unit)
	if err != nil {
		return pkg, err
	}
	if pkg.Unit.Family == entity.FamilyCount && !measure.ToBase(amount, pkg.Unit).IsInteger() {
		return pkg, domain.NewFieldError(domain.KindFractionalCountUnit, "quantity",
			"no se pueden descontar %s %s del bulto %d", amount, pkg.Unit.Symbol, pkg.Seq)
	}
	if !pkg.Active || entity.IsTerminal(pkg.Status) {
		return pkg, domain.NewFieldError(domain.KindInsufficientStock, "quantity",
			"el bulto %d está en estado %s y no admite egresos", pkg.Seq, pkg.Status)
	}
	if amount.GreaterThan(pkg.CurrentQuantity) {
		return pkg, domain.NewFieldError(domain.KindInsufficientStock, "quantity",
			"el bulto %d tiene %s %s, se solicitaron %s %s", pkg.Seq, pkg.CurrentQuantity, pkg.Unit.Symbol, amount, pkg.Unit.Symbol)
	}

	out := pkg
	out.CurrentQuantity = pkg.CurrentQuantity.Sub(amount)
	switch {
	case out.CurrentQuantity.IsZero():
		out.Status = entity.TerminalStatusFor(reason)
	case out.Status == entity.StatusNew || out.Status == entity.StatusAvailable:
		out.Status = entity.StatusInUse
	}
	return out, nil
}

// Credit suma q (en unit) al bulto. restore es el estado a dejar; vacío conserva el
// estado actual, salvo que sea terminal, en cuyo caso el bulto vuelve a EN_USO.
// El resultado nunca supera la cantidad inicial del bulto.
func Credit(pkg entity.Package, q decimal.Decimal, unit entity.Unit, restore entity.Status) (entity.Package, error) {
	if !q.IsPositive() {
		return pkg, domain.NewFieldError(domain.KindInvalidField, "quantity", "la cantidad a acreditar debe ser mayor que cero")
	}
	amount, err := measure.Convert(q, unit, pkg.Unit)
	if err != nil {
		return pkg, err
	}
	if pkg.Unit.Family == entity.FamilyCount && !measure.ToBase(amount, pkg.Unit).IsInteger() {
		return pkg, domain.NewFieldError(domain.KindFractionalCountUnit, "quantity",
			"no se pueden acreditar %s %s al bulto %d", amount, pkg.Unit.Symbol, pkg.Seq)
	}
	if !pkg.Active {
		return pkg, domain.NewFieldError(domain.KindInvalidField, "quantity", "el bulto %d está inactivo", pkg.Seq)
	}
	next := pkg.CurrentQuantity.Add(amount)
	if next.GreaterThan(pkg.InitialQuantity) {
		return pkg, domain.NewFieldError(domain.KindQuantityMismatch, "quantity",
			"el bulto %d quedaría con %s %s, por encima de su cantidad inicial (%s %s)",
			pkg.Seq, next, pkg.Unit.Symbol, pkg.InitialQuantity, pkg.Unit.Symbol)
	}

	out := pkg
	out.CurrentQuantity = next
	switch {
	case restore != "":
		out.Status = restore
	case entity.IsTerminal(out.Status):
		out.Status = entity.StatusInUse
	}
	return out, nil
}

// Allocation es la porción de un egreso asignada a un bulto, en la unidad del bulto.
type Allocation struct {
	PackageSeq int
	Quantity   decimal.Decimal
	Unit       entity.Unit
}

// AllocateFIFO reparte q (en unit) entre los bultos vivos del lote por secuencia ascendente.
func AllocateFIFO(lot *entity.Lot, q decimal.Decimal, unit entity.Unit) ([]Allocation, error) {
	if !q.IsPositive() {
		return nil, domain.NewFieldError(domain.KindInvalidField, "quantity", "la cantidad debe ser mayor que cero")
	}
	remaining, err := measure.Convert(q, unit, lot.Unit)
	if err != nil {
		return nil, err
	}
	avail, _ := Available(lot, lot.Unit)
	if remaining.GreaterThan(avail) {
		return nil, domain.NewFieldError(domain.KindInsufficientStock, "quantity",
			"el lote %s tiene %s %s, se solicitaron %s %s", lot.Code, lot.CurrentQuantity, lot.Unit.Symbol, q, unit.Symbol)
	}

	seqs := make([]int, 0, len(lot.Packages))
	for _, p := range lot.Packages {
		if p.Active && !entity.IsTerminal(p.Status) && p.CurrentQuantity.IsPositive() {
			seqs = append(seqs, p.Seq)
		}
	}
	sort.Ints(seqs)

	var out []Allocation
	for _, seq := range seqs {
		if !remaining.IsPositive() {
			break
		}
		p := lot.Packages[lot.PackageBySeq(seq)]
		have, err := measure.Convert(p.CurrentQuantity, p.Unit, lot.Unit)
		if err != nil {
			return nil, err
		}
		take := decimal.Min(have, remaining)
		inPkg, err := measure.Convert(take, lot.Unit, p.Unit)
		if err != nil {
			return nil, err
		}
		out = append(out, Allocation{PackageSeq: seq, Quantity: inPkg, Unit: p.Unit})
		remaining = remaining.Sub(take)
	}
	if remaining.IsPositive() {
		return nil, domain.NewFieldError(domain.KindInsufficientStock, "quantity",
			"los bultos disponibles del lote %s no cubren la cantidad solicitada", lot.Code)
	}
	return out, nil
}
