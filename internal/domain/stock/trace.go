package stock

import (
	"sort"
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/measure"
	"github.com/shopspring/decimal"
)

// FirstAvailableTraceUnits devuelve hasta count trazas del bulto, por número ascendente.
// Las trazas terminales nunca se devuelven; si el bulto tiene más unidades que las
// solicitadas, solo se consideran las DISPONIBLE.
func FirstAvailableTraceUnits(pkg entity.Package, count int) []entity.TraceUnit {
	if count <= 0 {
		return nil
	}
	held := pkg.CurrentQuantity
	if pkg.Unit.Family == entity.FamilyCount {
		held = measure.ToBase(held, pkg.Unit)
	}
	onlyAvailable := held.GreaterThan(decimal.NewFromInt(int64(count)))

	traces := make([]entity.TraceUnit, 0, len(pkg.Traces))
	for _, t := range pkg.Traces {
		if entity.IsTerminal(t.Status) {
			continue
		}
		if onlyAvailable && t.Status != entity.StatusAvailable {
			continue
		}
		traces = append(traces, t)
	}
	sort.Slice(traces, func(i, j int) bool { return traces[i].Number < traces[j].Number })
	if len(traces) > count {
		traces = traces[:count]
	}
	return traces
}

// AssignTraceUnits numera las trazas de un lote trazable en unidades de conteo.
// Los números son contiguos a partir de product.LastTraceNumber+1 y el cursor del
// producto avanza. Devuelve false si el lote no lleva trazas.
func AssignTraceUnits(lot *entity.Lot, product *entity.Product, at time.Time) bool {
	if product == nil || !product.Traceable || lot.Unit.Family != entity.FamilyCount {
		return false
	}
	next := product.LastTraceNumber + 1
	lot.InitialTraceNumber = next
	for i := range lot.Packages {
		p := &lot.Packages[i]
		n := measure.ToBase(p.CurrentQuantity, p.Unit).IntPart()
		p.Traces = make([]entity.TraceUnit, 0, n)
		for k := int64(0); k < n; k++ {
			p.Traces = append(p.Traces, entity.TraceUnit{
				Number:     next,
				LotCode:    lot.Code,
				PackageSeq: p.Seq,
				Status:     entity.StatusAvailable,
				CreatedAt:  at,
			})
			next++
		}
	}
	product.LastTraceNumber = next - 1
	return true
}

// LotAggregateStatus devuelve el estado de mayor prioridad entre los bultos activos.
// Sin bultos activos se conserva el estado actual del lote.
func LotAggregateStatus(lot *entity.Lot) entity.Status {
	best := entity.Status("")
	for _, p := range lot.Packages {
		if !p.Active {
			continue
		}
		if best == "" || entity.StatusPriority(p.Status) > entity.StatusPriority(best) {
			best = p.Status
		}
	}
	if best == "" {
		return lot.Status
	}
	return best
}

// RecomputeLot recalcula la cantidad actual y el estado agregado del lote desde sus bultos.
func RecomputeLot(lot *entity.Lot) error {
	sum := decimal.Zero
	for _, p := range lot.Packages {
		if !p.Active {
			continue
		}
		v, err := measure.Convert(p.CurrentQuantity, p.Unit, lot.Unit)
		if err != nil {
			return err
		}
		sum = sum.Add(v)
	}
	lot.CurrentQuantity = sum
	lot.Status = LotAggregateStatus(lot)
	return nil
}
