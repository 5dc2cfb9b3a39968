// Package stock mantiene consistentes las cantidades de un lote, sus bultos y sus trazas.
package stock

import (
	"fmt"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/measure"
	"github.com/shopspring/decimal"
)

// conservationScale escala a la que se compara la suma de bultos con el total del lote.
const conservationScale = 6

// AllocateInitialPackages reparte la cantidad inicial del lote en sus bultos.
// Si el lote tiene un solo bulto y no se indica reparto, el bulto recibe todo el lote.
// units puede ser más corto que quantities; las posiciones faltantes usan la unidad del lote.
func AllocateInitialPackages(lot *entity.Lot, quantities []decimal.Decimal, units []entity.Unit) ([]entity.Package, error) {
	if lot.PackageCount < 1 {
		return nil, domain.NewFieldError(domain.KindInvalidField, "package_count", "el lote debe tener al menos un bulto")
	}
	if len(quantities) == 0 && lot.PackageCount == 1 {
		quantities = []decimal.Decimal{lot.InitialQuantity}
		units = []entity.Unit{lot.Unit}
	}
	if len(quantities) != lot.PackageCount {
		return nil, domain.NewFieldError(domain.KindQuantityMismatch, "packages",
			"se esperaban %d bultos, se recibieron %d", lot.PackageCount, len(quantities))
	}

	countFamily := lot.Unit.Family == entity.FamilyCount
	total := decimal.Zero
	packages := make([]entity.Package, len(quantities))
	for i, q := range quantities {
		u := lot.Unit
		if i < len(units) && !units[i].IsZero() {
			u = units[i]
		}
		if !q.IsPositive() {
			return nil, domain.NewFieldError(domain.KindInvalidField, fmt.Sprintf("packages[%d].quantity", i),
				"la cantidad del bulto %d debe ser mayor que cero", i+1)
		}
		inLot, err := measure.Convert(q, u, lot.Unit)
		if err != nil {
			return nil, domain.WithField(err, fmt.Sprintf("packages[%d].unit", i))
		}
		if countFamily && (!q.IsInteger() || !inLot.IsInteger()) {
			return nil, domain.NewFieldError(domain.KindFractionalCountUnit, fmt.Sprintf("packages[%d].quantity", i),
				"el bulto %d tiene %s %s; las unidades de conteo no admiten fracciones", i+1, q, u.Symbol)
		}
		total = total.Add(inLot)
		packages[i] = entity.Package{
			Seq:             i + 1,
			InitialQuantity: q,
			CurrentQuantity: q,
			Unit:            u,
			Status:          entity.StatusNew,
			Active:          true,
		}
	}

	if !total.Round(conservationScale).Equal(lot.InitialQuantity.Round(conservationScale)) {
		return nil, domain.NewFieldError(domain.KindQuantityMismatch, "packages",
			"la suma de los bultos (%s %s) no coincide con la cantidad del lote (%s %s)",
			total.Round(conservationScale).String(), lot.Unit.Symbol, lot.InitialQuantity.String(), lot.Unit.Symbol)
	}
	return packages, nil
}

// CheckConservation verifica que la suma de bultos activos coincida con el lote
// y que ninguna cantidad sea negativa ni supere la inicial.
func CheckConservation(lot *entity.Lot) error {
	sum := decimal.Zero
	for _, p := range lot.Packages {
		if p.CurrentQuantity.IsNegative() {
			return domain.NewFieldError(domain.KindInsufficientStock, "packages",
				"el bulto %d quedó con cantidad negativa (%s)", p.Seq, p.CurrentQuantity)
		}
		if p.CurrentQuantity.GreaterThan(p.InitialQuantity) {
			return domain.NewFieldError(domain.KindQuantityMismatch, "packages",
				"el bulto %d supera su cantidad inicial", p.Seq)
		}
		if !p.Active {
			continue
		}
		v, err := measure.Convert(p.CurrentQuantity, p.Unit, lot.Unit)
		if err != nil {
			return err
		}
		sum = sum.Add(v)
	}
	if lot.CurrentQuantity.IsNegative() || lot.CurrentQuantity.GreaterThan(lot.InitialQuantity) {
		return domain.NewFieldError(domain.KindQuantityMismatch, "quantity",
			"la cantidad del lote (%s) está fuera de rango", lot.CurrentQuantity)
	}
	if lot.Active && !sum.Round(conservationScale).Equal(lot.CurrentQuantity.Round(conservationScale)) {
		return domain.NewFieldError(domain.KindQuantityMismatch, "packages",
			"la suma de los bultos (%s %s) no coincide con el lote (%s %s)",
			sum.Round(conservationScale), lot.Unit.Symbol, lot.CurrentQuantity, lot.Unit.Symbol)
	}
	return nil
}

// Available devuelve la cantidad disponible del lote expresada en unit.
func Available(lot *entity.Lot, unit entity.Unit) (decimal.Decimal, error) {
	return measure.Convert(lot.CurrentQuantity, lot.Unit, unit)
}
