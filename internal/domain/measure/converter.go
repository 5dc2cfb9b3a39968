// Package measure convierte cantidades entre unidades de una misma familia sin pérdida de precisión.
package measure

import (
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// divScale escala de la división; exacta para factores potencia de diez del catálogo.
const divScale = 20

// Convert convierte q de la unidad from a la unidad to. El resultado no se redondea.
func Convert(q decimal.Decimal, from, to entity.Unit) (decimal.Decimal, error) {
	if from.Family != to.Family {
		return decimal.Zero, domain.NewFieldError(domain.KindIncompatibleUnitFamily, "unit",
			"no se puede convertir %s (%s) a %s (%s)", from.Symbol, from.Family, to.Symbol, to.Family)
	}
	if from.Code == to.Code {
		return q, nil
	}
	return q.Mul(from.Factor).DivRound(to.Factor, divScale), nil
}

// ToBase convierte q a la unidad base de su familia.
func ToBase(q decimal.Decimal, u entity.Unit) decimal.Decimal {
	return q.Mul(u.Factor)
}

// ConvertForDisplay convierte y redondea a places decimales. Solo para presentación.
func ConvertForDisplay(q decimal.Decimal, from, to entity.Unit, places int32) (decimal.Decimal, error) {
	v, err := Convert(q, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return v.Round(places), nil
}

// MinorUnit devuelve la unidad de menor factor; a en caso de empate.
func MinorUnit(a, b entity.Unit) entity.Unit {
	if b.Factor.LessThan(a.Factor) {
		return b
	}
	return a
}

// UnitsOf devuelve las unidades de la familia ordenadas por factor.
func UnitsOf(family entity.UnitFamily) []entity.Unit {
	return entity.UnitsOf(family)
}

// SuggestDisplayUnit sugiere la unidad más legible para mostrar q. No participa en invariantes.
//
// Recorre la familia de mayor a menor factor y toma la primera unidad donde el valor es ≥ 1
// con a lo sumo 2 decimales; si ninguna sirve, la mayor unidad donde el valor queda < 100
// con a lo sumo 3 decimales; si tampoco, la unidad original.
func SuggestDisplayUnit(u entity.Unit, q decimal.Decimal) entity.Unit {
	units := entity.UnitsOf(u.Family)
	if q.IsZero() || len(units) < 2 {
		return u
	}
	abs := q.Abs()
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)

	for i := len(units) - 1; i >= 0; i-- {
		v, err := Convert(abs, u, units[i])
		if err != nil {
			return u
		}
		if v.GreaterThanOrEqual(one) && decimalPlaces(v) <= 2 {
			return units[i]
		}
	}
	for i := len(units) - 1; i >= 0; i-- {
		v, _ := Convert(abs, u, units[i])
		if v.LessThan(hundred) && decimalPlaces(v) <= 3 {
			return units[i]
		}
	}
	return u
}

// decimalPlaces cuenta los decimales significativos (sin ceros a la derecha).
func decimalPlaces(d decimal.Decimal) int32 {
	for p := int32(0); p <= divScale; p++ {
		if d.Equal(d.Truncate(p)) {
			return p
		}
	}
	return divScale + 1
}
