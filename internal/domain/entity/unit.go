package entity

import (
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// UnitFamily agrupa unidades convertibles entre sí.
type UnitFamily string

// Familias de medida soportadas.
const (
	FamilyMass       UnitFamily = "MASA"
	FamilyVolume     UnitFamily = "VOLUMEN"
	FamilyLength     UnitFamily = "LONGITUD"
	FamilyArea       UnitFamily = "SUPERFICIE"
	FamilyCount      UnitFamily = "UNIDADES"
	FamilyPercentage UnitFamily = "PORCENTAJE"
)

// Unit representa una unidad de medida (UnidadMedida). Factor convierte a la unidad base de la familia.
// Las unidades son inmutables y se definen al iniciar el proceso.
type Unit struct {
	Code   string
	Name   string
	Symbol string
	Factor decimal.Decimal
	Family UnitFamily
}

// IsZero indica si la unidad no fue asignada.
func (u Unit) IsZero() bool { return u.Code == "" }

// Códigos de unidad del catálogo.
const (
	UnitMicrogram        = "MICROGRAMO"
	UnitMilligram        = "MILIGRAMO"
	UnitGram             = "GRAMO"
	UnitKilogram         = "KILOGRAMO"
	UnitTonne            = "TONELADA"
	UnitMicroliter       = "MICROLITRO"
	UnitMilliliter       = "MILILITRO"
	UnitLiter            = "LITRO"
	UnitCubicMeter       = "METRO_CUBICO"
	UnitMicrometer       = "MICROMETRO"
	UnitMillimeter       = "MILIMETRO"
	UnitCentimeter       = "CENTIMETRO"
	UnitMeter            = "METRO"
	UnitKilometer        = "KILOMETRO"
	UnitSquareMillimeter = "MILIMETRO_CUADRADO"
	UnitSquareCentimeter = "CENTIMETRO_CUADRADO"
	UnitSquareMeter      = "METRO_CUADRADO"
	UnitEach             = "UNIDAD"
	UnitHundred          = "CIENTO"
	UnitThousand         = "MILLAR"
	UnitPartsPerMillion  = "PARTES_POR_MILLON"
	UnitPercent          = "PORCENTAJE"
)

var catalog = []Unit{
	{UnitMicrogram, "Microgramo", "µg", decimal.New(1, -6), FamilyMass},
	{UnitMilligram, "Miligramo", "mg", decimal.New(1, -3), FamilyMass},
	{UnitGram, "Gramo", "g", decimal.New(1, 0), FamilyMass},
	{UnitKilogram, "Kilogramo", "kg", decimal.New(1, 3), FamilyMass},
	{UnitTonne, "Tonelada", "t", decimal.New(1, 6), FamilyMass},

	{UnitMicroliter, "Microlitro", "µL", decimal.New(1, -6), FamilyVolume},
	{UnitMilliliter, "Mililitro", "mL", decimal.New(1, -3), FamilyVolume},
	{UnitLiter, "Litro", "L", decimal.New(1, 0), FamilyVolume},
	{UnitCubicMeter, "Metro cúbico", "m³", decimal.New(1, 3), FamilyVolume},

	{UnitMicrometer, "Micrómetro", "µm", decimal.New(1, -6), FamilyLength},
	{UnitMillimeter, "Milímetro", "mm", decimal.New(1, -3), FamilyLength},
	{UnitCentimeter, "Centímetro", "cm", decimal.New(1, -2), FamilyLength},
	{UnitMeter, "Metro", "m", decimal.New(1, 0), FamilyLength},
	{UnitKilometer, "Kilómetro", "km", decimal.New(1, 3), FamilyLength},

	{UnitSquareMillimeter, "Milímetro cuadrado", "mm²", decimal.New(1, -6), FamilyArea},
	{UnitSquareCentimeter, "Centímetro cuadrado", "cm²", decimal.New(1, -4), FamilyArea},
	{UnitSquareMeter, "Metro cuadrado", "m²", decimal.New(1, 0), FamilyArea},

	{UnitEach, "Unidad", "UN", decimal.New(1, 0), FamilyCount},
	{UnitHundred, "Ciento", "CIENTO", decimal.New(1, 2), FamilyCount},
	{UnitThousand, "Millar", "MILLAR", decimal.New(1, 3), FamilyCount},

	{UnitPartsPerMillion, "Partes por millón", "ppm", decimal.New(1, -4), FamilyPercentage},
	{UnitPercent, "Porcentaje", "%", decimal.New(1, 0), FamilyPercentage},
}

var (
	byCode   = make(map[string]Unit, len(catalog))
	bySymbol = make(map[string]Unit, len(catalog))
	folder   = cases.Fold()
)

func init() {
	for _, u := range catalog {
		byCode[u.Code] = u
		bySymbol[symbolKey(u.Symbol)] = u
	}
}

// symbolKey normaliza un símbolo: NFKC unifica µ (U+00B5) con μ (U+03BC) y ³/² con 3/2.
func symbolKey(s string) string {
	return folder.String(norm.NFKC.String(s))
}

// Units devuelve una copia del catálogo completo.
func Units() []Unit {
	out := make([]Unit, len(catalog))
	copy(out, catalog)
	return out
}

// UnitsOf devuelve las unidades de una familia ordenadas por factor ascendente.
func UnitsOf(family UnitFamily) []Unit {
	var out []Unit
	for _, u := range catalog {
		if u.Family == family {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Factor.LessThan(out[j].Factor) })
	return out
}

// UnitByCode busca una unidad por código.
func UnitByCode(code string) (Unit, bool) {
	u, ok := byCode[code]
	return u, ok
}

// UnitBySymbol busca una unidad por símbolo, tolerando variantes Unicode y mayúsculas.
func UnitBySymbol(symbol string) (Unit, bool) {
	u, ok := bySymbol[symbolKey(symbol)]
	return u, ok
}

// LookupUnit acepta código o símbolo.
func LookupUnit(s string) (Unit, bool) {
	if u, ok := UnitByCode(s); ok {
		return u, true
	}
	return UnitBySymbol(s)
}

// MustUnit devuelve la unidad del catálogo o entra en pánico. Usar solo con códigos constantes.
func MustUnit(code string) Unit {
	u, ok := LookupUnit(code)
	if !ok {
		panic("unidad desconocida: " + code)
	}
	return u
}
