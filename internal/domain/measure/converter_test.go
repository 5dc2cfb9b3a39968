package measure_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/measure"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var (
	gram  = entity.MustUnit(entity.UnitGram)
	kilo  = entity.MustUnit(entity.UnitKilogram)
	milli = entity.MustUnit(entity.UnitMilligram)
	micro = entity.MustUnit(entity.UnitMicrogram)
	liter = entity.MustUnit(entity.UnitLiter)
	each  = entity.MustUnit(entity.UnitEach)
)

// ──────────────────────────────────────────────────────────────────────────────
// Convert
// ──────────────────────────────────────────────────────────────────────────────

func TestConvert_KilogramosAGramos(t *testing.T) {
	v, err := measure.Convert(d("2.5"), kilo, gram)
	require.NoError(t, err)
	assert.True(t, v.Equal(d("2500")), "got %s", v)
}

func TestConvert_MismaUnidadDevuelveIgual(t *testing.T) {
	q := d("12.3456789")
	v, err := measure.Convert(q, gram, gram)
	require.NoError(t, err)
	assert.True(t, v.Equal(q))
}

func TestConvert_FamiliasDistintasFalla(t *testing.T) {
	_, err := measure.Convert(d("1"), gram, liter)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrIncompatibleUnitFamily)
	assert.Equal(t, domain.KindIncompatibleUnitFamily, domain.KindOf(err))
}

func TestConvert_IdaYVueltaSinPerdida(t *testing.T) {
	cases := []struct {
		q        string
		from, to entity.Unit
	}{
		{"0.000123", kilo, micro},
		{"123456.789", micro, kilo},
		{"1", entity.MustUnit(entity.UnitThousand), each},
		{"3.75", entity.MustUnit(entity.UnitCubicMeter), entity.MustUnit(entity.UnitMicroliter)},
		{"0.5", entity.MustUnit(entity.UnitPercent), entity.MustUnit(entity.UnitPartsPerMillion)},
	}
	for _, tc := range cases {
		t.Run(tc.from.Code+"_"+tc.to.Code, func(t *testing.T) {
			there, err := measure.Convert(d(tc.q), tc.from, tc.to)
			require.NoError(t, err)
			back, err := measure.Convert(there, tc.to, tc.from)
			require.NoError(t, err)
			assert.True(t, back.Equal(d(tc.q)), "ida %s, vuelta %s", there, back)
		})
	}
}

func TestConvertForDisplay_Redondea(t *testing.T) {
	v, err := measure.ConvertForDisplay(d("1234"), milli, gram, 1)
	require.NoError(t, err)
	assert.Equal(t, "1.2", v.String())
}

// ──────────────────────────────────────────────────────────────────────────────
// Unidades y sugerencias de presentación
// ──────────────────────────────────────────────────────────────────────────────

func TestUnitBySymbol_MicroUnicode(t *testing.T) {
	// U+00B5 (signo micro) y U+03BC (letra griega mu) resuelven a la misma unidad.
	a, ok := entity.UnitBySymbol("µg")
	require.True(t, ok)
	b, ok := entity.UnitBySymbol("μg")
	require.True(t, ok)
	assert.Equal(t, a.Code, b.Code)
	assert.Equal(t, entity.UnitMicrogram, a.Code)

	m3, ok := entity.UnitBySymbol("m3")
	require.True(t, ok)
	assert.Equal(t, entity.UnitCubicMeter, m3.Code)
}

func TestUnitsOf_OrdenadasPorFactor(t *testing.T) {
	units := measure.UnitsOf(entity.FamilyMass)
	require.Len(t, units, 5)
	for i := 1; i < len(units); i++ {
		assert.True(t, units[i-1].Factor.LessThan(units[i].Factor))
	}
	assert.Equal(t, entity.UnitMicrogram, units[0].Code)
	assert.Equal(t, entity.UnitTonne, units[4].Code)
}

func TestMinorUnit(t *testing.T) {
	assert.Equal(t, gram.Code, measure.MinorUnit(kilo, gram).Code)
	assert.Equal(t, milli.Code, measure.MinorUnit(milli, kilo).Code)
	assert.Equal(t, gram.Code, measure.MinorUnit(gram, gram).Code)
}

func TestSuggestDisplayUnit(t *testing.T) {
	cases := []struct {
		name string
		unit entity.Unit
		q    string
		want string
	}{
		{"gramos a kilos", gram, "1500", entity.UnitKilogram},
		{"fraccion de gramo a miligramos", gram, "0.5", entity.UnitMilligram},
		{"cero conserva unidad", gram, "0", entity.UnitGram},
		{"valor ya legible", kilo, "2.5", entity.UnitKilogram},
		{"muchos decimales baja a microgramos", gram, "0.0000001", entity.UnitMicrogram},
		{"unidades a millares", each, "3000", entity.UnitThousand},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := measure.SuggestDisplayUnit(tc.unit, d(tc.q))
			assert.Equal(t, tc.want, got.Code)
		})
	}
}
