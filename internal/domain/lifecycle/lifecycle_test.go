package lifecycle_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/lifecycle"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/stock"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	kg = entity.MustUnit(entity.UnitKilogram)
	g  = entity.MustUnit(entity.UnitGram)
	un = entity.MustUnit(entity.UnitEach)

	analyst = entity.Actor{ID: "u-analista", Role: entity.RoleAnalyst, Level: 2}
	intake  = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(n int) time.Time { return intake.AddDate(0, 0, n) }

func stamp(code string, at time.Time) lifecycle.Stamp {
	return lifecycle.Stamp{Code: code, Date: at, Actor: analyst, RecordedAt: at}
}

// receivedLot ingresa un lote de qty en unit repartido en los bultos indicados.
func receivedLot(t *testing.T, qty string, unit entity.Unit, product *entity.Product, split ...string) *entity.Lot {
	t.Helper()
	lot := &entity.Lot{
		Code:            "L-100",
		ProductCode:     "P-1",
		InitialQuantity: d(qty),
		Unit:            unit,
		PackageCount:    len(split),
	}
	qs := make([]decimal.Decimal, len(split))
	for i, s := range split {
		qs[i] = d(s)
	}
	_, err := lifecycle.Intake(lot, product, qs, nil, entity.ReasonPurchase, stamp("M-IN", intake))
	require.NoError(t, err)
	return lot
}

// releasedLot lleva el lote hasta LIBERADO pasando por cuarentena y aprobación.
func releasedLot(t *testing.T, lot *entity.Lot) {
	t.Helper()
	_, err := lifecycle.ChangeVerdict(lot, entity.ReasonVerdictChange, entity.VerdictQuarantine, stamp("M-Q", day(1)))
	require.NoError(t, err)
	_, err = lifecycle.ChangeVerdict(lot, entity.ReasonVerdictChange, entity.VerdictApproved, stamp("M-A", day(2)))
	require.NoError(t, err)
	_, err = lifecycle.ChangeVerdict(lot, entity.ReasonRelease, entity.VerdictReleased, stamp("M-L", day(3)))
	require.NoError(t, err)
}

type packageSnapshot struct {
	qty    string
	status entity.Status
}

func snapshot(lot *entity.Lot) (string, entity.Status, []packageSnapshot) {
	out := make([]packageSnapshot, len(lot.Packages))
	for i, p := range lot.Packages {
		out[i] = packageSnapshot{p.CurrentQuantity.String(), p.Status}
	}
	return lot.CurrentQuantity.String(), lot.Status, out
}

// ──────────────────────────────────────────────────────────────────────────────
// Ingreso y dictámenes
// ──────────────────────────────────────────────────────────────────────────────

func TestIntake_CreaLoteConservado(t *testing.T) {
	lot := receivedLot(t, "25", kg, nil, "10", "8", "7")
	assert.Equal(t, entity.VerdictReceived, lot.Verdict)
	assert.Equal(t, entity.StatusNew, lot.Status)
	require.Len(t, lot.Movements, 1)
	assert.True(t, lot.Movements[0].Quantity.Equal(d("25")))
	assert.NoError(t, stock.CheckConservation(lot))
}

func TestChangeVerdict_AprobacionLiberaBultos(t *testing.T) {
	lot := receivedLot(t, "25", kg, nil, "10", "15")
	releasedLot(t, lot)
	for _, p := range lot.Packages {
		assert.Equal(t, entity.StatusAvailable, p.Status)
	}
	assert.Equal(t, entity.StatusAvailable, lot.Status)
}

func TestChangeVerdict_TransicionInvalida(t *testing.T) {
	lot := receivedLot(t, "5", kg, nil, "5")
	_, err := lifecycle.ChangeVerdict(lot, entity.ReasonRelease, entity.VerdictReleased, stamp("M-X", day(1)))
	assert.ErrorIs(t, err, domain.ErrVerdictNotEligible)
	assert.Equal(t, entity.VerdictReceived, lot.Verdict)
}

func TestCanWithdraw_Matriz(t *testing.T) {
	cases := []struct {
		verdict entity.Verdict
		reason  entity.Reason
		ok      bool
	}{
		{entity.VerdictReleased, entity.ReasonSale, true},
		{entity.VerdictApproved, entity.ReasonSale, false},
		{entity.VerdictQuarantine, entity.ReasonSampling, true},
		{entity.VerdictReleased, entity.ReasonSampling, false},
		{entity.VerdictApproved, entity.ReasonProductionConsumption, true},
		{entity.VerdictRejected, entity.ReasonDisposal, true},
		{entity.VerdictReleased, entity.ReasonDisposal, false},
		{entity.VerdictMarketRecall, entity.ReasonMarketRecall, true},
		{entity.VerdictReceived, entity.ReasonAdjustment, true},
	}
	for _, tc := range cases {
		t.Run(string(tc.verdict)+"_"+string(tc.reason), func(t *testing.T) {
			err := lifecycle.CanWithdraw(tc.verdict, tc.reason)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrVerdictNotEligible)
			}
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Fechas y resultados
// ──────────────────────────────────────────────────────────────────────────────

// Escenario F: reanálisis posterior al vencimiento.
func TestCheckApprovalDates_OrdenInvalido(t *testing.T) {
	re := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	exp := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	err := lifecycle.CheckApprovalDates(&re, &exp)
	assert.ErrorIs(t, err, domain.ErrInvalidDateOrdering)

	assert.NoError(t, lifecycle.CheckApprovalDates(&exp, &re))
	assert.NoError(t, lifecycle.CheckApprovalDates(nil, &exp))
	assert.ErrorIs(t, lifecycle.CheckApprovalDates(nil, nil), domain.ErrInvalidField)
}

func TestCheckAssay(t *testing.T) {
	ok := []string{"0.01", "99.5", "100"}
	bad := []string{"0", "-1", "100.01"}
	for _, s := range ok {
		v := d(s)
		assert.NoError(t, lifecycle.CheckAssay(&v), s)
	}
	for _, s := range bad {
		v := d(s)
		assert.ErrorIs(t, lifecycle.CheckAssay(&v), domain.ErrInvalidAssayResult, s)
	}
	assert.NoError(t, lifecycle.CheckAssay(nil))
}

func TestCheckDates_IngresoYOrigen(t *testing.T) {
	lot := receivedLot(t, "5", kg, nil, "5")
	assert.ErrorIs(t, lifecycle.CheckNotBeforeIntake(lot, day(-1), "date"), domain.ErrDateBeforeIntake)
	assert.NoError(t, lifecycle.CheckNotBeforeIntake(lot, intake, "date"))

	origin := &entity.Movement{Code: "M-V", Date: day(5)}
	assert.ErrorIs(t, lifecycle.CheckNotBeforeOrigin(origin, day(4), "date"), domain.ErrDateBeforeOrigin)
	assert.NoError(t, lifecycle.CheckNotBeforeOrigin(origin, day(5), "date"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Análisis
// ──────────────────────────────────────────────────────────────────────────────

func TestAnalysis_Ciclo(t *testing.T) {
	lot := receivedLot(t, "5", kg, nil, "5")
	index := lifecycle.AnalysisIndex{"A-7": "L-OTRO"}

	require.NoError(t, lifecycle.CreateAnalysis(lot, "A-1", day(1), "", index))

	err := lifecycle.CreateAnalysis(lot, "A-2", day(1), "", index)
	assert.ErrorIs(t, err, domain.ErrVerdictNotEligible, "solo un análisis en curso")

	err = lifecycle.CreateAnalysis(lot, "A-7", day(1), "", index)
	assert.ErrorIs(t, err, domain.ErrDuplicateAnalysis)

	assay := d("98.7")
	exp := day(365)
	num, err := lifecycle.RecordResult(lot, lifecycle.AnalysisResult{
		Verdict: entity.VerdictApproved, PerformedAt: day(2), ExpiryDate: &exp, Assay: &assay,
	})
	require.NoError(t, err)
	assert.Equal(t, "A-1", num)
	assert.False(t, lot.Analyses[0].IsOpen())

	err = lifecycle.CreateAnalysis(lot, "A-1", day(3), "", index)
	assert.ErrorIs(t, err, domain.ErrDuplicateAnalysis)
}

func TestGetOpenAnalysis_Multiples(t *testing.T) {
	lot := receivedLot(t, "5", kg, nil, "5")
	lot.Analyses = []entity.Analysis{
		{Number: "A-1", Active: true},
		{Number: "A-2", Active: true},
	}
	_, err := lifecycle.GetOpenAnalysis(lot)
	assert.ErrorIs(t, err, domain.ErrMultipleOpenAnalyses)
}

// ──────────────────────────────────────────────────────────────────────────────
// Egresos, trazas y reversos
// ──────────────────────────────────────────────────────────────────────────────

func TestWithdraw_VentaRetiraTrazas(t *testing.T) {
	product := &entity.Product{Code: "P-1", Traceable: true, LastTraceNumber: 100}
	lot := receivedLot(t, "10", un, product, "6", "4")
	releasedLot(t, lot)

	allocs, err := stock.AllocateFIFO(lot, d("7"), un)
	require.NoError(t, err)
	m, err := lifecycle.Withdraw(lot, entity.ReasonSale, allocs, lifecycle.DefaultTracePolicy(), stamp("M-V", day(4)))
	require.NoError(t, err)

	assert.True(t, lot.CurrentQuantity.Equal(d("3")))
	assert.Equal(t, entity.StatusSold, lot.Packages[0].Status)
	assert.Equal(t, entity.StatusInUse, lot.Packages[1].Status)

	sold := 0
	for _, l := range m.Lines {
		for _, tc := range l.Traces {
			assert.Equal(t, entity.StatusSold, tc.ResultStatus)
			sold++
		}
	}
	assert.Equal(t, 7, sold)
	assert.Equal(t, entity.StatusSold, lot.Packages[1].Traces[0].Status, "la traza más antigua del bulto 2 se vende primero")
	assert.Equal(t, entity.StatusAvailable, lot.Packages[1].Traces[1].Status)
	assert.NoError(t, stock.CheckConservation(lot))
}

func TestWithdraw_MuestreoNoRetiraTrazasPorDefecto(t *testing.T) {
	product := &entity.Product{Code: "P-1", Traceable: true}
	lot := receivedLot(t, "5", un, product, "5")
	m, err := lifecycle.Withdraw(lot, entity.ReasonSampling,
		[]stock.Allocation{{PackageSeq: 1, Quantity: d("1"), Unit: un}}, lifecycle.DefaultTracePolicy(), stamp("M-S", day(1)))
	require.NoError(t, err)
	assert.Empty(t, m.Lines[0].Traces)

	policy, err := lifecycle.NewTracePolicy([]string{"MUESTREO"})
	require.NoError(t, err)
	m, err = lifecycle.Withdraw(lot, entity.ReasonSampling,
		[]stock.Allocation{{PackageSeq: 1, Quantity: d("1"), Unit: un}}, policy, stamp("M-S2", day(1)))
	require.NoError(t, err)
	require.Len(t, m.Lines[0].Traces, 1)
	assert.Equal(t, entity.StatusConsumed, m.Lines[0].Traces[0].ResultStatus)
}

func TestWithdraw_AgotarTrasMuestreoNoVendeLasMuestras(t *testing.T) {
	product := &entity.Product{Code: "P-1", Traceable: true}
	lot := receivedLot(t, "5", un, product, "5")
	_, err := lifecycle.Withdraw(lot, entity.ReasonSampling,
		[]stock.Allocation{{PackageSeq: 1, Quantity: d("2"), Unit: un}}, lifecycle.DefaultTracePolicy(), stamp("M-S", day(1)))
	require.NoError(t, err)
	releasedLot(t, lot)

	sale, err := lifecycle.Withdraw(lot, entity.ReasonSale,
		[]stock.Allocation{{PackageSeq: 1, Quantity: d("3"), Unit: un}}, lifecycle.DefaultTracePolicy(), stamp("M-V", day(4)))
	require.NoError(t, err)
	assert.True(t, sale.Quantity.Equal(d("3")))
	assert.Equal(t, entity.StatusSold, lot.Packages[0].Status)

	byStatus := map[entity.Status]int{}
	for _, tr := range lot.Packages[0].Traces {
		byStatus[tr.Status]++
	}
	assert.Equal(t, 3, byStatus[entity.StatusSold], "solo las unidades de la venta quedan vendidas")
	assert.Equal(t, 2, byStatus[entity.StatusConsumed], "las muestras quedan consumidas")

	_, err = lifecycle.Reverse(lot, "M-V", stamp("M-R", day(5)))
	require.NoError(t, err)
	for _, tr := range lot.Packages[0].Traces {
		assert.Equal(t, entity.StatusAvailable, tr.Status)
	}
	assert.True(t, lot.CurrentQuantity.Equal(d("3")))
}

func TestWithdraw_DictamenNoElegible(t *testing.T) {
	lot := receivedLot(t, "5", kg, nil, "5")
	before := lot.Clone()
	_, err := lifecycle.Withdraw(lot, entity.ReasonSale,
		[]stock.Allocation{{PackageSeq: 1, Quantity: d("1"), Unit: kg}}, lifecycle.DefaultTracePolicy(), stamp("M-V", day(1)))
	assert.ErrorIs(t, err, domain.ErrVerdictNotEligible)
	assert.Equal(t, before.CurrentQuantity.String(), lot.CurrentQuantity.String())
}

func TestReverse_EgresoRestauraEstadoExacto(t *testing.T) {
	product := &entity.Product{Code: "P-1", Traceable: true}
	lot := receivedLot(t, "10", un, product, "6", "4")
	releasedLot(t, lot)
	qty, status, pkgs := snapshot(lot)

	allocs, err := stock.AllocateFIFO(lot, d("8"), un)
	require.NoError(t, err)
	_, err = lifecycle.Withdraw(lot, entity.ReasonSale, allocs, lifecycle.DefaultTracePolicy(), stamp("M-V", day(4)))
	require.NoError(t, err)

	rev, err := lifecycle.Reverse(lot, "M-V", stamp("M-R", day(5)))
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonReversal, rev.Reason)
	assert.Equal(t, "M-V", rev.OriginMovementCode)

	qty2, status2, pkgs2 := snapshot(lot)
	assert.Equal(t, qty, qty2)
	assert.Equal(t, status, status2)
	assert.Equal(t, pkgs, pkgs2)
	for _, p := range lot.Packages {
		for _, tr := range p.Traces {
			assert.Equal(t, entity.StatusAvailable, tr.Status)
		}
	}

	orig := lot.MovementByCode("M-V")
	assert.True(t, orig.Active, "el original no se modifica")

	_, err = lifecycle.Reverse(lot, "M-V", stamp("M-R2", day(5)))
	assert.ErrorIs(t, err, domain.ErrVerdictNotEligible, "un movimiento se revierte una sola vez")
	_, err = lifecycle.Reverse(lot, "M-R", stamp("M-R3", day(5)))
	assert.ErrorIs(t, err, domain.ErrVerdictNotEligible, "un reverso no se revierte")
}

func TestReverse_ModificacionExigeDictamenActual(t *testing.T) {
	lot := receivedLot(t, "5", kg, nil, "5")
	releasedLot(t, lot)

	_, err := lifecycle.Reverse(lot, "M-A", stamp("M-R", day(4)))
	assert.ErrorIs(t, err, domain.ErrVerdictNotEligible)

	_, err = lifecycle.Reverse(lot, "M-L", stamp("M-R", day(4)))
	require.NoError(t, err)
	assert.Equal(t, entity.VerdictApproved, lot.Verdict)
}

func TestReverse_AprobacionDevuelveBultosANuevo(t *testing.T) {
	lot := receivedLot(t, "5", kg, nil, "2", "3")
	_, err := lifecycle.ChangeVerdict(lot, entity.ReasonVerdictChange, entity.VerdictQuarantine, stamp("M-Q", day(1)))
	require.NoError(t, err)
	_, err = lifecycle.ChangeVerdict(lot, entity.ReasonVerdictChange, entity.VerdictApproved, stamp("M-A", day(2)))
	require.NoError(t, err)

	_, err = lifecycle.Reverse(lot, "M-A", stamp("M-R", day(3)))
	require.NoError(t, err)
	assert.Equal(t, entity.VerdictQuarantine, lot.Verdict)
	for _, p := range lot.Packages {
		assert.Equal(t, entity.StatusNew, p.Status)
	}
}

func TestReverse_IngresoDesactivaLote(t *testing.T) {
	product := &entity.Product{Code: "P-1", Traceable: true}
	lot := receivedLot(t, "3", un, product, "3")
	cursor := product.LastTraceNumber

	_, err := lifecycle.Withdraw(lot, entity.ReasonSampling,
		[]stock.Allocation{{PackageSeq: 1, Quantity: d("1"), Unit: un}}, lifecycle.DefaultTracePolicy(), stamp("M-S", day(1)))
	require.NoError(t, err)
	_, err = lifecycle.Reverse(lot, "M-IN", stamp("M-R", day(2)))
	assert.ErrorIs(t, err, domain.ErrVerdictNotEligible, "hay un muestreo sin revertir")

	_, err = lifecycle.Reverse(lot, "M-S", stamp("M-R", day(2)))
	require.NoError(t, err)
	_, err = lifecycle.Reverse(lot, "M-IN", stamp("M-R2", day(2)))
	require.NoError(t, err)

	assert.False(t, lot.Active)
	assert.True(t, lot.CurrentQuantity.IsZero())
	for _, p := range lot.Packages {
		assert.False(t, p.Active)
		for _, tr := range p.Traces {
			assert.Equal(t, entity.StatusDiscarded, tr.Status)
		}
	}
	assert.Equal(t, cursor, product.LastTraceNumber, "el cursor de trazas no retrocede")
}

func TestReverseWithDerived_DevolucionYLoteDerivado(t *testing.T) {
	product := &entity.Product{Code: "P-1", Traceable: true}
	lot := receivedLot(t, "5", un, product, "5")
	releasedLot(t, lot)
	_, err := lifecycle.Withdraw(lot, entity.ReasonSale,
		[]stock.Allocation{{PackageSeq: 1, Quantity: d("3"), Unit: un}}, lifecycle.DefaultTracePolicy(), stamp("M-V", day(4)))
	require.NoError(t, err)
	mr, err := lifecycle.MarkReturned(lot, "M-V", d("2"), stamp("M-D", day(5)))
	require.NoError(t, err)
	derived, _, err := lifecycle.NewDerivedLot(lot, "L-100-D1", []decimal.Decimal{d("2")}, nil,
		entity.VerdictCustomerReturn, mr.Code, stamp("M-DI", day(5)))
	require.NoError(t, err)
	mr.DerivedLotCode = derived.Code

	_, err = lifecycle.Reverse(lot, "M-D", stamp("M-X", day(6)))
	assert.ErrorIs(t, err, domain.ErrVerdictNotEligible, "la devolución se revierte junto con su lote derivado")
	_, err = lifecycle.Reverse(derived, "M-DI", stamp("M-X", day(6)))
	assert.ErrorIs(t, err, domain.ErrVerdictNotEligible)

	_, err = lifecycle.Adjust(derived, []lifecycle.AdjustmentLine{{PackageSeq: 1, Delta: d("-1"), Unit: un}},
		lifecycle.DefaultTracePolicy(), stamp("M-AJ", day(6)))
	require.NoError(t, err)
	_, _, err = lifecycle.ReverseWithDerived(lot, derived, "M-D", stamp("M-R1", day(7)), stamp("M-R2", day(7)))
	assert.ErrorIs(t, err, domain.ErrVerdictNotEligible, "el lote derivado tiene un ajuste vigente")
	assert.True(t, derived.Active)

	_, err = lifecycle.Reverse(derived, "M-AJ", stamp("M-R0", day(7)))
	require.NoError(t, err)
	m, dm, err := lifecycle.ReverseWithDerived(lot, derived, "M-D", stamp("M-R1", day(7)), stamp("M-R2", day(7)))
	require.NoError(t, err)
	assert.Equal(t, "M-D", m.OriginMovementCode)
	assert.Equal(t, "M-DI", dm.OriginMovementCode)
	assert.Equal(t, derived.Code, dm.LotCode)

	assert.False(t, derived.Active)
	assert.True(t, derived.CurrentQuantity.IsZero())
	sold := 0
	for _, tr := range lot.Packages[0].Traces {
		if tr.Status == entity.StatusSold {
			sold++
		}
		assert.NotEqual(t, entity.StatusReturned, tr.Status)
	}
	assert.Equal(t, 3, sold, "las trazas devueltas vuelven a vendidas")
	assert.True(t, lifecycle.Returned(lot, "M-V").IsZero())
	_, err = lifecycle.CheckSaleReturn(lot, "M-V", d("3"))
	assert.NoError(t, err, "la venta vuelve a admitir la devolución completa")
}

func TestAdjust_PositivoYNegativo(t *testing.T) {
	lot := receivedLot(t, "10", kg, nil, "5", "5")
	_, err := lifecycle.Adjust(lot, []lifecycle.AdjustmentLine{{PackageSeq: 1, Delta: d("-2"), Unit: kg}},
		lifecycle.DefaultTracePolicy(), stamp("M-AJ1", day(1)))
	require.NoError(t, err)
	assert.True(t, lot.CurrentQuantity.Equal(d("8")))

	m, err := lifecycle.Adjust(lot, []lifecycle.AdjustmentLine{{PackageSeq: 1, Delta: d("500"), Unit: g}},
		lifecycle.DefaultTracePolicy(), stamp("M-AJ2", day(1)))
	require.NoError(t, err)
	assert.True(t, m.Quantity.Equal(d("0.5")))
	assert.True(t, lot.CurrentQuantity.Equal(d("8.5")))

	_, err = lifecycle.Adjust(lot, []lifecycle.AdjustmentLine{{PackageSeq: 2, Delta: d("1"), Unit: kg}},
		lifecycle.DefaultTracePolicy(), stamp("M-AJ3", day(1)))
	assert.ErrorIs(t, err, domain.ErrQuantityMismatch, "no se supera la cantidad inicial")

	var fe *domain.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "lines[0].quantity", fe.Field)
}

func TestMarkReturned_TrazasVendidasPasanADevueltas(t *testing.T) {
	product := &entity.Product{Code: "P-1", Traceable: true}
	lot := receivedLot(t, "5", un, product, "5")
	releasedLot(t, lot)

	_, err := lifecycle.Withdraw(lot, entity.ReasonSale,
		[]stock.Allocation{{PackageSeq: 1, Quantity: d("3"), Unit: un}}, lifecycle.DefaultTracePolicy(), stamp("M-V", day(4)))
	require.NoError(t, err)

	m, err := lifecycle.MarkReturned(lot, "M-V", d("2"), stamp("M-D", day(6)))
	require.NoError(t, err)
	require.Len(t, m.Lines, 1)
	assert.Len(t, m.Lines[0].Traces, 2)
	assert.True(t, lot.CurrentQuantity.Equal(d("2")), "la devolución no cambia la cantidad del lote de origen")

	_, err = lifecycle.MarkReturned(lot, "M-V", d("2"), stamp("M-D2", day(6)))
	assert.ErrorIs(t, err, domain.ErrQuantityMismatch, "solo queda 1 unidad por devolver")

	derived, intakeMov, err := lifecycle.NewDerivedLot(lot, "L-100-D1", []decimal.Decimal{d("2")}, nil,
		entity.VerdictCustomerReturn, m.Code, stamp("M-DIN", day(6)))
	require.NoError(t, err)
	assert.Equal(t, "L-100", derived.OriginLotCode)
	assert.Equal(t, entity.VerdictCustomerReturn, derived.Verdict)
	assert.Equal(t, entity.ReasonDerivedLot, intakeMov.Reason)
	assert.Empty(t, derived.Packages[0].Traces)
}
