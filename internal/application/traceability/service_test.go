package traceability_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/traceability"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type recordingPublisher struct {
	mu     sync.Mutex
	events []traceability.LotMovementEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if eventType == traceability.EventLotMovementRecorded {
		p.events = append(p.events, data.(traceability.LotMovementEvent))
	}
	return p.err
}

func newService(t *testing.T, events traceability.EventPublisher) (*traceability.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Products().Create(context.Background(), &entity.Product{Code: "P-1", Name: "Amoxicilina"}))
	return traceability.NewService(newEngine(), store, store.Lots(), store.Products(), events, nil), store
}

func intakeRequest() *dto.IntakeRequest {
	return &dto.IntakeRequest{
		ProductCode: "P-1",
		Supplier:    "Droguería Central",
		Date:        "2024-01-10",
		Quantity:    d("100"),
		Unit:        entity.UnitKilogram,
		Packages:    []dto.PackageQuantity{{Quantity: d("60")}, {Quantity: d("40")}},
	}
}

// releaseLot ingresa y libera L-100 a través del servicio.
func releaseLot(t *testing.T, svc *traceability.Service) {
	t.Helper()
	ctx := context.Background()
	steps := []struct {
		uc     traceability.UseCase
		req    any
		caller entity.Actor
	}{
		{traceability.UseCasePurchaseIntake, intakeRequest(), auxiliary},
		{traceability.UseCaseQuarantineDecision, &dto.AnalysisRequest{AnalysisNumber: "AN-1", Date: "2024-01-11"}, analyst},
		{traceability.UseCaseResultRecording, &dto.ResultRequest{
			Verdict: string(entity.VerdictApproved), Date: "2024-01-13", PerformedAt: "2024-01-12", ExpiryDate: "2026-01-10",
		}, analyst},
		{traceability.UseCaseRelease, &dto.VerdictRequest{Date: "2024-01-14"}, supervisor},
	}
	for _, s := range steps {
		_, err := svc.Execute(ctx, s.uc, "L-100", s.req, s.caller)
		require.NoError(t, err, s.uc)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Execute / ValidateOnly
// ──────────────────────────────────────────────────────────────────────────────

func TestService_ExecutePersisteYPublica(t *testing.T) {
	pub := &recordingPublisher{}
	svc, store := newService(t, pub)
	ctx := context.Background()

	out, err := svc.Execute(ctx, traceability.UseCasePurchaseIntake, "L-100", intakeRequest(), auxiliary)
	require.NoError(t, err)
	assert.Equal(t, "L-100", out.Lot.Code)
	assert.Equal(t, string(entity.VerdictReceived), out.Lot.Verdict)
	require.Len(t, out.Movements, 1)

	lot, err := store.Lots().Get(ctx, "L-100")
	require.NoError(t, err)
	require.NotNil(t, lot)
	assert.True(t, lot.CurrentQuantity.Equal(d("100")))

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, "L-100", ev.LotCode)
	assert.Equal(t, string(traceability.UseCasePurchaseIntake), ev.UseCase)
	assert.Equal(t, auxiliary.ID, ev.RecordedBy)
}

func TestService_FalloDelBrokerNoRevierte(t *testing.T) {
	svc, store := newService(t, &recordingPublisher{err: errors.New("broker caído")})

	_, err := svc.Execute(context.Background(), traceability.UseCasePurchaseIntake, "L-100", intakeRequest(), auxiliary)
	require.NoError(t, err)

	lot, err := store.Lots().Get(context.Background(), "L-100")
	require.NoError(t, err)
	assert.NotNil(t, lot)
}

func TestService_ValidateOnlyNoGuarda(t *testing.T) {
	svc, store := newService(t, nil)
	ctx := context.Background()

	out, err := svc.ValidateOnly(ctx, traceability.UseCasePurchaseIntake, "L-100", intakeRequest(), auxiliary)
	require.NoError(t, err)
	assert.True(t, out.Valid)

	lot, err := store.Lots().Get(ctx, "L-100")
	require.NoError(t, err)
	assert.Nil(t, lot)
}

func TestService_ValidacionRechazadaNoGuarda(t *testing.T) {
	svc, store := newService(t, nil)
	ctx := context.Background()
	req := intakeRequest()
	req.Supplier = ""

	_, err := svc.Execute(ctx, traceability.UseCasePurchaseIntake, "L-100", req, auxiliary)
	assert.Equal(t, domain.KindInvalidField, domain.KindOf(err))

	lot, err := store.Lots().Get(ctx, "L-100")
	require.NoError(t, err)
	assert.Nil(t, lot)
}

func TestService_IngresoAvanzaCursorDelProducto(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Products().Create(ctx, &entity.Product{Code: "P-2", Traceable: true, LastTraceNumber: 5}))
	svc := traceability.NewService(newEngine(), store, store.Lots(), store.Products(), nil, nil)

	_, err := svc.Execute(ctx, traceability.UseCaseProductionIntake, "L-200", &dto.IntakeRequest{
		ProductCode: "P-2", Date: "2024-01-10", Quantity: d("3"), Unit: entity.UnitEach,
	}, auxiliary)
	require.NoError(t, err)

	p, err := store.Products().Get(ctx, "P-2")
	require.NoError(t, err)
	assert.EqualValues(t, 8, p.LastTraceNumber)
}

func TestService_LoteDerivadoExistente(t *testing.T) {
	svc, store := newService(t, nil)
	ctx := context.Background()
	releaseLot(t, svc)

	out, err := svc.Execute(ctx, traceability.UseCaseSale, "L-100",
		&dto.WithdrawalRequest{Date: "2024-01-15", Quantity: dp("10")}, auxiliary)
	require.NoError(t, err)
	sale := out.Movements[0].Code

	require.NoError(t, store.Lots().Save(ctx, &entity.Lot{Code: "L-100-D1", ProductCode: "P-1"}))

	_, err = svc.Execute(ctx, traceability.UseCaseReturn, "L-100", &dto.ReturnRequest{
		SaleMovementCode: sale, Date: "2024-01-16", Quantity: d("2"),
	}, auxiliary)
	var fe *domain.FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "derived_lot_code", fe.Field)
}

func TestService_DevolucionGuardaAmbosLotes(t *testing.T) {
	pub := &recordingPublisher{}
	svc, store := newService(t, pub)
	ctx := context.Background()
	releaseLot(t, svc)

	out, err := svc.Execute(ctx, traceability.UseCaseSale, "L-100",
		&dto.WithdrawalRequest{Date: "2024-01-15", Quantity: dp("10")}, auxiliary)
	require.NoError(t, err)

	ret, err := svc.Execute(ctx, traceability.UseCaseReturn, "L-100", &dto.ReturnRequest{
		SaleMovementCode: out.Movements[0].Code, Date: "2024-01-16", Quantity: d("2"),
	}, auxiliary)
	require.NoError(t, err)
	require.NotNil(t, ret.DerivedLot)

	derived, err := store.Lots().Get(ctx, ret.DerivedLot.Code)
	require.NoError(t, err)
	require.NotNil(t, derived)
	assert.Equal(t, entity.VerdictCustomerReturn, derived.Verdict)

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, ret.DerivedLot.Code, last.LotCode)
}

func TestService_VentasConcurrentesNoSobregiran(t *testing.T) {
	svc, store := newService(t, nil)
	ctx := context.Background()
	releaseLot(t, svc)

	var (
		mu     sync.Mutex
		failed []error
	)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 2; i++ {
		g.Go(func() error {
			_, err := svc.Execute(gctx, traceability.UseCaseSale, "L-100",
				&dto.WithdrawalRequest{Date: "2024-01-15", Quantity: dp("60")}, auxiliary)
			if err != nil {
				mu.Lock()
				failed = append(failed, err)
				mu.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Len(t, failed, 1)
	assert.Equal(t, domain.KindInsufficientStock, domain.KindOf(failed[0]))

	lot, err := store.Lots().Get(ctx, "L-100")
	require.NoError(t, err)
	assert.True(t, lot.CurrentQuantity.Equal(d("40")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestService_GetLot(t *testing.T) {
	svc, _ := newService(t, nil)
	ctx := context.Background()

	_, err := svc.GetLot(ctx, "NO-EXISTE")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	releaseLot(t, svc)
	out, err := svc.GetLot(ctx, "L-100")
	require.NoError(t, err)
	assert.Equal(t, string(entity.VerdictReleased), out.Verdict)
	assert.Len(t, out.Movements, 4)
	require.Len(t, out.Analyses, 1)
	assert.Equal(t, "2024-01-12", out.Analyses[0].PerformedAt)
}

func TestService_ListLotsFiltraYResume(t *testing.T) {
	svc, store := newService(t, nil)
	ctx := context.Background()
	require.NoError(t, store.Products().Create(ctx, &entity.Product{Code: "P-2"}))
	releaseLot(t, svc)
	req := intakeRequest()
	req.ProductCode = "P-2"
	_, err := svc.Execute(ctx, traceability.UseCasePurchaseIntake, "L-300", req, auxiliary)
	require.NoError(t, err)

	all, err := svc.ListLots(ctx, "", dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	only, err := svc.ListLots(ctx, "P-1", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, only.Items, 1)
	assert.Equal(t, "L-100", only.Items[0].Code)
	assert.Nil(t, only.Items[0].Movements)
	assert.Len(t, only.Items[0].Packages, 2)
}
