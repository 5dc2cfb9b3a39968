package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Trazabilidad-api/internal/application/catalog"
	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/application/report"
	"github.com/jhoicas/Trazabilidad-api/internal/application/traceability"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/memory"
	"github.com/jhoicas/Trazabilidad-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/Trazabilidad-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// buildAPI monta el router completo sobre el store en memoria.
func buildAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	svc := traceability.NewService(traceability.NewEngine(), store, store.Lots(), store.Products(), nil, nil)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Traceability: svc,
		ProductUC:    catalog.NewProductUseCase(store.Products()),
		ReportUC:     report.NewUseCase(svc, store.Products(), pdf.NewLotSheetGenerator("")),
		JWTSecret:    testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func errorBody(t *testing.T, raw []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &e))
	return e
}

const intakeBody = `{
	"product_code": "P-1",
	"supplier": "Droguería Central",
	"date": "2024-01-10",
	"quantity": "100",
	"unit": "kg",
	"packages": [{"quantity": "60"}, {"quantity": "40"}]
}`

func createProduct(t *testing.T, app *fiber.App) {
	t.Helper()
	resp, raw := call(t, app, http.MethodPost, "/api/products", entity.RoleSupervisor,
		`{"code":"P-1","name":"Amoxicilina trihidrato"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
}

// ──────────────────────────────────────────────────────────────────────────────
// Productos
// ──────────────────────────────────────────────────────────────────────────────

func TestProductHandler_AltaRequiereNivel(t *testing.T) {
	app := buildAPI(t)

	resp, _ := call(t, app, http.MethodPost, "/api/products", entity.RoleAuxiliary, `{"code":"P-1","name":"X"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	createProduct(t, app)
	resp, _ = call(t, app, http.MethodPost, "/api/products", entity.RoleAdmin, `{"code":"P-1","name":"X"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, raw := call(t, app, http.MethodGet, "/api/products/P-1", entity.RoleAuxiliary, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p dto.ProductResponse
	require.NoError(t, json.Unmarshal(raw, &p))
	assert.Equal(t, "Amoxicilina trihidrato", p.Name)

	resp, _ = call(t, app, http.MethodGet, "/api/products/NADA", entity.RoleAuxiliary, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Lotes
// ──────────────────────────────────────────────────────────────────────────────

func TestLotHandler_IngresoYConsulta(t *testing.T) {
	app := buildAPI(t)
	createProduct(t, app)

	resp, raw := call(t, app, http.MethodPost, "/api/lots/L-100/purchase-intake", entity.RoleAuxiliary, intakeBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	assert.NotEmpty(t, resp.Header.Get(apphttp.HeaderCorrelationID))

	var out dto.ExecuteResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "L-100", out.Lot.Code)
	assert.Equal(t, entity.UnitKilogram, out.Lot.Unit)
	require.Len(t, out.Movements, 1)
	assert.Equal(t, testUserID, out.Movements[0].RecordedBy)

	resp, raw = call(t, app, http.MethodGet, "/api/lots/L-100", entity.RoleAuxiliary, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lot dto.LotResponse
	require.NoError(t, json.Unmarshal(raw, &lot))
	assert.Equal(t, string(entity.VerdictReceived), lot.Verdict)
	assert.Len(t, lot.Packages, 2)

	resp, raw = call(t, app, http.MethodGet, "/api/lots?product_code=P-1", entity.RoleAuxiliary, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.LotListResponse
	require.NoError(t, json.Unmarshal(raw, &list))
	assert.Len(t, list.Items, 1)
}

func TestLotHandler_ValidarNoAplica(t *testing.T) {
	app := buildAPI(t)
	createProduct(t, app)

	resp, raw := call(t, app, http.MethodPost, "/api/lots/L-100/purchase-intake/validate", entity.RoleAuxiliary, intakeBody)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	resp, _ = call(t, app, http.MethodGet, "/api/lots/L-100", entity.RoleAuxiliary, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLotHandler_CodigosDeError(t *testing.T) {
	app := buildAPI(t)
	createProduct(t, app)
	resp, raw := call(t, app, http.MethodPost, "/api/lots/L-100/purchase-intake", entity.RoleAuxiliary, intakeBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	cases := []struct {
		name   string
		path   string
		body   string
		status int
		kind   domain.Kind
		field  string
	}{
		{"caso de uso desconocido", "/api/lots/L-100/teleport", `{}`,
			http.StatusBadRequest, domain.KindInvalidField, "use_case"},
		{"fecha anterior al ingreso", "/api/lots/L-100/sampling", `{"date":"2024-01-01","quantity":"1"}`,
			http.StatusUnprocessableEntity, domain.KindDateBeforeIntake, "date"},
		{"stock insuficiente", "/api/lots/L-100/sampling", `{"date":"2024-01-11","quantity":"500"}`,
			http.StatusConflict, domain.KindInsufficientStock, ""},
		{"dictamen no elegible", "/api/lots/L-100/sale", `{"date":"2024-01-11","quantity":"1"}`,
			http.StatusConflict, domain.KindVerdictNotEligible, "verdict"},
		{"familia incompatible", "/api/lots/L-100/sampling", `{"date":"2024-01-11","quantity":"1","unit":"L"}`,
			http.StatusBadRequest, domain.KindIncompatibleUnitFamily, ""},
		{"ajuste sin nivel", "/api/lots/L-100/adjustment",
			`{"date":"2024-01-11","lines":[{"package_seq":1,"delta":"-1"}],"notes":"merma"}`,
			http.StatusForbidden, domain.KindReversalNotAuthorized, "nivel"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, raw := call(t, app, http.MethodPost, tc.path, entity.RoleAuxiliary, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode, string(raw))
			e := errorBody(t, raw)
			assert.Equal(t, string(tc.kind), e.Code)
			if tc.field != "" {
				assert.Equal(t, tc.field, e.Field)
			}
		})
	}
}

func TestLotHandler_FichaPDF(t *testing.T) {
	app := buildAPI(t)
	createProduct(t, app)
	resp, raw := call(t, app, http.MethodPost, "/api/lots/L-100/purchase-intake", entity.RoleAuxiliary, intakeBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = call(t, app, http.MethodGet, "/api/lots/L-100/sheet.pdf", entity.RoleAuxiliary, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "lote_L-100.pdf")
	assert.True(t, strings.HasPrefix(string(raw), "%PDF"))

	resp, _ = call(t, app, http.MethodGet, "/api/lots/NADA/sheet.pdf", entity.RoleAuxiliary, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLotHandler_SinToken(t *testing.T) {
	app := buildAPI(t)
	resp, _ := call(t, app, http.MethodGet, "/api/lots/L-100", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLotHandler_ListaCasosDeUso(t *testing.T) {
	app := buildAPI(t)
	resp, raw := call(t, app, http.MethodGet, "/api/lots/use-cases", entity.RoleAuxiliary, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ucs []string
	require.NoError(t, json.Unmarshal(raw, &ucs))
	assert.Len(t, ucs, len(traceability.UseCases()))
	assert.Contains(t, ucs, string(traceability.UseCaseReversal))
}

// ──────────────────────────────────────────────────────────────────────────────
// Unidades
// ──────────────────────────────────────────────────────────────────────────────

func TestUnitHandler_Convertir(t *testing.T) {
	app := buildAPI(t)

	resp, raw := call(t, app, http.MethodGet, "/api/units/convert?quantity=1500&from=g&to=KILOGRAMO", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var out dto.ConvertResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.True(t, out.Result.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, entity.UnitGram, out.From)

	resp, raw = call(t, app, http.MethodGet, "/api/units/convert?quantity=1&from=kg&to=L", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, string(domain.KindIncompatibleUnitFamily), errorBody(t, raw).Code)

	resp, _ = call(t, app, http.MethodGet, "/api/units/convert?quantity=abc&from=kg&to=g", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnitHandler_ListarPorFamilia(t *testing.T) {
	app := buildAPI(t)

	resp, raw := call(t, app, http.MethodGet, "/api/units?family=volumen", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var units []dto.UnitResponse
	require.NoError(t, json.Unmarshal(raw, &units))
	require.NotEmpty(t, units)
	for _, u := range units {
		assert.Equal(t, string(entity.FamilyVolume), u.Family)
	}
}

func TestUnitHandler_Sugerir(t *testing.T) {
	app := buildAPI(t)

	resp, raw := call(t, app, http.MethodGet, "/api/units/suggest?quantity=0.005&unit=kg", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	var out dto.SuggestResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, entity.UnitKilogram, out.Unit)
	assert.NotEqual(t, entity.UnitKilogram, out.Suggest)
}
