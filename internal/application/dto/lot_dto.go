package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PackageQuantity cantidad declarada de un bulto. Unit vacío usa la unidad del lote.
type PackageQuantity struct {
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit,omitempty"`
}

// IntakeRequest body para ingresos por compra o producción propia.
type IntakeRequest struct {
	ProductCode  string            `json:"product_code" validate:"required,max=50"`
	Supplier     string            `json:"supplier,omitempty" validate:"omitempty,max=120"`
	Manufacturer string            `json:"manufacturer,omitempty" validate:"omitempty,max=120"`
	Date         string            `json:"date" validate:"required,datetime=2006-01-02"`
	Quantity     decimal.Decimal   `json:"quantity"`
	Unit         string            `json:"unit" validate:"required"`
	PackageCount int               `json:"package_count,omitempty" validate:"omitempty,min=1,max=10000"`
	Packages     []PackageQuantity `json:"packages,omitempty" validate:"omitempty,dive"`
	Notes        string            `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// WithdrawalLine cantidad a descontar de un bulto específico.
type WithdrawalLine struct {
	PackageSeq int             `json:"package_seq" validate:"required,min=1"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit,omitempty"`
}

// WithdrawalRequest body para muestreo, consumo, venta y descarte.
// Se indica Quantity (reparto FIFO por bulto) o Lines, no ambos.
type WithdrawalRequest struct {
	Date     string           `json:"date" validate:"required,datetime=2006-01-02"`
	Quantity *decimal.Decimal `json:"quantity,omitempty" validate:"required_without=Lines,excluded_with=Lines"`
	Unit     string           `json:"unit,omitempty"`
	Lines    []WithdrawalLine `json:"lines,omitempty" validate:"omitempty,dive"`
	Notes    string           `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// ReturnRequest body para devolución de clientes contra una venta del lote.
// La cantidad devuelta ingresa como lote derivado con dictamen DEVOLUCION_CLIENTES.
type ReturnRequest struct {
	SaleMovementCode string            `json:"sale_movement_code" validate:"required"`
	Date             string            `json:"date" validate:"required,datetime=2006-01-02"`
	Quantity         decimal.Decimal   `json:"quantity"`
	Unit             string            `json:"unit,omitempty"`
	Packages         []PackageQuantity `json:"packages,omitempty" validate:"omitempty,dive"`
	DerivedLotCode   string            `json:"derived_lot_code,omitempty" validate:"omitempty,max=50"`
	Notes            string            `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// RecallRequest body para retiro de mercado: declara el dictamen y retira el stock remanente.
type RecallRequest struct {
	Date             string `json:"date" validate:"required,datetime=2006-01-02"`
	CreateDerivedLot bool   `json:"create_derived_lot,omitempty"`
	DerivedLotCode   string `json:"derived_lot_code,omitempty" validate:"omitempty,max=50"`
	Notes            string `json:"notes" validate:"required,max=500"`
}

// AnalysisRequest body para cuarentena y asignación de reanálisis: abre un análisis.
type AnalysisRequest struct {
	AnalysisNumber string `json:"analysis_number" validate:"required,max=50"`
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	Notes          string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// ResultRequest body para registrar el resultado del análisis en curso.
type ResultRequest struct {
	Verdict        string           `json:"verdict" validate:"required,oneof=APROBADO RECHAZADO"`
	Date           string           `json:"date" validate:"required,datetime=2006-01-02"`
	PerformedAt    string           `json:"performed_at" validate:"required,datetime=2006-01-02"`
	ReanalysisDate string           `json:"reanalysis_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ExpiryDate     string           `json:"expiry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Assay          *decimal.Decimal `json:"assay,omitempty"`
	Notes          string           `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// VerdictRequest body para cambios de dictamen sin análisis (liberación, vencimiento, anulación).
type VerdictRequest struct {
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
	Notes string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// AdjustmentLine ajuste con signo sobre un bulto.
type AdjustmentLine struct {
	PackageSeq int             `json:"package_seq" validate:"required,min=1"`
	Delta      decimal.Decimal `json:"delta"`
	Unit       string          `json:"unit,omitempty"`
}

// AdjustmentRequest body para ajustes de inventario. La justificación es obligatoria.
type AdjustmentRequest struct {
	Date  string           `json:"date" validate:"required,datetime=2006-01-02"`
	Lines []AdjustmentLine `json:"lines" validate:"required,min=1,dive"`
	Notes string           `json:"notes" validate:"required,max=500"`
}

// ReversalRequest body para revertir un movimiento del lote.
type ReversalRequest struct {
	MovementCode string `json:"movement_code" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Notes        string `json:"notes" validate:"required,max=500"`
}

// TraceResponse traza individual.
type TraceResponse struct {
	Number int64  `json:"number"`
	Status string `json:"status"`
}

// PackageResponse bulto de un lote.
type PackageResponse struct {
	Seq             int             `json:"seq"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	Unit            string          `json:"unit"`
	Status          string          `json:"status"`
	Active          bool            `json:"active"`
	Traces          []TraceResponse `json:"traces,omitempty"`
}

// MovementLineResponse línea de movimiento por bulto.
type MovementLineResponse struct {
	PackageSeq   int                   `json:"package_seq"`
	Quantity     decimal.Decimal       `json:"quantity"`
	Unit         string                `json:"unit"`
	PriorStatus  string                `json:"prior_status,omitempty"`
	ResultStatus string                `json:"result_status,omitempty"`
	Traces       []TraceChangeResponse `json:"traces,omitempty"`
}

// TraceChangeResponse cambio de estado de una traza.
type TraceChangeResponse struct {
	Number       int64  `json:"number"`
	PriorStatus  string `json:"prior_status"`
	ResultStatus string `json:"result_status"`
}

// MovementResponse movimiento registrado.
type MovementResponse struct {
	Code               string                 `json:"code"`
	LotCode            string                 `json:"lot_code"`
	Kind               string                 `json:"kind"`
	Reason             string                 `json:"reason"`
	Date               string                 `json:"date"`
	Quantity           *decimal.Decimal       `json:"quantity,omitempty"`
	Unit               string                 `json:"unit,omitempty"`
	InitialVerdict     string                 `json:"initial_verdict,omitempty"`
	ResultVerdict      string                 `json:"result_verdict,omitempty"`
	OriginMovementCode string                 `json:"origin_movement_code,omitempty"`
	DerivedLotCode     string                 `json:"derived_lot_code,omitempty"`
	AnalysisNumber     string                 `json:"analysis_number,omitempty"`
	Notes              string                 `json:"notes,omitempty"`
	RecordedBy         string                 `json:"recorded_by"`
	RecordedAt         time.Time              `json:"recorded_at"`
	Lines              []MovementLineResponse `json:"lines,omitempty"`
}

// AnalysisResponse análisis de un lote.
type AnalysisResponse struct {
	Number         string           `json:"number"`
	RequestedAt    string           `json:"requested_at"`
	PerformedAt    string           `json:"performed_at,omitempty"`
	ReanalysisDate string           `json:"reanalysis_date,omitempty"`
	ExpiryDate     string           `json:"expiry_date,omitempty"`
	Verdict        string           `json:"verdict,omitempty"`
	Assay          *decimal.Decimal `json:"assay,omitempty"`
	Open           bool             `json:"open"`
	Active         bool             `json:"active"`
}

// LotResponse lote con bultos, movimientos y análisis.
// DisplayQuantity/DisplayUnit son una sugerencia de presentación, no autoritativa.
type LotResponse struct {
	Code               string             `json:"code"`
	ProductCode        string             `json:"product_code"`
	Supplier           string             `json:"supplier,omitempty"`
	Manufacturer       string             `json:"manufacturer,omitempty"`
	IntakeDate         string             `json:"intake_date"`
	InitialQuantity    decimal.Decimal    `json:"initial_quantity"`
	CurrentQuantity    decimal.Decimal    `json:"current_quantity"`
	Unit               string             `json:"unit"`
	DisplayQuantity    decimal.Decimal    `json:"display_quantity"`
	DisplayUnit        string             `json:"display_unit"`
	Status             string             `json:"status"`
	Verdict            string             `json:"verdict"`
	OriginLotCode      string             `json:"origin_lot_code,omitempty"`
	InitialTraceNumber int64              `json:"initial_trace_number,omitempty"`
	Active             bool               `json:"active"`
	Packages           []PackageResponse  `json:"packages"`
	Movements          []MovementResponse `json:"movements,omitempty"`
	Analyses           []AnalysisResponse `json:"analyses,omitempty"`
}

// ExecuteResponse resultado de ejecutar un caso de uso sobre un lote.
type ExecuteResponse struct {
	Lot        LotResponse        `json:"lot"`
	DerivedLot *LotResponse       `json:"derived_lot,omitempty"`
	Movements  []MovementResponse `json:"movements"`
}

// ValidateResponse resultado de una validación en seco.
type ValidateResponse struct {
	UseCase string `json:"use_case"`
	LotCode string `json:"lot_code"`
	Valid   bool   `json:"valid"`
}

// ConvertResponse resultado de una conversión de unidades.
type ConvertResponse struct {
	Quantity  decimal.Decimal `json:"quantity"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Result    decimal.Decimal `json:"result"`
	Displayed decimal.Decimal `json:"displayed"`
}

// SuggestResponse unidad de presentación sugerida para una cantidad.
type SuggestResponse struct {
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Suggest  string          `json:"suggested_unit"`
	Result   decimal.Decimal `json:"result"`
}

// UnitResponse unidad de medida del catálogo.
type UnitResponse struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Symbol string          `json:"symbol"`
	Family string          `json:"family"`
	Factor decimal.Decimal `json:"factor"`
}
