package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento de lote.
type MovementKind string

// Tipos de movimiento.
const (
	KindIntake       MovementKind = "INGRESO"
	KindWithdrawal   MovementKind = "EGRESO"
	KindModification MovementKind = "MODIFICACION"
)

// Reason es el motivo de un movimiento.
type Reason string

// Motivos de ingreso.
const (
	ReasonPurchase      Reason = "COMPRA"
	ReasonOwnProduction Reason = "PRODUCCION_PROPIA"
	ReasonDerivedLot    Reason = "LOTE_DERIVADO"
)

// Motivos de egreso.
const (
	ReasonSampling              Reason = "MUESTREO"
	ReasonProductionConsumption Reason = "CONSUMO_PRODUCCION"
	ReasonSale                  Reason = "VENTA"
	ReasonSaleReturn            Reason = "DEVOLUCION_VENTA"
	ReasonDisposal              Reason = "DESCARTE"
	ReasonAdjustment            Reason = "AJUSTE"
	ReasonMarketRecall          Reason = "RETIRO_MERCADO"
)

// Motivos de modificación.
const (
	ReasonVerdictChange     Reason = "CAMBIO_DICTAMEN"
	ReasonRelease           Reason = "LIBERACION"
	ReasonReanalysis        Reason = "ASIGNACION_REANALISIS"
	ReasonAnalysisAnnulment Reason = "ANULACION_ANALISIS"
	ReasonRecallDeclaration Reason = "DECLARACION_RETIRO"
	ReasonAnalysisExpiry    Reason = "VENCIMIENTO_ANALISIS"
	ReasonReversal          Reason = "REVERSO"
)

// AnalysisEffect indica qué hizo un movimiento sobre un análisis, para poder revertirlo.
type AnalysisEffect string

const (
	AnalysisCreated  AnalysisEffect = "CREADO"
	AnalysisResulted AnalysisEffect = "RESULTADO"
	AnalysisAnnulled AnalysisEffect = "ANULADO"
)

// TraceChange cambio de estado de una traza causado por un movimiento.
type TraceChange struct {
	Number       int64  `json:"number"`
	PriorStatus  Status `json:"prior_status"`
	ResultStatus Status `json:"result_status"`
}

// MovementLine efecto de un movimiento sobre un bulto. Quantity es con signo
// (negativo débito, positivo crédito) y está expresada en la unidad del bulto.
type MovementLine struct {
	PackageSeq   int             `json:"package_seq"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	PriorStatus  Status          `json:"prior_status"`
	ResultStatus Status          `json:"result_status"`
	Traces       []TraceChange   `json:"traces,omitempty"`
}

// Movement representa un movimiento de lote (ingreso, egreso o modificación).
// Los movimientos son de solo agregado; un reverso crea un movimiento nuevo.
type Movement struct {
	Code               string
	LotCode            string
	Kind               MovementKind
	Reason             Reason
	Date               time.Time
	Quantity           *decimal.Decimal // nil en cambios de estado puros
	Unit               string
	InitialVerdict     Verdict
	ResultVerdict      Verdict
	Notes              string
	OriginMovementCode string // movimiento revertido o venta de origen
	DerivedLotCode     string
	AnalysisNumber     string
	AnalysisEffect     AnalysisEffect
	Lines              []MovementLine
	RecordedBy         string
	RecordedByLevel    int
	RecordedAt         time.Time
	Active             bool
}

// IsReversal indica si el movimiento es un reverso.
func (m *Movement) IsReversal() bool { return m.Reason == ReasonReversal }

func (m *Movement) clone() *Movement {
	cp := *m
	if m.Quantity != nil {
		q := *m.Quantity
		cp.Quantity = &q
	}
	cp.Lines = make([]MovementLine, len(m.Lines))
	for i, l := range m.Lines {
		cp.Lines[i] = l
		cp.Lines[i].Traces = append([]TraceChange(nil), l.Traces...)
	}
	return &cp
}
