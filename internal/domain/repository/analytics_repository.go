package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// DateKind fecha del análisis vigente sobre la que se consulta.
type DateKind string

const (
	DateExpiry     DateKind = "expiry_date"
	DateReanalysis DateKind = "reanalysis_date"
)

// VerdictCount cantidad de lotes activos con un dictamen.
type VerdictCount struct {
	Verdict entity.Verdict
	Lots    int
}

// DateAlert lote con stock cuya fecha de vencimiento o reanálisis cae dentro del horizonte.
// La fecha sale del último análisis activo con dictamen (análisis vigente).
type DateAlert struct {
	LotCode         string
	ProductCode     string
	Verdict         entity.Verdict
	AnalysisNumber  string
	Date            time.Time
	CurrentQuantity decimal.Decimal
	Unit            string
}

// AnalyticsRepository define las consultas de lectura para el tablero de calidad.
// Las implementaciones son read-only (no modifican datos).
type AnalyticsRepository interface {
	// CountActiveByVerdict cuenta los lotes activos agrupados por dictamen.
	CountActiveByVerdict(ctx context.Context) ([]VerdictCount, error)
	// DueBefore devuelve los lotes con stock, en alguno de los dictámenes indicados, cuya
	// fecha del tipo kind es anterior o igual a until. Incluye las ya vencidas. Orden: fecha, lote.
	DueBefore(ctx context.Context, kind DateKind, verdicts []entity.Verdict, until time.Time, limit int) ([]DateAlert, error)
}
