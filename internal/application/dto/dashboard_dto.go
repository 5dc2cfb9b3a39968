package dto

import "github.com/shopspring/decimal"

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
// Lotes activos por dictamen más las alertas de vencimiento y reanálisis del horizonte.
type DashboardSummaryDTO struct {
	ActiveLots int            `json:"active_lots"`
	ByVerdict  map[string]int `json:"by_verdict"` // dictamen → cantidad de lotes activos

	// Lotes APROBADO/LIBERADO con stock cuya fecha vence antes de Until (incluye vencidas)
	Expiring      []DateAlertDTO `json:"expiring"`
	ReanalysisDue []DateAlertDTO `json:"reanalysis_due"`

	HorizonDays int    `json:"horizon_days"`
	Until       string `json:"until"`      // AAAA-MM-DD
	DateLabel   string `json:"date_label"` // ej: "Febrero 2026"
}

// DateAlertDTO lote con una fecha de calidad próxima o vencida.
type DateAlertDTO struct {
	LotCode         string          `json:"lot_code"`
	ProductCode     string          `json:"product_code"`
	Verdict         string          `json:"verdict"`
	AnalysisNumber  string          `json:"analysis_number"`
	Date            string          `json:"date"`
	DaysLeft        int             `json:"days_left"` // negativo si ya venció
	Overdue         bool            `json:"overdue"`
	CurrentQuantity decimal.Decimal `json:"current_quantity"`
	Unit            string          `json:"unit"`
}
