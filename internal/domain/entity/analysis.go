package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Analysis representa un análisis de control de calidad del lote.
// Un análisis está en curso mientras no tenga dictamen ni fecha de realización.
type Analysis struct {
	Number         string
	RequestedAt    time.Time
	PerformedAt    *time.Time
	ReanalysisDate *time.Time
	ExpiryDate     *time.Time
	Verdict        Verdict
	Assay          *decimal.Decimal // título / valoración en %
	Notes          string
	Active         bool
}

// IsOpen indica si el análisis sigue en curso.
func (a Analysis) IsOpen() bool {
	return a.Active && a.Verdict == "" && a.PerformedAt == nil
}

func (a Analysis) clone() Analysis {
	cp := a
	cp.PerformedAt = clonePtr(a.PerformedAt)
	cp.ReanalysisDate = clonePtr(a.ReanalysisDate)
	cp.ExpiryDate = clonePtr(a.ExpiryDate)
	cp.Assay = clonePtr(a.Assay)
	return cp
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
