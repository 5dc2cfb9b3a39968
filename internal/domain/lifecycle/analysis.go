package lifecycle

import (
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// AnalysisIndex relaciona números de análisis activos con el código de su lote.
type AnalysisIndex map[string]string

// AnalysisResult datos de un resultado de análisis.
type AnalysisResult struct {
	Verdict        entity.Verdict
	PerformedAt    time.Time
	ReanalysisDate *time.Time
	ExpiryDate     *time.Time
	Assay          *decimal.Decimal
	Notes          string
}

// GetOpenAnalysis devuelve el índice del análisis en curso del lote, o -1 si no hay.
// Más de uno en curso indica datos corruptos y falla con MultipleOpenAnalyses.
func GetOpenAnalysis(lot *entity.Lot) (int, error) {
	found := -1
	count := 0
	for i := range lot.Analyses {
		if lot.Analyses[i].IsOpen() {
			if found < 0 {
				found = i
			}
			count++
		}
	}
	if count > 1 {
		return -1, domain.NewFieldError(domain.KindMultipleOpenAnalyses, "analysis_number",
			"el lote %s tiene %d análisis en curso", lot.Code, count)
	}
	return found, nil
}

// CheckNewAnalysis valida que el número sea único y que el lote no tenga otro análisis en curso.
func CheckNewAnalysis(lot *entity.Lot, number string, index AnalysisIndex) error {
	if number == "" {
		return domain.NewFieldError(domain.KindInvalidField, "analysis_number", "el número de análisis es obligatorio")
	}
	if lot.AnalysisByNumber(number) >= 0 {
		return domain.NewFieldError(domain.KindDuplicateAnalysis, "analysis_number",
			"el análisis %s ya existe en el lote %s", number, lot.Code)
	}
	if owner, ok := index[number]; ok && owner != lot.Code {
		return domain.NewFieldError(domain.KindDuplicateAnalysis, "analysis_number",
			"el análisis %s ya está asignado al lote %s", number, owner)
	}
	open, err := GetOpenAnalysis(lot)
	if err != nil {
		return err
	}
	if open >= 0 {
		return domain.NewFieldError(domain.KindVerdictNotEligible, "analysis_number",
			"el lote %s ya tiene el análisis %s en curso", lot.Code, lot.Analyses[open].Number)
	}
	return nil
}

// CreateAnalysis agrega un análisis en curso al lote.
func CreateAnalysis(lot *entity.Lot, number string, requestedAt time.Time, notes string, index AnalysisIndex) error {
	if err := CheckNewAnalysis(lot, number, index); err != nil {
		return err
	}
	lot.Analyses = append(lot.Analyses, entity.Analysis{
		Number:      number,
		RequestedAt: requestedAt,
		Notes:       notes,
		Active:      true,
	})
	return nil
}

// OpenAnalysisFor devuelve el análisis en curso o falla con VerdictNotEligible si no hay ninguno.
func OpenAnalysisFor(lot *entity.Lot) (int, error) {
	idx, err := GetOpenAnalysis(lot)
	if err != nil {
		return -1, err
	}
	if idx < 0 {
		return -1, domain.NewFieldError(domain.KindVerdictNotEligible, "analysis_number",
			"el lote %s no tiene análisis en curso", lot.Code)
	}
	return idx, nil
}

// RecordResult registra el resultado en el análisis en curso y devuelve su número.
func RecordResult(lot *entity.Lot, r AnalysisResult) (string, error) {
	idx, err := OpenAnalysisFor(lot)
	if err != nil {
		return "", err
	}
	a := &lot.Analyses[idx]
	if r.PerformedAt.Before(a.RequestedAt) {
		return "", domain.NewFieldError(domain.KindInvalidDateOrdering, "performed_at",
			"la fecha de realización es anterior a la solicitud del análisis %s", a.Number)
	}
	performed := r.PerformedAt
	a.PerformedAt = &performed
	a.Verdict = r.Verdict
	a.ReanalysisDate = r.ReanalysisDate
	a.ExpiryDate = r.ExpiryDate
	a.Assay = r.Assay
	if r.Notes != "" {
		a.Notes = r.Notes
	}
	return a.Number, nil
}

// AnnulAnalysis anula el análisis en curso y devuelve su número.
func AnnulAnalysis(lot *entity.Lot) (string, error) {
	idx, err := OpenAnalysisFor(lot)
	if err != nil {
		return "", err
	}
	lot.Analyses[idx].Active = false
	return lot.Analyses[idx].Number, nil
}

// undoAnalysis deshace el efecto que un movimiento tuvo sobre un análisis.
func undoAnalysis(lot *entity.Lot, m *entity.Movement) {
	if m.AnalysisNumber == "" {
		return
	}
	idx := -1
	for i := len(lot.Analyses) - 1; i >= 0; i-- {
		if lot.Analyses[i].Number == m.AnalysisNumber {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	a := &lot.Analyses[idx]
	switch m.AnalysisEffect {
	case entity.AnalysisCreated:
		a.Active = false
	case entity.AnalysisResulted:
		a.PerformedAt = nil
		a.Verdict = ""
		a.ReanalysisDate = nil
		a.ExpiryDate = nil
		a.Assay = nil
	case entity.AnalysisAnnulled:
		a.Active = true
	}
}
