package traceability

import (
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/measure"
)

// displayPlaces decimales de las cantidades sugeridas para presentación.
const displayPlaces = 3

func toLotResponse(l *entity.Lot) dto.LotResponse {
	out := dto.LotResponse{
		Code:               l.Code,
		ProductCode:        l.ProductCode,
		Supplier:           l.Supplier,
		Manufacturer:       l.Manufacturer,
		IntakeDate:         formatDate(l.IntakeDate),
		InitialQuantity:    l.InitialQuantity,
		CurrentQuantity:    l.CurrentQuantity,
		Unit:               l.Unit.Code,
		DisplayQuantity:    l.CurrentQuantity,
		DisplayUnit:        l.Unit.Code,
		Status:             string(l.Status),
		Verdict:            string(l.Verdict),
		OriginLotCode:      l.OriginLotCode,
		InitialTraceNumber: l.InitialTraceNumber,
		Active:             l.Active,
		Packages:           make([]dto.PackageResponse, 0, len(l.Packages)),
	}
	if du := measure.SuggestDisplayUnit(l.Unit, l.CurrentQuantity); du.Code != l.Unit.Code {
		if v, err := measure.ConvertForDisplay(l.CurrentQuantity, l.Unit, du, displayPlaces); err == nil {
			out.DisplayQuantity, out.DisplayUnit = v, du.Code
		}
	}
	for _, p := range l.Packages {
		pr := dto.PackageResponse{
			Seq:             p.Seq,
			InitialQuantity: p.InitialQuantity,
			CurrentQuantity: p.CurrentQuantity,
			Unit:            p.Unit.Code,
			Status:          string(p.Status),
			Active:          p.Active,
		}
		for _, t := range p.Traces {
			pr.Traces = append(pr.Traces, dto.TraceResponse{Number: t.Number, Status: string(t.Status)})
		}
		out.Packages = append(out.Packages, pr)
	}
	for _, m := range l.Movements {
		out.Movements = append(out.Movements, toMovementResponse(m))
	}
	for _, a := range l.Analyses {
		out.Analyses = append(out.Analyses, dto.AnalysisResponse{
			Number:         a.Number,
			RequestedAt:    formatDate(a.RequestedAt),
			PerformedAt:    formatOptionalDate(a.PerformedAt),
			ReanalysisDate: formatOptionalDate(a.ReanalysisDate),
			ExpiryDate:     formatOptionalDate(a.ExpiryDate),
			Verdict:        string(a.Verdict),
			Assay:          a.Assay,
			Open:           a.IsOpen(),
			Active:         a.Active,
		})
	}
	return out
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	out := dto.MovementResponse{
		Code:               m.Code,
		LotCode:            m.LotCode,
		Kind:               string(m.Kind),
		Reason:             string(m.Reason),
		Date:               formatDate(m.Date),
		Quantity:           m.Quantity,
		Unit:               m.Unit,
		InitialVerdict:     string(m.InitialVerdict),
		ResultVerdict:      string(m.ResultVerdict),
		OriginMovementCode: m.OriginMovementCode,
		DerivedLotCode:     m.DerivedLotCode,
		AnalysisNumber:     m.AnalysisNumber,
		Notes:              m.Notes,
		RecordedBy:         m.RecordedBy,
		RecordedAt:         m.RecordedAt,
	}
	for _, l := range m.Lines {
		lr := dto.MovementLineResponse{
			PackageSeq:   l.PackageSeq,
			Quantity:     l.Quantity,
			Unit:         l.Unit,
			PriorStatus:  string(l.PriorStatus),
			ResultStatus: string(l.ResultStatus),
		}
		for _, t := range l.Traces {
			lr.Traces = append(lr.Traces, dto.TraceChangeResponse{
				Number:       t.Number,
				PriorStatus:  string(t.PriorStatus),
				ResultStatus: string(t.ResultStatus),
			})
		}
		out.Lines = append(out.Lines, lr)
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}
