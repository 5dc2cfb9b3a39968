package lifecycle

import (
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var hundred = decimal.NewFromInt(100)

// CheckNotBeforeIntake falla con DateBeforeIntake si t es anterior al ingreso del lote.
func CheckNotBeforeIntake(lot *entity.Lot, t time.Time, field string) error {
	if t.Before(lot.IntakeDate) {
		return domain.NewFieldError(domain.KindDateBeforeIntake, field,
			"la fecha %s es anterior al ingreso del lote %s (%s)", t.Format(dateLayout), lot.Code, lot.IntakeDate.Format(dateLayout))
	}
	return nil
}

// CheckNotBeforeOrigin falla con DateBeforeOrigin si t es anterior al movimiento de origen.
func CheckNotBeforeOrigin(origin *entity.Movement, t time.Time, field string) error {
	if origin != nil && t.Before(origin.Date) {
		return domain.NewFieldError(domain.KindDateBeforeOrigin, field,
			"la fecha %s es anterior al movimiento de origen %s (%s)", t.Format(dateLayout), origin.Code, origin.Date.Format(dateLayout))
	}
	return nil
}

// CheckApprovalDates exige fecha de reanálisis o de vencimiento para aprobar,
// y que el reanálisis no sea posterior al vencimiento.
func CheckApprovalDates(reanalysis, expiry *time.Time) error {
	if reanalysis == nil && expiry == nil {
		return domain.NewFieldError(domain.KindInvalidField, "reanalysis_date",
			"un dictamen APROBADO requiere fecha de reanálisis o de vencimiento")
	}
	if reanalysis != nil && expiry != nil && reanalysis.After(*expiry) {
		return domain.NewFieldError(domain.KindInvalidDateOrdering, "reanalysis_date",
			"la fecha de reanálisis (%s) es posterior a la de vencimiento (%s)", reanalysis.Format(dateLayout), expiry.Format(dateLayout))
	}
	return nil
}

// CheckAssay exige un título en (0, 100]. nil se acepta.
func CheckAssay(assay *decimal.Decimal) error {
	if assay == nil {
		return nil
	}
	if !assay.IsPositive() || assay.GreaterThan(hundred) {
		return domain.NewFieldError(domain.KindInvalidAssayResult, "assay",
			"el título %s%% debe ser mayor que 0 y como máximo 100", assay)
	}
	return nil
}
