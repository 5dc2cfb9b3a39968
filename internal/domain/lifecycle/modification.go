package lifecycle

import (
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/stock"
)

// ChangeVerdict registra una modificación de dictamen sin mover cantidad.
// Al aprobar, los bultos NUEVO pasan a DISPONIBLE.
func ChangeVerdict(lot *entity.Lot, reason entity.Reason, to entity.Verdict, st Stamp) (*entity.Movement, error) {
	if !lot.Active {
		return nil, domain.NewFieldError(domain.KindVerdictNotEligible, "lot_code", "el lote %s está inactivo", lot.Code)
	}
	if err := CheckTransition(reason, lot.Verdict, to); err != nil {
		return nil, err
	}

	m := st.movement(lot, entity.KindModification, reason)
	lot.Verdict = to
	m.ResultVerdict = to

	if to == entity.VerdictApproved {
		for i := range lot.Packages {
			p := &lot.Packages[i]
			if !p.Active || p.Status != entity.StatusNew {
				continue
			}
			m.Lines = append(m.Lines, entity.MovementLine{
				PackageSeq:   p.Seq,
				Unit:         p.Unit.Code,
				PriorStatus:  p.Status,
				ResultStatus: entity.StatusAvailable,
			})
			p.Status = entity.StatusAvailable
		}
	}
	lot.Status = stock.LotAggregateStatus(lot)
	lot.Movements = append(lot.Movements, m)
	return m, nil
}
