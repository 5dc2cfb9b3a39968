// Package lifecycle implementa la máquina de estados de lotes, bultos y trazas dirigida por movimientos.
package lifecycle

import (
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// withdrawalVerdicts dictámenes que permiten cada motivo de egreso.
// AJUSTE no figura: se permite con cualquier dictamen.
var withdrawalVerdicts = map[entity.Reason][]entity.Verdict{
	entity.ReasonSampling:              {entity.VerdictReceived, entity.VerdictQuarantine},
	entity.ReasonProductionConsumption: {entity.VerdictApproved, entity.VerdictReleased},
	entity.ReasonSale:                  {entity.VerdictReleased},
	entity.ReasonDisposal:              {entity.VerdictRejected, entity.VerdictExpired, entity.VerdictCustomerReturn, entity.VerdictMarketRecall},
	entity.ReasonMarketRecall:          {entity.VerdictMarketRecall},
	entity.ReasonSaleReturn:            {entity.VerdictReleased, entity.VerdictExpired, entity.VerdictMarketRecall},
}

// transitions cambios de dictamen permitidos por motivo de modificación.
var transitions = map[entity.Reason]map[entity.Verdict][]entity.Verdict{
	entity.ReasonVerdictChange: {
		entity.VerdictReceived:   {entity.VerdictQuarantine},
		entity.VerdictQuarantine: {entity.VerdictApproved, entity.VerdictRejected},
	},
	entity.ReasonRelease: {
		entity.VerdictApproved: {entity.VerdictReleased},
	},
	entity.ReasonReanalysis: {
		entity.VerdictApproved: {entity.VerdictQuarantine},
		entity.VerdictReleased: {entity.VerdictQuarantine},
		entity.VerdictExpired:  {entity.VerdictQuarantine},
	},
	entity.ReasonAnalysisExpiry: {
		entity.VerdictApproved: {entity.VerdictExpired},
		entity.VerdictReleased: {entity.VerdictExpired},
	},
	entity.ReasonRecallDeclaration: {
		entity.VerdictApproved: {entity.VerdictMarketRecall},
		entity.VerdictReleased: {entity.VerdictMarketRecall},
		entity.VerdictExpired:  {entity.VerdictMarketRecall},
	},
	// Sin análisis vigente el lote vuelve a RECIBIDO y puede entrar de nuevo en cuarentena.
	entity.ReasonAnalysisAnnulment: {
		entity.VerdictQuarantine: {entity.VerdictReceived},
	},
}

// IsWithdrawalReason indica si r es un motivo de egreso.
func IsWithdrawalReason(r entity.Reason) bool {
	_, ok := withdrawalVerdicts[r]
	return ok || r == entity.ReasonAdjustment
}

// IsModificationReason indica si r es un motivo de modificación.
func IsModificationReason(r entity.Reason) bool {
	_, ok := transitions[r]
	return ok
}

// CanWithdraw verifica que el dictamen del lote permita el egreso por el motivo dado.
func CanWithdraw(v entity.Verdict, r entity.Reason) error {
	if r == entity.ReasonAdjustment {
		return nil
	}
	allowed, ok := withdrawalVerdicts[r]
	if !ok {
		return domain.NewFieldError(domain.KindInvalidField, "reason", "%s no es un motivo de egreso", r)
	}
	if containsVerdict(allowed, v) {
		return nil
	}
	return domain.NewFieldError(domain.KindVerdictNotEligible, "verdict",
		"el dictamen %s no permite egresos por %s", v, r)
}

// CheckTransition verifica que el motivo permita pasar del dictamen from al dictamen to.
func CheckTransition(r entity.Reason, from, to entity.Verdict) error {
	byFrom, ok := transitions[r]
	if !ok {
		return domain.NewFieldError(domain.KindInvalidField, "reason", "%s no es un motivo de modificación", r)
	}
	if containsVerdict(byFrom[from], to) {
		return nil
	}
	return domain.NewFieldError(domain.KindVerdictNotEligible, "verdict",
		"%s no permite pasar de %s a %s", r, from, to)
}

// NextVerdicts devuelve los dictámenes alcanzables desde v con el motivo r.
func NextVerdicts(r entity.Reason, v entity.Verdict) []entity.Verdict {
	return append([]entity.Verdict(nil), transitions[r][v]...)
}

func containsVerdict(list []entity.Verdict, v entity.Verdict) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
