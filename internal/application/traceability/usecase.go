package traceability

import (
	"sort"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
)

// UseCase identifica una operación de negocio sobre un lote. El valor es el slug de la ruta HTTP.
type UseCase string

// Casos de uso soportados por el motor.
const (
	UseCasePurchaseIntake     UseCase = "purchase-intake"
	UseCaseProductionIntake   UseCase = "production-intake"
	UseCaseSampling           UseCase = "sampling"
	UseCaseConsumption        UseCase = "consumption"
	UseCaseSale               UseCase = "sale"
	UseCaseDisposal           UseCase = "disposal"
	UseCaseReturn             UseCase = "return"
	UseCaseRecall             UseCase = "recall"
	UseCaseQuarantineDecision UseCase = "quarantine-decision"
	UseCaseResultRecording    UseCase = "result-recording"
	UseCaseReanalysis         UseCase = "reanalysis"
	UseCaseRelease            UseCase = "release"
	UseCaseExpiry             UseCase = "expiry"
	UseCaseAnalysisAnnulment  UseCase = "analysis-annulment"
	UseCaseAdjustment         UseCase = "adjustment"
	UseCaseReversal           UseCase = "reversal"
)

// requestFactories crea el DTO vacío que espera cada caso de uso.
var requestFactories = map[UseCase]func() any{
	UseCasePurchaseIntake:     func() any { return &dto.IntakeRequest{} },
	UseCaseProductionIntake:   func() any { return &dto.IntakeRequest{} },
	UseCaseSampling:           func() any { return &dto.WithdrawalRequest{} },
	UseCaseConsumption:        func() any { return &dto.WithdrawalRequest{} },
	UseCaseSale:               func() any { return &dto.WithdrawalRequest{} },
	UseCaseDisposal:           func() any { return &dto.WithdrawalRequest{} },
	UseCaseReturn:             func() any { return &dto.ReturnRequest{} },
	UseCaseRecall:             func() any { return &dto.RecallRequest{} },
	UseCaseQuarantineDecision: func() any { return &dto.AnalysisRequest{} },
	UseCaseResultRecording:    func() any { return &dto.ResultRequest{} },
	UseCaseReanalysis:         func() any { return &dto.AnalysisRequest{} },
	UseCaseRelease:            func() any { return &dto.VerdictRequest{} },
	UseCaseExpiry:             func() any { return &dto.VerdictRequest{} },
	UseCaseAnalysisAnnulment:  func() any { return &dto.VerdictRequest{} },
	UseCaseAdjustment:         func() any { return &dto.AdjustmentRequest{} },
	UseCaseReversal:           func() any { return &dto.ReversalRequest{} },
}

// ParseUseCase valida el slug recibido.
func ParseUseCase(s string) (UseCase, error) {
	uc := UseCase(s)
	if _, ok := requestFactories[uc]; !ok {
		return "", domain.NewFieldError(domain.KindInvalidField, "use_case", "caso de uso desconocido: %q", s)
	}
	return uc, nil
}

// NewRequest devuelve un puntero al DTO que el caso de uso espera, listo para decodificar el body.
func NewRequest(uc UseCase) any {
	if f, ok := requestFactories[uc]; ok {
		return f()
	}
	return nil
}

// UseCases lista los casos de uso ordenados por nombre.
func UseCases() []UseCase {
	out := make([]UseCase, 0, len(requestFactories))
	for uc := range requestFactories {
		out = append(out, uc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// IsIntake indica si el caso de uso crea el lote.
func (uc UseCase) IsIntake() bool {
	return uc == UseCasePurchaseIntake || uc == UseCaseProductionIntake
}
