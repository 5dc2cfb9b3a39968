package entity

// Verdict es el dictamen de calidad de un lote.
type Verdict string

// Dictámenes en orden de negocio:
// RECIBIDO → CUARENTENA → {APROBADO | RECHAZADO} → {LIBERADO | VENCIDO | DEVOLUCION_CLIENTES | RETIRO_MERCADO}.
const (
	VerdictReceived       Verdict = "RECIBIDO"
	VerdictQuarantine     Verdict = "CUARENTENA"
	VerdictApproved       Verdict = "APROBADO"
	VerdictRejected       Verdict = "RECHAZADO"
	VerdictReleased       Verdict = "LIBERADO"
	VerdictExpired        Verdict = "VENCIDO"
	VerdictCustomerReturn Verdict = "DEVOLUCION_CLIENTES"
	VerdictMarketRecall   Verdict = "RETIRO_MERCADO"
)

var verdictStage = map[Verdict]int{
	VerdictReceived:       1,
	VerdictQuarantine:     2,
	VerdictApproved:       3,
	VerdictRejected:       3,
	VerdictReleased:       4,
	VerdictExpired:        4,
	VerdictCustomerReturn: 4,
	VerdictMarketRecall:   4,
}

// VerdictStage devuelve la etapa del dictamen (1..4); 0 si no es válido.
func VerdictStage(v Verdict) int { return verdictStage[v] }

// IsValidVerdict indica si v pertenece a la enumeración.
func IsValidVerdict(v Verdict) bool { return verdictStage[v] > 0 }
