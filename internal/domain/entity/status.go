package entity

// Status es el estado operativo de un lote, bulto o traza.
type Status string

// Estados. Los cinco últimos son terminales.
const (
	StatusNew       Status = "NUEVO"
	StatusAvailable Status = "DISPONIBLE"
	StatusInUse     Status = "EN_USO"
	StatusConsumed  Status = "CONSUMIDO"
	StatusSold      Status = "VENDIDO"
	StatusReturned  Status = "DEVUELTO"
	StatusRecalled  Status = "RETIRADO"
	StatusDiscarded Status = "DESCARTADO"
)

// Prioridad usada al agregar el estado de los bultos de un lote: los estados vivos
// prevalecen sobre los terminales, y entre vivos prevalece el más avanzado.
var statusPriority = map[Status]int{
	StatusDiscarded: 1,
	StatusConsumed:  2,
	StatusSold:      3,
	StatusReturned:  4,
	StatusRecalled:  5,
	StatusNew:       6,
	StatusAvailable: 7,
	StatusInUse:     8,
}

var terminalStatus = map[Status]bool{
	StatusConsumed:  true,
	StatusSold:      true,
	StatusReturned:  true,
	StatusRecalled:  true,
	StatusDiscarded: true,
}

// StatusPriority devuelve la prioridad de agregación; 0 para estados desconocidos.
func StatusPriority(s Status) int { return statusPriority[s] }

// IsTerminal indica si el estado no admite más movimientos de stock.
func IsTerminal(s Status) bool { return terminalStatus[s] }

// terminalByReason estado que alcanza un bulto agotado según el motivo del egreso.
var terminalByReason = map[Reason]Status{
	ReasonSale:                  StatusSold,
	ReasonProductionConsumption: StatusConsumed,
	ReasonSampling:              StatusConsumed,
	ReasonDisposal:              StatusDiscarded,
	ReasonAdjustment:            StatusDiscarded,
	ReasonMarketRecall:          StatusRecalled,
	ReasonSaleReturn:            StatusReturned,
	ReasonReversal:              StatusDiscarded,
}

// TerminalStatusFor devuelve el estado terminal implicado por un motivo de egreso.
func TerminalStatusFor(r Reason) Status {
	if s, ok := terminalByReason[r]; ok {
		return s
	}
	return StatusConsumed
}
