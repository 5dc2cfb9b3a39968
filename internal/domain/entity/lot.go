package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot representa un lote de material farmacéutico. Es la raíz del agregado:
// contiene sus bultos, movimientos y análisis, referenciados por código o secuencia.
type Lot struct {
	Code               string
	ProductCode        string
	Supplier           string
	Manufacturer       string
	IntakeDate         time.Time
	InitialQuantity    decimal.Decimal
	CurrentQuantity    decimal.Decimal
	Unit               Unit
	PackageCount       int // bultos totales
	Status             Status
	Verdict            Verdict
	OriginLotCode      string // lotes derivados (devolución, retiro)
	InitialTraceNumber int64  // 0 si el lote no es trazado
	Packages           []Package
	Movements          []*Movement
	Analyses           []Analysis
	Active             bool
}

// PackageBySeq devuelve el índice del bulto con la secuencia dada, o -1.
func (l *Lot) PackageBySeq(seq int) int {
	for i := range l.Packages {
		if l.Packages[i].Seq == seq {
			return i
		}
	}
	return -1
}

// MovementByCode busca un movimiento del lote.
func (l *Lot) MovementByCode(code string) *Movement {
	for _, m := range l.Movements {
		if m.Code == code {
			return m
		}
	}
	return nil
}

// IntakeMovement devuelve el movimiento de ingreso activo del lote.
func (l *Lot) IntakeMovement() *Movement {
	for _, m := range l.Movements {
		if m.Kind == KindIntake && m.Active {
			return m
		}
	}
	return nil
}

// ReversalOf devuelve el reverso activo del movimiento indicado, si existe.
func (l *Lot) ReversalOf(code string) *Movement {
	for _, m := range l.Movements {
		if m.IsReversal() && m.Active && m.OriginMovementCode == code {
			return m
		}
	}
	return nil
}

// AnalysisByNumber devuelve el índice del análisis activo con ese número, o -1.
func (l *Lot) AnalysisByNumber(number string) int {
	for i := range l.Analyses {
		if l.Analyses[i].Active && l.Analyses[i].Number == number {
			return i
		}
	}
	return -1
}

// EffectiveAnalysis devuelve el último análisis activo con dictamen, o nil.
func (l *Lot) EffectiveAnalysis() *Analysis {
	for i := len(l.Analyses) - 1; i >= 0; i-- {
		if a := &l.Analyses[i]; a.Active && a.Verdict != "" {
			return a
		}
	}
	return nil
}

// Clone copia profunda del agregado; el motor nunca modifica la instantánea original.
func (l *Lot) Clone() *Lot {
	if l == nil {
		return nil
	}
	cp := *l
	cp.Packages = make([]Package, len(l.Packages))
	for i, p := range l.Packages {
		cp.Packages[i] = p
		cp.Packages[i].Traces = append([]TraceUnit(nil), p.Traces...)
	}
	cp.Movements = make([]*Movement, len(l.Movements))
	for i, m := range l.Movements {
		cp.Movements[i] = m.clone()
	}
	cp.Analyses = make([]Analysis, len(l.Analyses))
	for i, a := range l.Analyses {
		cp.Analyses[i] = a.clone()
	}
	return &cp
}
