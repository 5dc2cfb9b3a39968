package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Package representa un bulto físico dentro de un lote.
// CurrentQuantity nunca es negativa; al llegar a cero el bulto pasa a estado terminal.
type Package struct {
	Seq             int
	InitialQuantity decimal.Decimal
	CurrentQuantity decimal.Decimal
	Unit            Unit
	Status          Status
	Active          bool
	Traces          []TraceUnit
}

// TraceByNumber devuelve el índice de la traza con ese número, o -1.
func (p *Package) TraceByNumber(n int64) int {
	for i := range p.Traces {
		if p.Traces[i].Number == n {
			return i
		}
	}
	return -1
}

// TraceUnit representa una traza: sub-unidad numerada individualmente dentro de un bulto.
// Number es único por producto y creciente.
type TraceUnit struct {
	Number     int64
	LotCode    string
	PackageSeq int
	Status     Status
	CreatedAt  time.Time
}
