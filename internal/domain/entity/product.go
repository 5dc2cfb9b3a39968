package entity

// Product representa un material o producto farmacéutico.
// LastTraceNumber es el cursor monotónico de numeración de trazas del producto;
// nunca retrocede, ni siquiera al revertir un ingreso.
type Product struct {
	Code            string
	Name            string
	Traceable       bool
	LastTraceNumber int64
}
