package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
)

// Kind clasifica un error de validación del motor de trazabilidad.
type Kind string

// Taxonomía de errores de validación. Todos son recuperables por el llamador.
const (
	KindInvalidField           Kind = "CAMPO_INVALIDO"
	KindIncompatibleUnitFamily Kind = "FAMILIA_UNIDAD_INCOMPATIBLE"
	KindQuantityMismatch       Kind = "CANTIDAD_NO_COINCIDE"
	KindFractionalCountUnit    Kind = "UNIDAD_FRACCIONADA"
	KindInsufficientStock      Kind = "STOCK_INSUFICIENTE"
	KindVerdictNotEligible     Kind = "DICTAMEN_NO_ELEGIBLE"
	KindInvalidDateOrdering    Kind = "ORDEN_FECHAS_INVALIDO"
	KindInvalidAssayResult     Kind = "TITULO_INVALIDO"
	KindDuplicateAnalysis      Kind = "ANALISIS_DUPLICADO"
	KindMultipleOpenAnalyses   Kind = "MULTIPLES_ANALISIS_EN_CURSO"
	KindDateBeforeIntake       Kind = "FECHA_ANTERIOR_INGRESO"
	KindDateBeforeOrigin       Kind = "FECHA_ANTERIOR_ORIGEN"
	KindReversalNotAuthorized  Kind = "REVERSO_NO_AUTORIZADO"
)

// Sentinelas por tipo, para usar con errors.Is.
var (
	ErrInvalidField           = errors.New("campo inválido")
	ErrIncompatibleUnitFamily = errors.New("familias de unidad incompatibles")
	ErrQuantityMismatch       = errors.New("las cantidades no coinciden")
	ErrFractionalCountUnit    = errors.New("cantidad fraccionada en unidad de conteo")
	ErrVerdictNotEligible     = errors.New("el dictamen actual no permite la operación")
	ErrInvalidDateOrdering    = errors.New("orden de fechas inválido")
	ErrInvalidAssayResult     = errors.New("resultado de valoración inválido")
	ErrDuplicateAnalysis      = errors.New("número de análisis duplicado")
	ErrMultipleOpenAnalyses   = errors.New("más de un análisis en curso")
	ErrDateBeforeIntake       = errors.New("fecha anterior al ingreso del lote")
	ErrDateBeforeOrigin       = errors.New("fecha anterior al movimiento de origen")
	ErrReversalNotAuthorized  = errors.New("reverso no autorizado")
)

var kindSentinels = map[Kind][]error{
	KindInvalidField:           {ErrInvalidField, ErrInvalidInput},
	KindIncompatibleUnitFamily: {ErrIncompatibleUnitFamily, ErrInvalidInput},
	KindQuantityMismatch:       {ErrQuantityMismatch},
	KindFractionalCountUnit:    {ErrFractionalCountUnit},
	KindInsufficientStock:      {ErrInsufficientStock},
	KindVerdictNotEligible:     {ErrVerdictNotEligible, ErrConflict},
	KindInvalidDateOrdering:    {ErrInvalidDateOrdering},
	KindInvalidAssayResult:     {ErrInvalidAssayResult},
	KindDuplicateAnalysis:      {ErrDuplicateAnalysis, ErrDuplicate},
	KindMultipleOpenAnalyses:   {ErrMultipleOpenAnalyses, ErrConflict},
	KindDateBeforeIntake:       {ErrDateBeforeIntake},
	KindDateBeforeOrigin:       {ErrDateBeforeOrigin},
	KindReversalNotAuthorized:  {ErrReversalNotAuthorized, ErrForbidden},
}

// FieldError es un error de validación asociado a un campo de la solicitud.
// Field usa la ruta JSON del campo (ej. "packages[1].quantity").
type FieldError struct {
	Kind    Kind
	Field   string
	Message string
}

// NewFieldError construye un FieldError con mensaje formateado.
func NewFieldError(kind Kind, field, format string, args ...any) *FieldError {
	return &FieldError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is permite comparar contra la sentinela del tipo o contra otro FieldError del mismo Kind.
func (e *FieldError) Is(target error) bool {
	if t, ok := target.(*FieldError); ok {
		return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field)
	}
	for _, s := range kindSentinels[e.Kind] {
		if s == target {
			return true
		}
	}
	return false
}

// KindOf devuelve el Kind de err si es (o envuelve) un FieldError.
func KindOf(err error) Kind {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// WithField reasigna el campo de un FieldError; otros errores se devuelven sin cambios.
func WithField(err error, field string) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		cp := *fe
		cp.Field = field
		return &cp
	}
	return err
}

// Scope antepone prefix al campo de un FieldError (ej. "lines[2]" + "quantity").
func Scope(err error, prefix string) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		cp := *fe
		if cp.Field == "" {
			cp.Field = prefix
		} else {
			cp.Field = prefix + "." + cp.Field
		}
		return &cp
	}
	return err
}
