// Package traceability orquesta la validación y ejecución de los casos de uso sobre lotes.
// El motor es síncrono y puro: recibe instantáneas en memoria y devuelve agregados nuevos;
// cargar, bloquear y guardar es responsabilidad del llamador (ver Service).
package traceability

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/authz"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/lifecycle"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/stock"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

// Clock provee la hora de registro de los movimientos.
type Clock interface {
	Now() time.Time
}

// SystemClock usa la hora del sistema en UTC.
type SystemClock struct{}

// Now implementa Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Snapshot estado de entrada para validar un caso de uso. Lot es nil en los ingresos.
// Analyses relaciona números de análisis activos de otros lotes con su lote.
// Derived es el lote derivado afectado por un reverso, si el movimiento revertido lo creó.
type Snapshot struct {
	LotCode  string
	Lot      *entity.Lot
	Product  *entity.Product
	Analyses lifecycle.AnalysisIndex
	Derived  *entity.Lot
}

// Command caso de uso ya validado, listo para Commit.
type Command struct {
	UseCase        UseCase
	LotCode        string
	Caller         entity.Actor
	DerivedLotCode string // lote derivado que creará el commit, si aplica
	RelatedLotCode string // lote existente que el commit también modifica, si aplica

	snapshot *Snapshot
	plan     *plan
}

// Result agregados resultantes de un Commit. La instantánea original no se modifica.
type Result struct {
	Lot        *entity.Lot
	DerivedLot *entity.Lot
	Product    *entity.Product // con el cursor de trazas actualizado, si hubo ingreso
	Movements  []*entity.Movement
}

// Option configura el motor.
type Option func(*Engine)

// WithClock reemplaza el reloj del sistema.
func WithClock(c Clock) Option { return func(e *Engine) { e.clock = c } }

// WithTracePolicy define qué motivos de egreso retiran trazas.
func WithTracePolicy(p lifecycle.TracePolicy) Option { return func(e *Engine) { e.policy = p } }

// WithMinAdjustmentLevel define el nivel mínimo para ajustes.
func WithMinAdjustmentLevel(level int) Option { return func(e *Engine) { e.minAdjustmentLevel = level } }

// WithLogger inyecta el logger usado para señalar datos corruptos.
func WithLogger(l *logger.Logger) Option { return func(e *Engine) { e.log = l } }

// WithCodeGenerator reemplaza la generación de códigos de movimiento.
func WithCodeGenerator(fn func() string) Option { return func(e *Engine) { e.newCode = fn } }

// Engine valida y aplica casos de uso sobre instantáneas de lotes.
type Engine struct {
	clock              Clock
	policy             lifecycle.TracePolicy
	minAdjustmentLevel int
	log                *logger.Logger
	validate           *validator.Validate
	newCode            func() string
}

// NewEngine construye el motor con la política de trazas por defecto.
func NewEngine(opts ...Option) *Engine {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	e := &Engine{
		clock:              SystemClock{},
		policy:             lifecycle.DefaultTracePolicy(),
		minAdjustmentLevel: authz.DefaultMinAdjustmentLevel,
		log:                logger.Nop(),
		validate:           v,
		newCode:            uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Etapas de validación, en el orden en que se evalúan.
type stage int

const (
	stageStructural stage = iota
	stageDates
	stageQuantity
	stageState
	stageAuthorization
	stageCount
)

var stageNames = [stageCount]string{"estructura", "fechas", "cantidades", "estado", "autorizacion"}

// plan chequeos por etapa y la función que aplica el caso de uso sobre un workspace.
type plan struct {
	checks         [stageCount][]func() error
	apply          func(w *workspace) error
	derivedLotCode string
	relatedLotCode string
}

func (p *plan) check(s stage, fn func() error) { p.checks[s] = append(p.checks[s], fn) }

// workspace copias de trabajo sobre las que se aplica un caso de uso.
type workspace struct {
	lot     *entity.Lot
	derived *entity.Lot
	product *entity.Product
	moves   []*entity.Movement
	caller  entity.Actor
	now     time.Time
	newCode func() string
}

func (w *workspace) stamp(date time.Time, notes string) lifecycle.Stamp {
	return lifecycle.Stamp{Code: w.newCode(), Date: date, Notes: notes, Actor: w.caller, RecordedAt: w.now}
}

func (w *workspace) record(ms ...*entity.Movement) { w.moves = append(w.moves, ms...) }

// Validate ejecuta los chequeos del caso de uso en orden fijo: estructura, fechas,
// cantidades, dictamen/estado y autorización. El primer error corta la evaluación.
// La instantánea no se modifica: el chequeo de estado termina con una aplicación en seco sobre copias.
func (e *Engine) Validate(uc UseCase, req any, snap *Snapshot, caller entity.Actor) (*Command, error) {
	b, ok := builders[uc]
	if !ok {
		return nil, domain.NewFieldError(domain.KindInvalidField, "use_case", "caso de uso desconocido: %q", uc)
	}
	in := Snapshot{}
	if snap != nil {
		in = *snap
	}
	if in.LotCode == "" && in.Lot != nil {
		in.LotCode = in.Lot.Code
	}
	snap = &in
	if snap.LotCode == "" {
		return nil, e.reject(uc, snap, stageStructural,
			domain.NewFieldError(domain.KindInvalidField, "lot_code", "el código de lote es obligatorio"))
	}
	if err := e.structural(req); err != nil {
		return nil, e.reject(uc, snap, stageStructural, err)
	}
	if !uc.IsIntake() && snap.Lot == nil {
		return nil, e.reject(uc, snap, stageStructural,
			domain.NewFieldError(domain.KindInvalidField, "lot_code", "el lote %s no existe", snap.LotCode))
	}

	p, err := b(e, req, snap, caller)
	if err != nil {
		return nil, e.reject(uc, snap, stageStructural, err)
	}
	for st := stageStructural; st < stageCount; st++ {
		for _, fn := range p.checks[st] {
			if err := fn(); err != nil {
				return nil, e.reject(uc, snap, st, err)
			}
		}
		if st == stageState {
			if _, err := e.run(p, snap, caller); err != nil {
				return nil, e.reject(uc, snap, st, err)
			}
		}
	}
	return &Command{
		UseCase:        uc,
		LotCode:        snap.LotCode,
		Caller:         caller,
		DerivedLotCode: p.derivedLotCode,
		RelatedLotCode: p.relatedLotCode,
		snapshot:       snap,
		plan:           p,
	}, nil
}

// Commit aplica un comando validado sobre copias de la instantánea.
func (e *Engine) Commit(cmd *Command) (*Result, error) {
	if cmd == nil || cmd.plan == nil {
		return nil, errors.New("traceability: comando no validado")
	}
	w, err := e.run(cmd.plan, cmd.snapshot, cmd.Caller)
	if err != nil {
		return nil, err
	}
	return &Result{Lot: w.lot, DerivedLot: w.derived, Product: w.product, Movements: w.moves}, nil
}

func (e *Engine) run(p *plan, snap *Snapshot, caller entity.Actor) (*workspace, error) {
	w := &workspace{
		lot:     snap.Lot.Clone(),
		derived: snap.Derived.Clone(),
		product: cloneProduct(snap.Product),
		caller:  caller,
		now:     e.clock.Now(),
		newCode: e.newCode,
	}
	if err := p.apply(w); err != nil {
		return nil, err
	}
	for _, l := range []*entity.Lot{w.lot, w.derived} {
		if l == nil {
			continue
		}
		if err := stock.CheckConservation(l); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// reject registra el rechazo. MultipleOpenAnalyses indica datos corruptos y se reporta como error.
func (e *Engine) reject(uc UseCase, snap *Snapshot, s stage, err error) error {
	if domain.KindOf(err) == domain.KindMultipleOpenAnalyses {
		e.log.Error().Err(err).
			Str("lot_code", snap.LotCode).
			Str("use_case", string(uc)).
			Msg("lote con más de un análisis en curso")
		return err
	}
	e.log.Debug().Err(err).
		Str("lot_code", snap.LotCode).
		Str("use_case", string(uc)).
		Str("stage", stageNames[s]).
		Msg("validación rechazada")
	return err
}

// structural aplica las etiquetas validate del DTO y traduce el primer error a FieldError.
func (e *Engine) structural(req any) error {
	if req == nil || (reflect.ValueOf(req).Kind() == reflect.Ptr && reflect.ValueOf(req).IsNil()) {
		return domain.NewFieldError(domain.KindInvalidField, "", "el cuerpo de la solicitud es obligatorio")
	}
	err := e.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewFieldError(domain.KindInvalidField, "", "solicitud inválida: %v", err)
	}
	fe := verrs[0]
	return domain.NewFieldError(domain.KindInvalidField, fieldPath(fe.Namespace()), "%s", describe(fe))
}

// fieldPath quita el nombre del struct raíz: "IntakeRequest.packages[0].unit" -> "packages[0].unit".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es obligatorio"
	case "required_without":
		return "es obligatorio si no se indica " + strings.ToLower(fe.Param())
	case "excluded_with":
		return "no puede indicarse junto con " + strings.ToLower(fe.Param())
	case "datetime":
		return "debe tener formato AAAA-MM-DD"
	case "oneof":
		return "debe ser uno de: " + fe.Param()
	case "min":
		return "debe ser al menos " + fe.Param()
	case "max":
		return "admite como máximo " + fe.Param()
	default:
		return "valor inválido"
	}
}

func cloneProduct(p *entity.Product) *entity.Product {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
