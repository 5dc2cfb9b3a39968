package traceability

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
	"github.com/jhoicas/Trazabilidad-api/pkg/logger"
)

// Service ejecuta casos de uso de forma transaccional: carga el lote, lo bloquea,
// revalida sobre el estado bloqueado, aplica y guarda. Los eventos se publican tras el commit.
type Service struct {
	engine   *Engine
	txRunner TxRunner
	lots     repository.LotRepository
	products repository.ProductRepository
	events   EventPublisher
	log      *logger.Logger
}

// NewService construye el servicio. events y log pueden ser nil.
func NewService(
	engine *Engine,
	txRunner TxRunner,
	lots repository.LotRepository,
	products repository.ProductRepository,
	events EventPublisher,
	log *logger.Logger,
) *Service {
	if events == nil {
		events = noopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		engine:   engine,
		txRunner: txRunner,
		lots:     lots,
		products: products,
		events:   events,
		log:      log.WithComponent("traceability"),
	}
}

// ValidateOnly valida el caso de uso sin bloquear ni guardar.
func (s *Service) ValidateOnly(ctx context.Context, uc UseCase, lotCode string, req any, caller entity.Actor) (*dto.ValidateResponse, error) {
	snap, err := s.snapshot(ctx, s.lots, s.products, lotCode, req, false)
	if err != nil {
		return nil, err
	}
	cmd, err := s.engine.Validate(uc, req, snap, caller)
	if err != nil {
		return nil, err
	}
	if err := checkDerivedFree(ctx, s.lots, cmd.DerivedLotCode); err != nil {
		return nil, err
	}
	return &dto.ValidateResponse{UseCase: string(uc), LotCode: lotCode, Valid: true}, nil
}

// Execute valida y aplica el caso de uso. La validación se repite dentro de la transacción
// con los lotes bloqueados; si entre ambas cambió el lote derivado a crear, falla con ErrConflict.
func (s *Service) Execute(ctx context.Context, uc UseCase, lotCode string, req any, caller entity.Actor) (*dto.ExecuteResponse, error) {
	snap, err := s.snapshot(ctx, s.lots, s.products, lotCode, req, false)
	if err != nil {
		return nil, err
	}
	first, err := s.engine.Validate(uc, req, snap, caller)
	if err != nil {
		return nil, err
	}

	var res *Result
	err = s.txRunner.Run(ctx, func(lots repository.LotRepository, products repository.ProductRepository) error {
		codes := []string{lotCode}
		for _, c := range []string{first.DerivedLotCode, first.RelatedLotCode} {
			if c != "" {
				codes = append(codes, c)
			}
		}
		sort.Strings(codes)
		if err := lots.Lock(ctx, codes...); err != nil {
			return err
		}
		locked, err := s.snapshot(ctx, lots, products, lotCode, req, true)
		if err != nil {
			return err
		}
		cmd, err := s.engine.Validate(uc, req, locked, caller)
		if err != nil {
			return err
		}
		if cmd.DerivedLotCode != first.DerivedLotCode {
			return fmt.Errorf("lote derivado %q cambió a %q: %w", first.DerivedLotCode, cmd.DerivedLotCode, domain.ErrConflict)
		}
		if cmd.RelatedLotCode != first.RelatedLotCode {
			return fmt.Errorf("lote relacionado %q cambió a %q: %w", first.RelatedLotCode, cmd.RelatedLotCode, domain.ErrConflict)
		}
		if err := checkDerivedFree(ctx, lots, cmd.DerivedLotCode); err != nil {
			return err
		}
		res, err = s.engine.Commit(cmd)
		if err != nil {
			return err
		}
		if err := lots.Save(ctx, res.Lot); err != nil {
			return err
		}
		if res.DerivedLot != nil {
			if err := lots.Save(ctx, res.DerivedLot); err != nil {
				return err
			}
		}
		if uc.IsIntake() && res.Product != nil {
			return products.Save(ctx, res.Product)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, uc, res)
	s.log.WithLot(lotCode).Info().
		Str("use_case", string(uc)).
		Str("user_id", caller.ID).
		Int("movements", len(res.Movements)).
		Msg("caso de uso aplicado")

	out := &dto.ExecuteResponse{Lot: toLotResponse(res.Lot)}
	if res.DerivedLot != nil {
		d := toLotResponse(res.DerivedLot)
		out.DerivedLot = &d
	}
	out.Movements = make([]dto.MovementResponse, 0, len(res.Movements))
	for _, m := range res.Movements {
		out.Movements = append(out.Movements, toMovementResponse(m))
	}
	return out, nil
}

// GetLot devuelve el lote completo o domain.ErrNotFound.
func (s *Service) GetLot(ctx context.Context, code string) (*dto.LotResponse, error) {
	lot, err := s.lots.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, domain.ErrNotFound
	}
	out := toLotResponse(lot)
	return &out, nil
}

// ListLots lista lotes, opcionalmente filtrados por producto.
func (s *Service) ListLots(ctx context.Context, productCode string, page dto.PageRequest) (*dto.LotListResponse, error) {
	page.DefaultPage()
	list, err := s.lots.List(ctx, productCode, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.LotResponse, 0, len(list))
	for _, l := range list {
		r := toLotResponse(l)
		r.Movements, r.Analyses = nil, nil
		items = append(items, r)
	}
	return &dto.LotListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// snapshot carga el estado que el motor necesita. Con forUpdate usa lecturas con bloqueo de fila.
func (s *Service) snapshot(ctx context.Context, lots repository.LotRepository, products repository.ProductRepository,
	lotCode string, req any, forUpdate bool) (*Snapshot, error) {
	snap := &Snapshot{LotCode: lotCode}
	var err error
	if forUpdate {
		snap.Lot, err = lots.GetForUpdate(ctx, lotCode)
	} else {
		snap.Lot, err = lots.Get(ctx, lotCode)
	}
	if err != nil {
		return nil, err
	}
	switch r := req.(type) {
	case *dto.IntakeRequest:
		if r.ProductCode == "" {
			break
		}
		if forUpdate {
			snap.Product, err = products.GetForUpdate(ctx, r.ProductCode)
		} else {
			snap.Product, err = products.Get(ctx, r.ProductCode)
		}
		if err != nil {
			return nil, err
		}
	case *dto.ReversalRequest:
		if snap.Lot == nil {
			break
		}
		m := snap.Lot.MovementByCode(r.MovementCode)
		if m == nil || m.DerivedLotCode == "" {
			break
		}
		if forUpdate {
			snap.Derived, err = lots.GetForUpdate(ctx, m.DerivedLotCode)
		} else {
			snap.Derived, err = lots.Get(ctx, m.DerivedLotCode)
		}
		if err != nil {
			return nil, err
		}
	case *dto.AnalysisRequest:
		if r.AnalysisNumber == "" {
			break
		}
		owner, err := lots.FindAnalysisOwner(ctx, r.AnalysisNumber)
		if err != nil {
			return nil, err
		}
		if owner != "" {
			snap.Analyses = map[string]string{r.AnalysisNumber: owner}
		}
	}
	return snap, nil
}

func checkDerivedFree(ctx context.Context, lots repository.LotRepository, code string) error {
	if code == "" {
		return nil
	}
	existing, err := lots.Get(ctx, code)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.NewFieldError(domain.KindInvalidField, "derived_lot_code", "el lote %s ya existe", code)
	}
	return nil
}

// publish emite un evento por movimiento. Un fallo del broker no revierte la operación ya confirmada.
func (s *Service) publish(ctx context.Context, uc UseCase, res *Result) {
	for _, m := range res.Movements {
		lot := res.Lot
		if res.DerivedLot != nil && m.LotCode == res.DerivedLot.Code {
			lot = res.DerivedLot
		}
		if err := s.events.Publish(ctx, EventLotMovementRecorded, newLotMovementEvent(uc, lot, m)); err != nil {
			s.log.Warn().Err(err).
				Str("lot_code", m.LotCode).
				Str("movement_code", m.Code).
				Msg("no se pudo publicar el evento")
		}
	}
}
