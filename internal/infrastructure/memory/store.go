// Package memory implementa los repositorios en memoria, para pruebas y despliegues sin base de datos.
// Las transacciones bloquean por clave y aplican sus escrituras al confirmar.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/application/traceability"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var (
	_ traceability.TxRunner          = (*Store)(nil)
	_ repository.LotRepository       = (*lotRepo)(nil)
	_ repository.ProductRepository   = (*productRepo)(nil)
	_ repository.UserRepository      = (*userRepo)(nil)
	_ repository.AnalyticsRepository = (*analyticsRepo)(nil)
)

var errNoTx = errors.New("memory: el bloqueo requiere una transacción")

// Store guarda lotes, productos y operadores. Es seguro para uso concurrente.
type Store struct {
	mu       sync.RWMutex
	lots     map[string]*entity.Lot
	products map[string]*entity.Product
	users    map[string]*entity.User

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{
		lots:     make(map[string]*entity.Lot),
		products: make(map[string]*entity.Product),
		users:    make(map[string]*entity.User),
		locks:    make(map[string]chan struct{}),
	}
}

// Lots repositorio de lotes fuera de transacción.
func (s *Store) Lots() repository.LotRepository { return &lotRepo{s: s} }

// Products repositorio de productos fuera de transacción.
func (s *Store) Products() repository.ProductRepository { return &productRepo{s: s} }

// Analytics consultas de lectura del tablero de calidad.
func (s *Store) Analytics() repository.AnalyticsRepository { return &analyticsRepo{s: s} }

// Users repositorio de operadores. No participa de las transacciones.
func (s *Store) Users() repository.UserRepository { return &userRepo{s: s} }

// Run ejecuta fn en una transacción. Las escrituras se aplican solo si fn no devuelve error;
// los bloqueos se liberan al terminar en ambos casos.
func (s *Store) Run(ctx context.Context, fn func(lots repository.LotRepository, products repository.ProductRepository) error) error {
	t := &tx{
		s:        s,
		held:     make(map[string]bool),
		lots:     make(map[string]*entity.Lot),
		products: make(map[string]*entity.Product),
	}
	defer t.release()
	if err := fn(&lotRepo{s: s, tx: t}, &productRepo{s: s, tx: t}); err != nil {
		return err
	}
	return s.commit(t)
}

func (s *Store) commit(t *tx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, lot := range t.lots {
		if err := s.checkAnalysesLocked(lot); err != nil {
			return err
		}
	}
	for code, lot := range t.lots {
		s.lots[code] = lot
	}
	for code, p := range t.products {
		s.products[code] = p
	}
	return nil
}

// checkAnalysesLocked exige que los números de análisis activos no se repitan entre lotes.
func (s *Store) checkAnalysesLocked(lot *entity.Lot) error {
	for _, a := range lot.Analyses {
		if !a.Active {
			continue
		}
		for code, other := range s.lots {
			if code == lot.Code {
				continue
			}
			if other.AnalysisByNumber(a.Number) >= 0 {
				return domain.NewFieldError(domain.KindDuplicateAnalysis, "analysis_number",
					"el análisis %s ya está asignado al lote %s", a.Number, code)
			}
		}
	}
	return nil
}

func (s *Store) acquire(ctx context.Context, key string) error {
	s.locksMu.Lock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	s.locksMu.Unlock()
	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) releaseKey(key string) {
	s.locksMu.Lock()
	ch := s.locks[key]
	s.locksMu.Unlock()
	<-ch
}

// tx estado de una transacción: claves bloqueadas y escrituras pendientes.
type tx struct {
	s        *Store
	held     map[string]bool
	lots     map[string]*entity.Lot
	products map[string]*entity.Product
}

func (t *tx) lock(ctx context.Context, keys ...string) error {
	sort.Strings(keys)
	for _, k := range keys {
		if t.held[k] {
			continue
		}
		if err := t.s.acquire(ctx, k); err != nil {
			return err
		}
		t.held[k] = true
	}
	return nil
}

func (t *tx) release() {
	for k := range t.held {
		t.s.releaseKey(k)
	}
	t.held = nil
}

func lotKey(code string) string     { return "lot:" + code }
func productKey(code string) string { return "product:" + code }

type lotRepo struct {
	s  *Store
	tx *tx
}

func (r *lotRepo) Lock(ctx context.Context, codes ...string) error {
	if r.tx == nil {
		return errNoTx
	}
	keys := make([]string, 0, len(codes))
	for _, c := range codes {
		keys = append(keys, lotKey(c))
	}
	return r.tx.lock(ctx, keys...)
}

func (r *lotRepo) Get(ctx context.Context, code string) (*entity.Lot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.tx != nil {
		if l, ok := r.tx.lots[code]; ok {
			return l.Clone(), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.lots[code].Clone(), nil
}

func (r *lotRepo) GetForUpdate(ctx context.Context, code string) (*entity.Lot, error) {
	if err := r.Lock(ctx, code); err != nil {
		return nil, err
	}
	return r.Get(ctx, code)
}

func (r *lotRepo) Save(ctx context.Context, lot *entity.Lot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if lot == nil || lot.Code == "" {
		return domain.ErrInvalidInput
	}
	if r.tx != nil {
		r.tx.lots[lot.Code] = lot.Clone()
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkAnalysesLocked(lot); err != nil {
		return err
	}
	r.s.lots[lot.Code] = lot.Clone()
	return nil
}

func (r *lotRepo) FindAnalysisOwner(ctx context.Context, number string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if r.tx != nil {
		for code, l := range r.tx.lots {
			if l.AnalysisByNumber(number) >= 0 {
				return code, nil
			}
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	codes := make([]string, 0, len(r.s.lots))
	for code := range r.s.lots {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if r.s.lots[code].AnalysisByNumber(number) >= 0 {
			return code, nil
		}
	}
	return "", nil
}

func (r *lotRepo) List(ctx context.Context, productCode string, limit, offset int) ([]*entity.Lot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	codes := make([]string, 0, len(r.s.lots))
	for code, l := range r.s.lots {
		if productCode == "" || l.ProductCode == productCode {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	out := []*entity.Lot{}
	for i := offset; i < len(codes) && len(out) < limit; i++ {
		out = append(out, r.s.lots[codes[i]].Clone())
	}
	return out, nil
}

type productRepo struct {
	s  *Store
	tx *tx
}

func (r *productRepo) Create(ctx context.Context, product *entity.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[product.Code]; ok {
		return domain.ErrDuplicate
	}
	r.s.products[product.Code] = cloneProduct(product)
	return nil
}

func (r *productRepo) Get(ctx context.Context, code string) (*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.tx != nil {
		if p, ok := r.tx.products[code]; ok {
			return cloneProduct(p), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneProduct(r.s.products[code]), nil
}

func (r *productRepo) GetForUpdate(ctx context.Context, code string) (*entity.Product, error) {
	if r.tx == nil {
		return nil, errNoTx
	}
	if err := r.tx.lock(ctx, productKey(code)); err != nil {
		return nil, err
	}
	return r.Get(ctx, code)
}

func (r *productRepo) Save(ctx context.Context, product *entity.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.tx != nil {
		r.tx.products[product.Code] = cloneProduct(product)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[product.Code] = cloneProduct(product)
	return nil
}

func (r *productRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	codes := make([]string, 0, len(r.s.products))
	for code := range r.s.products {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	out := []*entity.Product{}
	for i := offset; i < len(codes) && len(out) < limit; i++ {
		out = append(out, cloneProduct(r.s.products[codes[i]]))
	}
	return out, nil
}

func cloneProduct(p *entity.Product) *entity.Product {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, user *entity.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return domain.ErrDuplicate
		}
	}
	if _, ok := r.s.users[user.ID]; ok {
		return domain.ErrDuplicate
	}
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *userRepo) List(ctx context.Context, limit, offset int) ([]*entity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := make([]*entity.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].Email < all[j].Email
	})
	out := []*entity.User{}
	for i := offset; i < len(all) && len(out) < limit; i++ {
		cp := *all[i]
		out = append(out, &cp)
	}
	return out, nil
}

type analyticsRepo struct {
	s *Store
}

func (r *analyticsRepo) CountActiveByVerdict(ctx context.Context) ([]repository.VerdictCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	counts := make(map[entity.Verdict]int)
	for _, l := range r.s.lots {
		if l.Active {
			counts[l.Verdict]++
		}
	}
	r.s.mu.RUnlock()
	out := make([]repository.VerdictCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, repository.VerdictCount{Verdict: v, Lots: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Verdict < out[j].Verdict })
	return out, nil
}

func (r *analyticsRepo) DueBefore(
	ctx context.Context,
	kind repository.DateKind,
	verdicts []entity.Verdict,
	until time.Time,
	limit int,
) ([]repository.DateAlert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	allowed := make(map[entity.Verdict]bool, len(verdicts))
	for _, v := range verdicts {
		allowed[v] = true
	}
	r.s.mu.RLock()
	var out []repository.DateAlert
	for _, l := range r.s.lots {
		if !l.Active || !l.CurrentQuantity.IsPositive() || !allowed[l.Verdict] {
			continue
		}
		a := l.EffectiveAnalysis()
		if a == nil {
			continue
		}
		due := a.ExpiryDate
		if kind == repository.DateReanalysis {
			due = a.ReanalysisDate
		}
		if due == nil || due.After(until) {
			continue
		}
		out = append(out, repository.DateAlert{
			LotCode:         l.Code,
			ProductCode:     l.ProductCode,
			Verdict:         l.Verdict,
			AnalysisNumber:  a.Number,
			Date:            *due,
			CurrentQuantity: l.CurrentQuantity,
			Unit:            l.Unit.Code,
		})
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].LotCode < out[j].LotCode
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
