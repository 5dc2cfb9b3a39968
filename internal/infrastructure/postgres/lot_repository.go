package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación del puerto LotRepository sobre PostgreSQL (usable con pool o tx).
// El agregado se reparte en lots, packages, trace_units, movements y analyses.
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

// Lock toma un advisory lock de transacción por código, en orden. Solo tiene efecto dentro de una tx.
func (r *LotRepo) Lock(ctx context.Context, codes ...string) error {
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)
	for _, code := range sorted {
		if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended('lot:' || $1, 0))`, code); err != nil {
			return fmt.Errorf("lock lot %s: %w", code, err)
		}
	}
	return nil
}

// Get obtiene el lote completo. Devuelve (nil, nil) si no existe.
func (r *LotRepo) Get(ctx context.Context, code string) (*entity.Lot, error) {
	return r.load(ctx, code, false)
}

// GetForUpdate bloquea el lote (advisory lock y fila) y lo carga.
func (r *LotRepo) GetForUpdate(ctx context.Context, code string) (*entity.Lot, error) {
	if err := r.Lock(ctx, code); err != nil {
		return nil, err
	}
	return r.load(ctx, code, true)
}

func (r *LotRepo) load(ctx context.Context, code string, forUpdate bool) (*entity.Lot, error) {
	query := `
		SELECT code, product_code, supplier, manufacturer, intake_date, initial_quantity, current_quantity,
		       unit, package_count, status, verdict, origin_lot_code, initial_trace_number, active
		FROM lots WHERE code = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var l entity.Lot
	var unit, status, verdict string
	err := r.q.QueryRow(ctx, query, code).Scan(
		&l.Code, &l.ProductCode, &l.Supplier, &l.Manufacturer, &l.IntakeDate, &l.InitialQuantity, &l.CurrentQuantity,
		&unit, &l.PackageCount, &status, &verdict, &l.OriginLotCode, &l.InitialTraceNumber, &l.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	if l.Unit, err = unitOf(unit); err != nil {
		return nil, err
	}
	l.Status, l.Verdict = entity.Status(status), entity.Verdict(verdict)

	if l.Packages, err = r.loadPackages(ctx, code); err != nil {
		return nil, err
	}
	if l.Movements, err = r.loadMovements(ctx, code); err != nil {
		return nil, err
	}
	if l.Analyses, err = r.loadAnalyses(ctx, code); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LotRepo) loadPackages(ctx context.Context, code string) ([]entity.Package, error) {
	rows, err := r.q.Query(ctx, `
		SELECT seq, initial_quantity, current_quantity, unit, status, active
		FROM packages WHERE lot_code = $1 ORDER BY seq`, code)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()
	var out []entity.Package
	for rows.Next() {
		var p entity.Package
		var unit, status string
		if err := rows.Scan(&p.Seq, &p.InitialQuantity, &p.CurrentQuantity, &unit, &status, &p.Active); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		if p.Unit, err = unitOf(unit); err != nil {
			return nil, err
		}
		p.Status = entity.Status(status)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	traces, err := r.q.Query(ctx, `
		SELECT number, package_seq, status, created_at
		FROM trace_units WHERE lot_code = $1 ORDER BY number`, code)
	if err != nil {
		return nil, fmt.Errorf("list trace units: %w", err)
	}
	defer traces.Close()
	for traces.Next() {
		t := entity.TraceUnit{LotCode: code}
		var status string
		if err := traces.Scan(&t.Number, &t.PackageSeq, &status, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trace unit: %w", err)
		}
		t.Status = entity.Status(status)
		for i := range out {
			if out[i].Seq == t.PackageSeq {
				out[i].Traces = append(out[i].Traces, t)
				break
			}
		}
	}
	return out, traces.Err()
}

func (r *LotRepo) loadMovements(ctx context.Context, code string) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT code, kind, reason, date, quantity, unit, initial_verdict, result_verdict, notes,
		       origin_movement_code, derived_lot_code, analysis_number, analysis_effect, lines,
		       recorded_by, recorded_by_level, recorded_at, active
		FROM movements WHERE lot_code = $1 ORDER BY position`, code)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var out []*entity.Movement
	for rows.Next() {
		m := &entity.Movement{LotCode: code}
		var kind, reason, initial, result, effect string
		var qty decimal.NullDecimal
		var lines []byte
		if err := rows.Scan(&m.Code, &kind, &reason, &m.Date, &qty, &m.Unit, &initial, &result, &m.Notes,
			&m.OriginMovementCode, &m.DerivedLotCode, &m.AnalysisNumber, &effect, &lines,
			&m.RecordedBy, &m.RecordedByLevel, &m.RecordedAt, &m.Active); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.Kind, m.Reason = entity.MovementKind(kind), entity.Reason(reason)
		m.InitialVerdict, m.ResultVerdict = entity.Verdict(initial), entity.Verdict(result)
		m.AnalysisEffect = entity.AnalysisEffect(effect)
		if qty.Valid {
			q := qty.Decimal
			m.Quantity = &q
		}
		if len(lines) > 0 {
			if err := json.Unmarshal(lines, &m.Lines); err != nil {
				return nil, fmt.Errorf("decode movement %s lines: %w", m.Code, err)
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *LotRepo) loadAnalyses(ctx context.Context, code string) ([]entity.Analysis, error) {
	rows, err := r.q.Query(ctx, `
		SELECT number, requested_at, performed_at, reanalysis_date, expiry_date, verdict, assay, notes, active
		FROM analyses WHERE lot_code = $1 ORDER BY position`, code)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()
	var out []entity.Analysis
	for rows.Next() {
		var a entity.Analysis
		var verdict string
		var assay decimal.NullDecimal
		if err := rows.Scan(&a.Number, &a.RequestedAt, &a.PerformedAt, &a.ReanalysisDate, &a.ExpiryDate,
			&verdict, &assay, &a.Notes, &a.Active); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		a.Verdict = entity.Verdict(verdict)
		if assay.Valid {
			v := assay.Decimal
			a.Assay = &v
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Save inserta o actualiza el lote y reemplaza bultos, trazas y análisis en un único lote de sentencias.
// Los movimientos se insertan por código; los ya existentes solo actualizan active y derived_lot_code.
func (r *LotRepo) Save(ctx context.Context, l *entity.Lot) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO lots (code, product_code, supplier, manufacturer, intake_date, initial_quantity, current_quantity,
		                  unit, package_count, status, verdict, origin_lot_code, initial_trace_number, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
		ON CONFLICT (code) DO UPDATE SET
			current_quantity = EXCLUDED.current_quantity,
			package_count = EXCLUDED.package_count,
			status = EXCLUDED.status,
			verdict = EXCLUDED.verdict,
			initial_trace_number = EXCLUDED.initial_trace_number,
			active = EXCLUDED.active,
			updated_at = NOW()`,
		l.Code, l.ProductCode, l.Supplier, l.Manufacturer, dateOnly(l.IntakeDate), l.InitialQuantity, l.CurrentQuantity,
		l.Unit.Code, l.PackageCount, string(l.Status), string(l.Verdict), l.OriginLotCode, l.InitialTraceNumber, l.Active,
	)
	if err != nil {
		return fmt.Errorf("upsert lot: %w", err)
	}

	sb, err := lotChildren(l)
	if err != nil {
		return err
	}
	return sb.send(ctx, r.q)
}

// lotChildren encola el reemplazo de bultos, trazas y análisis y el upsert de movimientos del lote.
func lotChildren(l *entity.Lot) (*stmtBatch, error) {
	sb := &stmtBatch{}
	sb.queue("delete packages", nil, `DELETE FROM packages WHERE lot_code = $1`, l.Code)
	for _, p := range l.Packages {
		sb.queue(fmt.Sprintf("insert package %d", p.Seq), nil, `
			INSERT INTO packages (lot_code, seq, initial_quantity, current_quantity, unit, status, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.Code, p.Seq, p.InitialQuantity, p.CurrentQuantity, p.Unit.Code, string(p.Status), p.Active)
		for _, t := range p.Traces {
			sb.queue("", traceConflict(l.ProductCode, t.Number), `
				INSERT INTO trace_units (product_code, number, lot_code, package_seq, status, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				l.ProductCode, t.Number, l.Code, p.Seq, string(t.Status), t.CreatedAt)
		}
	}

	for i, m := range l.Movements {
		lines, err := json.Marshal(linesOrEmpty(m.Lines))
		if err != nil {
			return nil, fmt.Errorf("encode movement %s lines: %w", m.Code, err)
		}
		var qty decimal.NullDecimal
		if m.Quantity != nil {
			qty = decimal.NewNullDecimal(*m.Quantity)
		}
		sb.queue("upsert movement "+m.Code, nil, `
			INSERT INTO movements (code, lot_code, position, kind, reason, date, quantity, unit, initial_verdict,
			                       result_verdict, notes, origin_movement_code, derived_lot_code, analysis_number,
			                       analysis_effect, lines, recorded_by, recorded_by_level, recorded_at, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
			ON CONFLICT (code) DO UPDATE SET
				active = EXCLUDED.active,
				derived_lot_code = EXCLUDED.derived_lot_code`,
			m.Code, l.Code, i, string(m.Kind), string(m.Reason), dateOnly(m.Date), qty, m.Unit, string(m.InitialVerdict),
			string(m.ResultVerdict), m.Notes, m.OriginMovementCode, m.DerivedLotCode, m.AnalysisNumber,
			string(m.AnalysisEffect), lines, m.RecordedBy, m.RecordedByLevel, m.RecordedAt, m.Active)
	}

	sb.queue("delete analyses", nil, `DELETE FROM analyses WHERE lot_code = $1`, l.Code)
	for i, a := range l.Analyses {
		var assay decimal.NullDecimal
		if a.Assay != nil {
			assay = decimal.NewNullDecimal(*a.Assay)
		}
		number := a.Number
		sb.queue("", func(err error) error {
			if isUniqueViolation(err) {
				return analysisConflict(err)
			}
			return fmt.Errorf("insert analysis %s: %w", number, err)
		}, `
			INSERT INTO analyses (lot_code, position, number, requested_at, performed_at, reanalysis_date,
			                      expiry_date, verdict, assay, notes, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			l.Code, i, a.Number, dateOnly(a.RequestedAt), a.PerformedAt, a.ReanalysisDate, a.ExpiryDate,
			string(a.Verdict), assay, a.Notes, a.Active)
	}
	return sb, nil
}

// traceConflict traduce la violación de (product_code, number) de trace_units.
func traceConflict(productCode string, number int64) func(error) error {
	return func(err error) error {
		if isUniqueViolation(err) {
			return fmt.Errorf("traza %d duplicada para %s: %w", number, productCode, err)
		}
		return fmt.Errorf("insert trace unit: %w", err)
	}
}

// FindAnalysisOwner devuelve el lote con un análisis activo con ese número, o "".
func (r *LotRepo) FindAnalysisOwner(ctx context.Context, number string) (string, error) {
	var code string
	err := r.q.QueryRow(ctx, `SELECT lot_code FROM analyses WHERE number = $1 AND active LIMIT 1`, number).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find analysis owner: %w", err)
	}
	return code, nil
}

// List lista lotes ordenados por código, opcionalmente filtrados por producto.
func (r *LotRepo) List(ctx context.Context, productCode string, limit, offset int) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx, `
		SELECT code FROM lots
		WHERE ($1 = '' OR product_code = $1)
		ORDER BY code LIMIT $2 OFFSET $3`, productCode, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	out := make([]*entity.Lot, 0, len(codes))
	for _, code := range codes {
		l, err := r.load(ctx, code, false)
		if err != nil {
			return nil, err
		}
		if l != nil {
			out = append(out, l)
		}
	}
	return out, nil
}

func unitOf(code string) (entity.Unit, error) {
	u, ok := entity.UnitByCode(code)
	if !ok {
		return entity.Unit{}, fmt.Errorf("unidad desconocida en BD: %q", code)
	}
	return u, nil
}

func linesOrEmpty(lines []entity.MovementLine) []entity.MovementLine {
	if lines == nil {
		return []entity.MovementLine{}
	}
	return lines
}

// dateOnly normaliza a medianoche UTC; las columnas DATE no guardan hora.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
