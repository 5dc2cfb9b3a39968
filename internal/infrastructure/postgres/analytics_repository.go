package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var _ repository.AnalyticsRepository = (*AnalyticsRepo)(nil)

// AnalyticsRepo consultas de lectura del tablero de calidad sobre PostgreSQL.
type AnalyticsRepo struct {
	q Querier
}

// NewAnalyticsRepository construye el repositorio.
func NewAnalyticsRepository(q Querier) *AnalyticsRepo {
	return &AnalyticsRepo{q: q}
}

// CountActiveByVerdict cuenta los lotes activos agrupados por dictamen.
func (r *AnalyticsRepo) CountActiveByVerdict(ctx context.Context) ([]repository.VerdictCount, error) {
	rows, err := r.q.Query(ctx, `
		SELECT verdict, COUNT(*)
		FROM lots
		WHERE active
		GROUP BY verdict
		ORDER BY verdict`)
	if err != nil {
		return nil, fmt.Errorf("count lots by verdict: %w", err)
	}
	defer rows.Close()
	var out []repository.VerdictCount
	for rows.Next() {
		var (
			verdict string
			c       repository.VerdictCount
		)
		if err := rows.Scan(&verdict, &c.Lots); err != nil {
			return nil, fmt.Errorf("scan verdict count: %w", err)
		}
		c.Verdict = entity.Verdict(verdict)
		out = append(out, c)
	}
	return out, rows.Err()
}

// dueColumns columnas de fecha admitidas; el nombre se interpola en la consulta.
var dueColumns = map[repository.DateKind]string{
	repository.DateExpiry:     "expiry_date",
	repository.DateReanalysis: "reanalysis_date",
}

// DueBefore lotes con stock cuya fecha del análisis vigente es <= until.
func (r *AnalyticsRepo) DueBefore(
	ctx context.Context,
	kind repository.DateKind,
	verdicts []entity.Verdict,
	until time.Time,
	limit int,
) ([]repository.DateAlert, error) {
	col, ok := dueColumns[kind]
	if !ok {
		return nil, fmt.Errorf("due before: tipo de fecha desconocido %q", kind)
	}
	vs := make([]string, 0, len(verdicts))
	for _, v := range verdicts {
		vs = append(vs, string(v))
	}
	query := fmt.Sprintf(`
		WITH effective AS (
			SELECT DISTINCT ON (a.lot_code) a.lot_code, a.number, a.%[1]s AS due
			FROM analyses a
			WHERE a.active AND a.verdict <> ''
			ORDER BY a.lot_code, a.position DESC
		)
		SELECT l.code, l.product_code, l.verdict, e.number, e.due, l.current_quantity, l.unit
		FROM lots l
		JOIN effective e ON e.lot_code = l.code
		WHERE l.active
		  AND l.current_quantity > 0
		  AND l.verdict = ANY($1)
		  AND e.due IS NOT NULL
		  AND e.due <= $2
		ORDER BY e.due, l.code
		LIMIT $3`, col)

	rows, err := r.q.Query(ctx, query, vs, until, limit)
	if err != nil {
		return nil, fmt.Errorf("due before %s: %w", col, err)
	}
	defer rows.Close()
	var out []repository.DateAlert
	for rows.Next() {
		var (
			a       repository.DateAlert
			verdict string
		)
		if err := rows.Scan(&a.LotCode, &a.ProductCode, &verdict, &a.AnalysisNumber, &a.Date, &a.CurrentQuantity, &a.Unit); err != nil {
			return nil, fmt.Errorf("scan due alert: %w", err)
		}
		a.Verdict = entity.Verdict(verdict)
		out = append(out, a)
	}
	return out, rows.Err()
}
