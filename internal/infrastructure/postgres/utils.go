package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
)

// uxActiveAnalysis índice único parcial sobre analyses(number) WHERE active.
const uxActiveAnalysis = "ux_analyses_active_number"

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// analysisConflict traduce la violación del índice de análisis activos a DuplicateAnalysis.
func analysisConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == uxActiveAnalysis {
		return domain.NewFieldError(domain.KindDuplicateAnalysis, "analysis_number",
			"el número de análisis ya está asignado a otro lote")
	}
	return domain.ErrDuplicate
}

// stmtBatch acumula sentencias para enviarlas en un solo viaje al servidor.
// Cada sentencia lleva su propio traductor de errores.
type stmtBatch struct {
	b     pgx.Batch
	wraps []func(error) error
}

// queue encola una sentencia; label se antepone al error si wrap es nil.
func (sb *stmtBatch) queue(label string, wrap func(error) error, sql string, args ...any) {
	if wrap == nil {
		wrap = func(err error) error { return fmt.Errorf("%s: %w", label, err) }
	}
	sb.b.Queue(sql, args...)
	sb.wraps = append(sb.wraps, wrap)
}

// Len número de sentencias encoladas.
func (sb *stmtBatch) Len() int { return sb.b.Len() }

// send ejecuta el lote y devuelve el primer error, traducido por el wrap de su sentencia.
func (sb *stmtBatch) send(ctx context.Context, q Querier) error {
	if sb.Len() == 0 {
		return nil
	}
	br := q.SendBatch(ctx, &sb.b)
	for _, wrap := range sb.wraps {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return wrap(err)
		}
	}
	return br.Close()
}
