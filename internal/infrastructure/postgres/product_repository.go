package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `code, name, traceable, last_trace_number`

// Create persiste un nuevo producto.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO products (code, name, traceable, last_trace_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())`,
		product.Code, product.Name, product.Traceable, product.LastTraceNumber,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Get obtiene un producto por código.
func (r *ProductRepo) Get(ctx context.Context, code string) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE code = $1`, code)
}

// GetForUpdate obtiene el producto bloqueando su fila (cursor de trazas) hasta el fin de la tx.
func (r *ProductRepo) GetForUpdate(ctx context.Context, code string) (*entity.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE code = $1 FOR UPDATE`, code)
}

func (r *ProductRepo) get(ctx context.Context, query, code string) (*entity.Product, error) {
	var p entity.Product
	err := r.q.QueryRow(ctx, query, code).Scan(&p.Code, &p.Name, &p.Traceable, &p.LastTraceNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// Save actualiza nombre, marca de trazabilidad y cursor. El cursor nunca retrocede.
func (r *ProductRepo) Save(ctx context.Context, product *entity.Product) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE products
		SET name = $2, traceable = $3, last_trace_number = GREATEST(last_trace_number, $4), updated_at = NOW()
		WHERE code = $1`,
		product.Code, product.Name, product.Traceable, product.LastTraceNumber,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista productos ordenados por código.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.Code, &p.Name, &p.Traceable, &p.LastTraceNumber); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
