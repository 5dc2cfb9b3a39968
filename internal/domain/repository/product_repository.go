package repository

import (
	"context"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// Get devuelve (nil, nil) si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	Get(ctx context.Context, code string) (*entity.Product, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (cursor de trazas).
	GetForUpdate(ctx context.Context, code string) (*entity.Product, error)
	Save(ctx context.Context, product *entity.Product) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
}
