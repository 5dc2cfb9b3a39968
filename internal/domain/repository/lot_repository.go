package repository

import (
	"context"

	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
)

// LotRepository define el puerto de persistencia del agregado Lot.
// El lote se carga y guarda completo: bultos, trazas, movimientos y análisis.
type LotRepository interface {
	// Lock serializa el acceso a los lotes indicados hasta el fin de la transacción.
	// Los códigos se bloquean en orden para evitar interbloqueos; el código puede no existir aún.
	Lock(ctx context.Context, codes ...string) error
	// Get devuelve (nil, nil) si el lote no existe.
	Get(ctx context.Context, code string) (*entity.Lot, error)
	GetForUpdate(ctx context.Context, code string) (*entity.Lot, error)
	// Save inserta o reemplaza el estado del lote. Los movimientos existentes solo se agregan o desactivan.
	Save(ctx context.Context, lot *entity.Lot) error
	// FindAnalysisOwner devuelve el lote con un análisis activo con ese número, o "" si no hay.
	FindAnalysisOwner(ctx context.Context, number string) (string, error)
	List(ctx context.Context, productCode string, limit, offset int) ([]*entity.Lot, error)
}
