// Package report genera la ficha de trazabilidad de un lote.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// LotReader obtiene la vista completa de un lote (paquetes, trazas, movimientos y análisis).
type LotReader interface {
	GetLot(ctx context.Context, code string) (*dto.LotResponse, error)
}

// LotSheet datos que se vuelcan en la ficha.
type LotSheet struct {
	Lot         dto.LotResponse
	ProductName string
	GeneratedBy string
	GeneratedAt time.Time
}

// LotSheetGenerator puerto de salida: convierte la ficha en un documento.
type LotSheetGenerator interface {
	GenerateLotSheet(ctx context.Context, sheet LotSheet) ([]byte, error)
}

// UseCase genera la ficha de trazabilidad en PDF.
type UseCase struct {
	lots      LotReader
	products  repository.ProductRepository
	generator LotSheetGenerator
	now       func() time.Time
}

// NewUseCase construye el caso de uso inyectando sus dependencias.
func NewUseCase(lots LotReader, products repository.ProductRepository, generator LotSheetGenerator) *UseCase {
	return &UseCase{lots: lots, products: products, generator: generator, now: time.Now}
}

// LotSheet genera la ficha del lote. Devuelve domain.ErrNotFound si el lote no existe.
func (uc *UseCase) LotSheet(ctx context.Context, code, requestedBy string) (doc []byte, filename string, err error) {
	lot, err := uc.lots.GetLot(ctx, code)
	if err != nil {
		return nil, "", err
	}

	name := lot.ProductCode
	if p, pErr := uc.products.Get(ctx, lot.ProductCode); pErr == nil && p != nil {
		name = p.Name
	}

	doc, err = uc.generator.GenerateLotSheet(ctx, LotSheet{
		Lot:         *lot,
		ProductName: name,
		GeneratedBy: requestedBy,
		GeneratedAt: uc.now(),
	})
	if err != nil {
		return nil, "", fmt.Errorf("ficha de lote: %w", err)
	}
	return doc, fmt.Sprintf("lote_%s.pdf", lot.Code), nil
}
