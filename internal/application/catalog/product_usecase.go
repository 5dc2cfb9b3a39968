// Package catalog administra los productos sobre los que se registran lotes.
package catalog

import (
	"context"
	"strings"

	"github.com/jhoicas/Trazabilidad-api/internal/application/dto"
	"github.com/jhoicas/Trazabilidad-api/internal/domain"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Trazabilidad-api/internal/domain/repository"
)

// ProductUseCase casos de uso para productos. El cursor de trazas solo avanza vía ingresos.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create registra un nuevo producto con el cursor de trazas en 0.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.NewFieldError(domain.KindInvalidField, "code", "código y nombre son obligatorios")
	}
	existing, err := uc.repo.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	product := &entity.Product{
		Code:      code,
		Name:      strings.TrimSpace(in.Name),
		Traceable: in.Traceable,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Get obtiene un producto por código. Devuelve (nil, nil) si no existe.
func (uc *ProductUseCase) Get(ctx context.Context, code string) (*dto.ProductResponse, error) {
	product, err := uc.repo.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		Code:            p.Code,
		Name:            p.Name,
		Traceable:       p.Traceable,
		LastTraceNumber: p.LastTraceNumber,
	}
}
