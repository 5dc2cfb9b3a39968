package dto

// CreateProductRequest entrada para registrar un producto.
type CreateProductRequest struct {
	Code      string `json:"code" validate:"required,min=1,max=50"`
	Name      string `json:"name" validate:"required,min=1,max=200"`
	Traceable bool   `json:"traceable"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	Code            string `json:"code"`
	Name            string `json:"name"`
	Traceable       bool   `json:"traceable"`
	LastTraceNumber int64  `json:"last_trace_number"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// LotListResponse lista paginada de lotes.
type LotListResponse struct {
	Items []LotResponse `json:"items"`
	Page  PageResponse  `json:"page"`
}
