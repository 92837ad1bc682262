package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto. El número de serie lo asigna el sistema.
type CreateProductRequest struct {
	Name         string           `json:"name"`
	Category     string           `json:"category"`
	Unit         string           `json:"unit"`
	Price        *decimal.Decimal `json:"price"`
	InitialStock int64            `json:"initial_stock"`
}

// UpdateProductRequest entrada para actualizar un producto (campos parciales; serial inmutable).
type UpdateProductRequest struct {
	Name            *string          `json:"name"`
	Category        *string          `json:"category"`
	Unit            *string          `json:"unit"`
	Price           *decimal.Decimal `json:"price"`
	CentralQuantity *int64           `json:"central_quantity"`
}

// ReplenishRequest entrada para reponer stock central.
type ReplenishRequest struct {
	Quantity int64 `json:"quantity"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID              string          `json:"id"`
	SerialNumber    string          `json:"serial_number"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Unit            string          `json:"unit"`
	Price           decimal.Decimal `json:"price"`
	CentralQuantity int64           `json:"central_quantity"`
	LowStock        bool            `json:"low_stock"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProductListResponse lista de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int               `json:"total"`
}
