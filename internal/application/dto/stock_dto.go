package dto

import "time"

// TransferRequest entrada para transferir stock de la bodega central a una sucursal.
type TransferRequest struct {
	ProductID string `json:"product_id"`
	BranchID  string `json:"branch_id"`
	Quantity  int64  `json:"quantity"`
}

// BranchStockResponse línea de stock de un producto en una sucursal.
type BranchStockResponse struct {
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	BranchID    string    `json:"branch_id"`
	Quantity    int64     `json:"quantity"`
	LowStock    bool      `json:"low_stock"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// TransferResponse resultado de una transferencia.
type TransferResponse struct {
	ProductID       string `json:"product_id"`
	BranchID        string `json:"branch_id"`
	BranchQuantity  int64  `json:"branch_quantity"`
	CentralQuantity int64  `json:"central_quantity"`
}

// AvailabilityEntry disponibilidad en una ubicación (bodega central u otra sucursal).
type AvailabilityEntry struct {
	LocationID  string `json:"location_id"` // "central" o ID de sucursal
	DisplayName string `json:"display_name"`
	Quantity    int64  `json:"quantity"`
}

// AvailabilityResponse disponibilidad alternativa de un producto.
type AvailabilityResponse struct {
	ProductID   string              `json:"product_id"`
	ProductName string              `json:"product_name"`
	Locations   []AvailabilityEntry `json:"locations"`
}
