package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleItemRequest ítem de una venta.
type SaleItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

// RecordSaleRequest entrada para registrar una venta de varios ítems.
type RecordSaleRequest struct {
	Items []SaleItemRequest `json:"items"`
}

// SaleResponse salida de una venta registrada.
type SaleResponse struct {
	ID          string          `json:"id"`
	BranchID    string          `json:"branch_id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	SaleDate    time.Time       `json:"sale_date"`
	CreatedBy   string          `json:"created_by"`
}

// RecordSaleResponse resultado de registrar una venta.
type RecordSaleResponse struct {
	Sales       []SaleResponse  `json:"sales"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
}

// SaleListResponse lista paginada de ventas.
type SaleListResponse struct {
	Items []SaleResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}
