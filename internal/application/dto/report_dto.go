package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlySalesResponse acumulado mensual de una sucursal.
type MonthlySalesResponse struct {
	ID          string          `json:"id"`
	BranchID    string          `json:"branch_id"`
	BranchName  string          `json:"branch_name"`
	Month       int             `json:"month"`
	Year        int             `json:"year"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	SalesCount  int64           `json:"sales_count"`
	IsClosed    bool            `json:"is_closed"`
	ClosedAt    *time.Time      `json:"closed_at,omitempty"`
}

// LowStockItem producto o línea de sucursal por debajo del umbral.
type LowStockItem struct {
	ProductID    string `json:"product_id"`
	SerialNumber string `json:"serial_number"`
	ProductName  string `json:"product_name"`
	BranchID     string `json:"branch_id,omitempty"` // vacío = bodega central
	Quantity     int64  `json:"quantity"`
}

// LowStockResponse alerta de stock bajo.
type LowStockResponse struct {
	Threshold int64          `json:"threshold"`
	Items     []LowStockItem `json:"items"`
}

// ReconcileResponse compara el acumulado mensual con la suma de las ventas del período.
type ReconcileResponse struct {
	BranchID       string          `json:"branch_id"`
	Month          int             `json:"month"`
	Year           int             `json:"year"`
	RecordedAmount decimal.Decimal `json:"recorded_amount"`
	RecordedCount  int64           `json:"recorded_count"`
	ComputedAmount decimal.Decimal `json:"computed_amount"`
	ComputedCount  int64           `json:"computed_count"`
	InSync         bool            `json:"in_sync"`
	HasAggregate   bool            `json:"has_aggregate"`
}

// MonthlyReport datos del reporte mensual de todas las sucursales (XLSX/PDF).
type MonthlyReport struct {
	Year        int
	Month       int
	GeneratedAt time.Time
	Rows        []MonthlySalesResponse
	TotalAmount decimal.Decimal
	TotalCount  int64
}
