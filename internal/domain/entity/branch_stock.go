package entity

import "time"

// BranchStock es la línea del libro de stock para un par (producto, sucursal).
// Existe a lo sumo una por par; la ausencia equivale a cantidad 0.
type BranchStock struct {
	ID        string
	ProductID string
	BranchID  string
	Quantity  int64
	UpdatedAt time.Time
}

// BranchStockID devuelve el ID determinístico de la línea (producto, sucursal).
func BranchStockID(productID, branchID string) string {
	return productID + "_" + branchID
}
