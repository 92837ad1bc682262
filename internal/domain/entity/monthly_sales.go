package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MonthlySales acumula el total vendido y la cantidad de ventas de una sucursal en un mes.
// Estados: abierto → abierto (cada venta) y abierto → cerrado (terminal).
type MonthlySales struct {
	ID          string
	BranchID    string
	BranchName  string
	Month       int // 1-12
	Year        int
	TotalAmount decimal.Decimal
	SalesCount  int64
	IsClosed    bool
	ClosedAt    *time.Time
}

// MonthlySalesID devuelve el ID determinístico del acumulado (sucursal, año, mes).
func MonthlySalesID(branchID string, year, month int) string {
	return fmt.Sprintf("%s_%04d_%02d", branchID, year, month)
}

// NewMonthlySales crea un acumulado abierto y vacío para el período.
func NewMonthlySales(branchID, branchName string, year, month int) *MonthlySales {
	return &MonthlySales{
		ID:          MonthlySalesID(branchID, year, month),
		BranchID:    branchID,
		BranchName:  branchName,
		Month:       month,
		Year:        year,
		TotalAmount: decimal.Zero,
	}
}

// AddSale suma una venta al acumulado. Retorna false si el período está cerrado.
func (m *MonthlySales) AddSale(amount decimal.Decimal) bool {
	if m.IsClosed {
		return false
	}
	m.TotalAmount = m.TotalAmount.Add(amount)
	m.SalesCount++
	return true
}

// Close cierra el período. Retorna false si ya estaba cerrado.
func (m *MonthlySales) Close(at time.Time) bool {
	if m.IsClosed {
		return false
	}
	m.IsClosed = true
	m.ClosedAt = &at
	return true
}
