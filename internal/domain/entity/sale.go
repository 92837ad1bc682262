package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale es un evento de venta inmutable: solo lo crea el registrador de ventas y nunca se modifica.
type Sale struct {
	ID          string
	BranchID    string
	ProductID   string
	ProductName string // copia del nombre al momento de la venta
	Quantity    int64
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal // UnitPrice * Quantity
	SaleDate    time.Time
	CreatedBy   string
}
