package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. CentralQuantity es el stock de la bodega central;
// el stock de cada sucursal vive en BranchStock.
type Product struct {
	ID              string
	SerialNumber    string          // correlativo visible, con ceros a la izquierda (000001)
	Name            string
	Category        string
	Unit            string          // unidad de medida (L, kg, und)
	Price           decimal.Decimal // precio unitario de venta
	CentralQuantity int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LowStock indica si el stock central está por debajo del umbral.
func (p *Product) LowStock(threshold int64) bool {
	return p.CentralQuantity < threshold
}
