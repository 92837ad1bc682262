package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para Sale. Las ventas son inmutables:
// no hay Update ni Delete.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.Sale) error
	// ListByBranch lista las ventas de la sucursal con SaleDate en [from, to), más recientes primero.
	// from/to nil no acotan.
	ListByBranch(ctx context.Context, branchID string, from, to *time.Time) ([]*entity.Sale, error)
}

// SalesSummer es implementado por adaptadores capaces de sumar ventas en el backend
// (por ejemplo con SUM sobre NUMERIC). Es opcional.
type SalesSummer interface {
	SumSales(ctx context.Context, branchID string, from, to time.Time) (total decimal.Decimal, count int64, err error)
}
