package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

// SalesSummer suma las ventas en SQL (NUMERIC) en lugar de traer los documentos.
type SalesSummer struct {
	q Querier
}

// NewSalesSummer construye el adaptador. Pasar pool o tx (Querier).
func NewSalesSummer(q Querier) *SalesSummer {
	return &SalesSummer{q: q}
}

var _ repository.SalesSummer = (*SalesSummer)(nil)

// SumSales retorna total y cantidad de ventas de la sucursal en [from, to).
func (r *SalesSummer) SumSales(ctx context.Context, branchID string, from, to time.Time) (decimal.Decimal, int64, error) {
	query := `
		SELECT COALESCE(SUM((data->>'amount')::numeric), 0), COUNT(*)
		FROM documents
		WHERE collection = $1
		  AND data->>'branchId' = $2
		  AND (data->>'saleDate')::timestamptz >= $3
		  AND (data->>'saleDate')::timestamptz < $4`
	var total decimal.Decimal
	var count int64
	err := r.q.QueryRow(ctx, query, repository.CollectionSales, branchID, from.UTC(), to.UTC()).Scan(&total, &count)
	if err != nil {
		return decimal.Zero, 0, mapError("sum sales", err)
	}
	return total, count, nil
}
