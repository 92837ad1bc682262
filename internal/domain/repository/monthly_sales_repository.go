package repository

import (
	"context"

	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
)

// MonthlySalesRepository define el puerto para el acumulado mensual por sucursal.
// Get retorna (nil, nil) cuando no hay registro para el período.
type MonthlySalesRepository interface {
	Get(ctx context.Context, branchID string, year, month int) (*entity.MonthlySales, error)
	Upsert(ctx context.Context, ms *entity.MonthlySales) error
	ListByPeriod(ctx context.Context, year, month int) ([]*entity.MonthlySales, error)
}
