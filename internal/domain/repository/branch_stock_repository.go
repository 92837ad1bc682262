package repository

import (
	"context"

	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
)

// BranchStockRepository define el puerto para las líneas de stock por (producto, sucursal).
// Get retorna (nil, nil) cuando la línea no existe (cantidad 0).
type BranchStockRepository interface {
	Get(ctx context.Context, productID, branchID string) (*entity.BranchStock, error)
	Upsert(ctx context.Context, stock *entity.BranchStock) error
	List(ctx context.Context) ([]*entity.BranchStock, error)
	ListByBranch(ctx context.Context, branchID string) ([]*entity.BranchStock, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.BranchStock, error)
	Delete(ctx context.Context, id string) error
}
