package repository

import (
	"context"

	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
)

// InventoryFeeds expone las consultas en vivo de inventario ya decodificadas a entidades.
// Cada entrega es el conjunto completo de la colección.
type InventoryFeeds interface {
	SubscribeProducts(ctx context.Context, onSnapshot func([]*entity.Product), onError ErrorFunc) (Unsubscribe, error)
	SubscribeBranches(ctx context.Context, onSnapshot func([]*entity.Branch), onError ErrorFunc) (Unsubscribe, error)
	SubscribeBranchStock(ctx context.Context, onSnapshot func([]*entity.BranchStock), onError ErrorFunc) (Unsubscribe, error)
}
