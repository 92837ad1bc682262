package repository

import (
	"context"

	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID retorna (nil, nil) si el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	List(ctx context.Context) ([]*entity.Product, error)
	Delete(ctx context.Context, id string) error
}
