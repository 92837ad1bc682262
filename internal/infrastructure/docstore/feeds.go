package docstore

import (
	"context"

	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

// Feeds implementa repository.InventoryFeeds sobre Subscribe del almacén.
type Feeds struct {
	store repository.DocumentStore
}

// NewFeeds construye las consultas en vivo.
func NewFeeds(store repository.DocumentStore) *Feeds {
	return &Feeds{store: store}
}

var _ repository.InventoryFeeds = (*Feeds)(nil)

func (f *Feeds) SubscribeProducts(ctx context.Context, onSnapshot func([]*entity.Product), onError repository.ErrorFunc) (repository.Unsubscribe, error) {
	return subscribe(ctx, f.store, repository.CollectionProducts, productFromDoc, onSnapshot, onError)
}

func (f *Feeds) SubscribeBranches(ctx context.Context, onSnapshot func([]*entity.Branch), onError repository.ErrorFunc) (repository.Unsubscribe, error) {
	return subscribe(ctx, f.store, repository.CollectionBranches, branchFromDoc, onSnapshot, onError)
}

func (f *Feeds) SubscribeBranchStock(ctx context.Context, onSnapshot func([]*entity.BranchStock), onError repository.ErrorFunc) (repository.Unsubscribe, error) {
	return subscribe(ctx, f.store, repository.CollectionBranchStock, branchStockFromDoc, onSnapshot, onError)
}

func subscribe[T any](ctx context.Context, store repository.DocumentStore, collection string, decode func(repository.Document) T, onSnapshot func([]T), onError repository.ErrorFunc) (repository.Unsubscribe, error) {
	return store.Subscribe(ctx, collection, func(docs []repository.Document) {
		out := make([]T, 0, len(docs))
		for _, d := range docs {
			out = append(out, decode(d))
		}
		onSnapshot(out)
	}, onError)
}
