package docstore

import (
	"context"
	"errors"

	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

// BranchStockRepository implementa repository.BranchStockRepository. El ID del documento es
// determinístico (productId_branchId) para que exista una sola línea por par.
type BranchStockRepository struct {
	q Querier
}

// NewBranchStockRepository construye el repositorio.
func NewBranchStockRepository(q Querier) *BranchStockRepository {
	return &BranchStockRepository{q: q}
}

var _ repository.BranchStockRepository = (*BranchStockRepository)(nil)

func branchStockFromDoc(doc repository.Document) *entity.BranchStock {
	f := doc.Fields
	return &entity.BranchStock{
		ID:        doc.ID,
		ProductID: str(f, "productId"),
		BranchID:  str(f, "branchId"),
		Quantity:  int64Of(f, "quantity"),
		UpdatedAt: timeOf(f, "updatedAt"),
	}
}

// Get retorna (nil, nil) si la línea no existe.
func (r *BranchStockRepository) Get(ctx context.Context, productID, branchID string) (*entity.BranchStock, error) {
	doc, err := r.q.Get(ctx, repository.CollectionBranchStock, entity.BranchStockID(productID, branchID))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return branchStockFromDoc(doc), nil
}

// Upsert crea o reemplaza la línea de stock.
func (r *BranchStockRepository) Upsert(ctx context.Context, s *entity.BranchStock) error {
	s.ID = entity.BranchStockID(s.ProductID, s.BranchID)
	return r.q.Set(ctx, repository.CollectionBranchStock, s.ID, repository.Fields{
		"productId": s.ProductID,
		"branchId":  s.BranchID,
		"quantity":  s.Quantity,
		"updatedAt": s.UpdatedAt.UTC(),
	})
}

func (r *BranchStockRepository) List(ctx context.Context) ([]*entity.BranchStock, error) {
	return r.list(ctx)
}

func (r *BranchStockRepository) ListByBranch(ctx context.Context, branchID string) ([]*entity.BranchStock, error) {
	return r.list(ctx, repository.Eq("branchId", branchID))
}

func (r *BranchStockRepository) ListByProduct(ctx context.Context, productID string) ([]*entity.BranchStock, error) {
	return r.list(ctx, repository.Eq("productId", productID))
}

func (r *BranchStockRepository) Delete(ctx context.Context, id string) error {
	return r.q.Delete(ctx, repository.CollectionBranchStock, id)
}

func (r *BranchStockRepository) list(ctx context.Context, filters ...repository.Filter) ([]*entity.BranchStock, error) {
	docs, err := r.q.Query(ctx, repository.CollectionBranchStock, filters...)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.BranchStock, 0, len(docs))
	for _, d := range docs {
		out = append(out, branchStockFromDoc(d))
	}
	return out, nil
}
