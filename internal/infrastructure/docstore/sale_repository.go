package docstore

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

// SaleRepository implementa repository.SaleRepository sobre la colección sales.
type SaleRepository struct {
	q Querier
}

// NewSaleRepository construye el repositorio.
func NewSaleRepository(q Querier) *SaleRepository {
	return &SaleRepository{q: q}
}

var _ repository.SaleRepository = (*SaleRepository)(nil)

func saleFromDoc(doc repository.Document) *entity.Sale {
	f := doc.Fields
	return &entity.Sale{
		ID:          doc.ID,
		BranchID:    str(f, "branchId"),
		ProductID:   str(f, "productId"),
		ProductName: str(f, "productName"),
		Quantity:    int64Of(f, "quantity"),
		UnitPrice:   decimalOf(f, "unitPrice"),
		Amount:      decimalOf(f, "amount"),
		SaleDate:    timeOf(f, "saleDate"),
		CreatedBy:   str(f, "createdBy"),
	}
}

// Create agrega la venta y asigna sale.ID.
func (r *SaleRepository) Create(ctx context.Context, s *entity.Sale) error {
	id, err := r.q.Create(ctx, repository.CollectionSales, repository.Fields{
		"branchId":    s.BranchID,
		"productId":   s.ProductID,
		"productName": s.ProductName,
		"quantity":    s.Quantity,
		"unitPrice":   money(s.UnitPrice),
		"amount":      money(s.Amount),
		"saleDate":    s.SaleDate.UTC(),
		"createdBy":   s.CreatedBy,
	})
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// ListByBranch filtra por sucursal en el almacén y por rango de fecha en memoria.
func (r *SaleRepository) ListByBranch(ctx context.Context, branchID string, from, to *time.Time) ([]*entity.Sale, error) {
	docs, err := r.q.Query(ctx, repository.CollectionSales, repository.Eq("branchId", branchID))
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Sale, 0, len(docs))
	for _, d := range docs {
		s := saleFromDoc(d)
		if from != nil && s.SaleDate.Before(*from) {
			continue
		}
		if to != nil && !s.SaleDate.Before(*to) {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SaleDate.After(out[j].SaleDate) })
	return out, nil
}
