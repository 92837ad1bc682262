package docstore

import (
	"context"
	"errors"

	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

// MonthlySalesRepository implementa repository.MonthlySalesRepository con ID branchId_yyyy_mm.
type MonthlySalesRepository struct {
	q Querier
}

// NewMonthlySalesRepository construye el repositorio.
func NewMonthlySalesRepository(q Querier) *MonthlySalesRepository {
	return &MonthlySalesRepository{q: q}
}

var _ repository.MonthlySalesRepository = (*MonthlySalesRepository)(nil)

func monthlyFromDoc(doc repository.Document) *entity.MonthlySales {
	f := doc.Fields
	return &entity.MonthlySales{
		ID:          doc.ID,
		BranchID:    str(f, "branchId"),
		BranchName:  str(f, "branchName"),
		Month:       intOf(f, "month"),
		Year:        intOf(f, "year"),
		TotalAmount: decimalOf(f, "totalAmount"),
		SalesCount:  int64Of(f, "salesCount"),
		IsClosed:    boolOf(f, "isClosed"),
		ClosedAt:    timePtrOf(f, "closedAt"),
	}
}

// Get retorna (nil, nil) si no hay registro para el período.
func (r *MonthlySalesRepository) Get(ctx context.Context, branchID string, year, month int) (*entity.MonthlySales, error) {
	doc, err := r.q.Get(ctx, repository.CollectionMonthlySales, entity.MonthlySalesID(branchID, year, month))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return monthlyFromDoc(doc), nil
}

func (r *MonthlySalesRepository) Upsert(ctx context.Context, ms *entity.MonthlySales) error {
	ms.ID = entity.MonthlySalesID(ms.BranchID, ms.Year, ms.Month)
	return r.q.Set(ctx, repository.CollectionMonthlySales, ms.ID, repository.Fields{
		"branchId":    ms.BranchID,
		"branchName":  ms.BranchName,
		"month":       int64(ms.Month),
		"year":        int64(ms.Year),
		"totalAmount": money(ms.TotalAmount),
		"salesCount":  ms.SalesCount,
		"isClosed":    ms.IsClosed,
		"closedAt":    nullableTime(ms.ClosedAt),
	})
}

func (r *MonthlySalesRepository) ListByPeriod(ctx context.Context, year, month int) ([]*entity.MonthlySales, error) {
	docs, err := r.q.Query(ctx, repository.CollectionMonthlySales,
		repository.Eq("year", int64(year)), repository.Eq("month", int64(month)))
	if err != nil {
		return nil, err
	}
	out := make([]*entity.MonthlySales, 0, len(docs))
	for _, d := range docs {
		out = append(out, monthlyFromDoc(d))
	}
	return out, nil
}
