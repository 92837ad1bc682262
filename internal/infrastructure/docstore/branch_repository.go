package docstore

import (
	"context"
	"errors"

	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

// BranchRepository implementa repository.BranchRepository sobre la colección branches.
type BranchRepository struct {
	q Querier
}

// NewBranchRepository construye el repositorio.
func NewBranchRepository(q Querier) *BranchRepository {
	return &BranchRepository{q: q}
}

var _ repository.BranchRepository = (*BranchRepository)(nil)

func branchFields(b *entity.Branch) repository.Fields {
	return repository.Fields{
		"name":        b.Name,
		"location":    b.Location,
		"managerId":   b.ManagerID,
		"managerName": b.ManagerName,
		"createdAt":   b.CreatedAt.UTC(),
		"updatedAt":   b.UpdatedAt.UTC(),
	}
}

func branchFromDoc(doc repository.Document) *entity.Branch {
	f := doc.Fields
	return &entity.Branch{
		ID:          doc.ID,
		Name:        str(f, "name"),
		Location:    str(f, "location"),
		ManagerID:   str(f, "managerId"),
		ManagerName: str(f, "managerName"),
		CreatedAt:   timeOf(f, "createdAt"),
		UpdatedAt:   timeOf(f, "updatedAt"),
	}
}

func (r *BranchRepository) Create(ctx context.Context, b *entity.Branch) error {
	if b.ID != "" {
		return r.q.Set(ctx, repository.CollectionBranches, b.ID, branchFields(b))
	}
	id, err := r.q.Create(ctx, repository.CollectionBranches, branchFields(b))
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

// GetByID retorna (nil, nil) si no existe.
func (r *BranchRepository) GetByID(ctx context.Context, id string) (*entity.Branch, error) {
	doc, err := r.q.Get(ctx, repository.CollectionBranches, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return branchFromDoc(doc), nil
}

func (r *BranchRepository) Update(ctx context.Context, b *entity.Branch) error {
	return r.q.Update(ctx, repository.CollectionBranches, b.ID, branchFields(b))
}

func (r *BranchRepository) List(ctx context.Context) ([]*entity.Branch, error) {
	return r.list(ctx)
}

// ListByManager devuelve las sucursales asignadas al usuario.
func (r *BranchRepository) ListByManager(ctx context.Context, managerID string) ([]*entity.Branch, error) {
	return r.list(ctx, repository.Eq("managerId", managerID))
}

func (r *BranchRepository) list(ctx context.Context, filters ...repository.Filter) ([]*entity.Branch, error) {
	docs, err := r.q.Query(ctx, repository.CollectionBranches, filters...)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Branch, 0, len(docs))
	for _, d := range docs {
		out = append(out, branchFromDoc(d))
	}
	return out, nil
}
