package docstore

import (
	"context"
	"errors"

	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

// ProductRepository implementa repository.ProductRepository sobre la colección products.
type ProductRepository struct {
	q Querier
}

// NewProductRepository construye el repositorio.
func NewProductRepository(q Querier) *ProductRepository {
	return &ProductRepository{q: q}
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

func productFields(p *entity.Product) repository.Fields {
	return repository.Fields{
		"serialNumber": p.SerialNumber,
		"name":         p.Name,
		"category":     p.Category,
		"unit":         p.Unit,
		"price":        money(p.Price),
		"mainStock":    p.CentralQuantity,
		"createdAt":    p.CreatedAt.UTC(),
		"updatedAt":    p.UpdatedAt.UTC(),
	}
}

func productFromDoc(doc repository.Document) *entity.Product {
	f := doc.Fields
	return &entity.Product{
		ID:              doc.ID,
		SerialNumber:    str(f, "serialNumber"),
		Name:            str(f, "name"),
		Category:        str(f, "category"),
		Unit:            str(f, "unit"),
		Price:           decimalOf(f, "price"),
		CentralQuantity: int64Of(f, "mainStock"),
		CreatedAt:       timeOf(f, "createdAt"),
		UpdatedAt:       timeOf(f, "updatedAt"),
	}
}

// Create inserta el producto; si ID está vacío lo genera el almacén y se asigna a p.ID.
func (r *ProductRepository) Create(ctx context.Context, p *entity.Product) error {
	if p.ID != "" {
		return r.q.Set(ctx, repository.CollectionProducts, p.ID, productFields(p))
	}
	id, err := r.q.Create(ctx, repository.CollectionProducts, productFields(p))
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// GetByID retorna (nil, nil) si no existe.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	doc, err := r.q.Get(ctx, repository.CollectionProducts, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return productFromDoc(doc), nil
}

// Update reescribe los campos del producto existente.
func (r *ProductRepository) Update(ctx context.Context, p *entity.Product) error {
	return r.q.Update(ctx, repository.CollectionProducts, p.ID, productFields(p))
}

// List devuelve todos los productos (orden por ID del almacén).
func (r *ProductRepository) List(ctx context.Context) ([]*entity.Product, error) {
	docs, err := r.q.Query(ctx, repository.CollectionProducts)
	if err != nil {
		return nil, err
	}
	out := make([]*entity.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, productFromDoc(d))
	}
	return out, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return r.q.Delete(ctx, repository.CollectionProducts, id)
}
