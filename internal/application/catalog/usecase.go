// Package catalog contiene los casos de uso del catálogo de productos y del stock central.
package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/application/ports"
	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/inventory"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

// Options parámetros del catálogo.
type Options struct {
	SerialWidth       int
	LowStockThreshold int64
	Now               func() time.Time
}

// CatalogUseCase administra productos, su número de serie y el stock de la bodega central.
type CatalogUseCase struct {
	txRunner ports.TxRunner
	products repository.ProductRepository
	metrics  ports.LedgerMetrics
	log      *logger.Logger
	opts     Options
}

// NewCatalogUseCase construye el caso de uso.
func NewCatalogUseCase(
	txRunner ports.TxRunner,
	products repository.ProductRepository,
	metrics ports.LedgerMetrics,
	log *logger.Logger,
	opts Options,
) *CatalogUseCase {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SerialWidth <= 0 {
		opts.SerialWidth = inventory.DefaultSerialWidth
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &CatalogUseCase{
		txRunner: txRunner,
		products: products,
		metrics:  metrics,
		log:      log.Component("catalog"),
		opts:     opts,
	}
}

// AddProduct crea un producto con el siguiente número de serie (máximo numérico + 1).
// El recorrido de seriales y la inserción ocurren en la misma unidad atómica: dos altas
// concurrentes no pueden obtener el mismo serial; la perdedora recibe ErrConflict.
func (uc *CatalogUseCase) AddProduct(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if _, err := identity.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	unit := strings.TrimSpace(in.Unit)
	switch {
	case name == "":
		return nil, domain.Invalid("name", "es obligatorio")
	case unit == "":
		return nil, domain.Invalid("unit", "es obligatorio")
	case in.Price == nil:
		return nil, domain.Invalid("price", "es obligatorio")
	case in.Price.IsNegative():
		return nil, domain.Invalid("price", "no puede ser negativo")
	case in.InitialStock < 0:
		return nil, domain.Invalid("initial_stock", "no puede ser negativo")
	}

	now := uc.opts.Now()
	product := &entity.Product{
		Name:            name,
		Category:        normalizeCategory(in.Category),
		Unit:            unit,
		Price:           *in.Price,
		CentralQuantity: in.InitialStock,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		existing, err := r.Products.List(ctx)
		if err != nil {
			return err
		}
		serials := make([]string, 0, len(existing))
		for _, p := range existing {
			serials = append(serials, p.SerialNumber)
		}
		product.SerialNumber = inventory.NextSerial(serials, uc.opts.SerialWidth)
		return r.Products.Create(ctx, product)
	})
	if err != nil {
		uc.conflict("add_product", err)
		return nil, err
	}
	uc.log.Info().
		Str("product_id", product.ID).
		Str("serial", product.SerialNumber).
		Int64("quantity", product.CentralQuantity).
		Msg("producto creado")
	return uc.toResponse(product), nil
}

// UpdateProduct mezcla los campos informados y sella UpdatedAt. El serial no se modifica.
func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if _, err := identity.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, domain.Invalid("name", "no puede quedar vacío")
	}
	if in.Unit != nil && strings.TrimSpace(*in.Unit) == "" {
		return nil, domain.Invalid("unit", "no puede quedar vacío")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return nil, domain.Invalid("price", "no puede ser negativo")
	}
	if in.CentralQuantity != nil && *in.CentralQuantity < 0 {
		return nil, domain.Invalid("central_quantity", "no puede ser negativo")
	}

	var product *entity.Product
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		p, err := r.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.Missing("producto", id)
		}
		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.Category != nil {
			p.Category = normalizeCategory(*in.Category)
		}
		if in.Unit != nil {
			p.Unit = strings.TrimSpace(*in.Unit)
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if in.CentralQuantity != nil {
			p.CentralQuantity = *in.CentralQuantity
		}
		p.UpdatedAt = uc.opts.Now()
		product = p
		return r.Products.Update(ctx, p)
	})
	if err != nil {
		uc.conflict("update_product", err)
		return nil, err
	}
	uc.log.Info().Str("product_id", id).Msg("producto actualizado")
	return uc.toResponse(product), nil
}

// Replenish suma quantity al stock central del producto.
func (uc *CatalogUseCase) Replenish(ctx context.Context, id string, quantity int64) (*dto.ProductResponse, error) {
	if _, err := identity.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, domain.Invalid("quantity", "debe ser mayor que cero")
	}
	var product *entity.Product
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		p, err := r.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.Missing("producto", id)
		}
		sum, ok := inventory.AddQuantity(p.CentralQuantity, quantity)
		if !ok {
			return domain.Invalid("quantity", "el stock central excedería el máximo representable")
		}
		p.CentralQuantity = sum
		p.UpdatedAt = uc.opts.Now()
		product = p
		return r.Products.Update(ctx, p)
	})
	if err != nil {
		uc.conflict("replenish", err)
		return nil, err
	}
	uc.log.Info().
		Str("product_id", id).
		Int64("quantity", quantity).
		Int64("central_quantity", product.CentralQuantity).
		Msg("stock central repuesto")
	return uc.toResponse(product), nil
}

// DeleteProduct elimina el producto y todas sus líneas de stock en sucursales.
// Las ventas históricas conservan el nombre del producto y no se tocan.
func (uc *CatalogUseCase) DeleteProduct(ctx context.Context, id string) error {
	if _, err := identity.RequireAdmin(ctx); err != nil {
		return err
	}
	var removed int
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		p, err := r.Products.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.Missing("producto", id)
		}
		lines, err := r.BranchStock.ListByProduct(ctx, id)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if err := r.BranchStock.Delete(ctx, l.ID); err != nil {
				return err
			}
		}
		removed = len(lines)
		return r.Products.Delete(ctx, id)
	})
	if err != nil {
		uc.conflict("delete_product", err)
		return err
	}
	uc.log.Info().Str("product_id", id).Int("stock_lines", removed).Msg("producto eliminado")
	return nil
}

// GetProduct obtiene un producto por ID.
func (uc *CatalogUseCase) GetProduct(ctx context.Context, id string) (*dto.ProductResponse, error) {
	p, err := uc.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.Missing("producto", id)
	}
	return uc.toResponse(p), nil
}

// ListProducts lista el catálogo ordenado por número de serie.
func (uc *CatalogUseCase) ListProducts(ctx context.Context) (*dto.ProductListResponse, error) {
	return uc.SearchProducts(ctx, "")
}

// SearchProducts filtra por nombre, categoría o serial sin distinguir mayúsculas. q vacío lista todo.
func (uc *CatalogUseCase) SearchProducts(ctx context.Context, q string) (*dto.ProductListResponse, error) {
	list, err := uc.products.List(ctx)
	if err != nil {
		return nil, err
	}
	SortBySerial(list)

	needle := fold(q)
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		if needle != "" &&
			!strings.Contains(fold(p.Name), needle) &&
			!strings.Contains(fold(p.Category), needle) &&
			!strings.Contains(p.SerialNumber, needle) {
			continue
		}
		items = append(items, *uc.toResponse(p))
	}
	return &dto.ProductListResponse{Items: items, Total: len(items)}, nil
}

// SortBySerial ordena por valor numérico del serial; los no numéricos van al final por texto.
func SortBySerial(list []*entity.Product) {
	sort.SliceStable(list, func(i, j int) bool {
		a, okA := inventory.ParseSerial(list[i].SerialNumber)
		b, okB := inventory.ParseSerial(list[j].SerialNumber)
		switch {
		case okA && okB && a != b:
			return a < b
		case okA != okB:
			return okA
		default:
			return list[i].SerialNumber < list[j].SerialNumber
		}
	})
}

func (uc *CatalogUseCase) conflict(op string, err error) {
	if errors.Is(err, domain.ErrConflict) {
		uc.metrics.AtomicConflict(op)
		uc.log.Warn().Str("operation", op).Err(err).Msg("conflicto de concurrencia")
	}
}

func (uc *CatalogUseCase) toResponse(p *entity.Product) *dto.ProductResponse {
	return ToProductResponse(p, uc.opts.LowStockThreshold)
}

// ToProductResponse convierte la entidad al DTO marcando stock bajo según threshold.
func ToProductResponse(p *entity.Product, threshold int64) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:              p.ID,
		SerialNumber:    p.SerialNumber,
		Name:            p.Name,
		Category:        p.Category,
		Unit:            p.Unit,
		Price:           p.Price,
		CentralQuantity: p.CentralQuantity,
		LowStock:        p.LowStock(threshold),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
