// Package ledger administra las líneas de stock por sucursal y las transferencias desde la bodega central.
package ledger

import (
	"context"
	"errors"
	"sort"
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

// Nombres mostrados en la disponibilidad alternativa.
const (
	CentralDisplayName = "Bodega central"
	UnknownBranchName  = "Sucursal desconocida"
)

// Options parámetros del ledger.
type Options struct {
	LowStockThreshold int64
	Now               func() time.Time
}

// LedgerUseCase es el único escritor de BranchStock fuera de la registración de ventas.
type LedgerUseCase struct {
	txRunner ports.TxRunner
	products repository.ProductRepository
	branches repository.BranchRepository
	stock    repository.BranchStockRepository
	metrics  ports.LedgerMetrics
	log      *logger.Logger
	opts     Options
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	txRunner ports.TxRunner,
	products repository.ProductRepository,
	branches repository.BranchRepository,
	stock repository.BranchStockRepository,
	metrics ports.LedgerMetrics,
	log *logger.Logger,
	opts Options,
) *LedgerUseCase {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &LedgerUseCase{
		txRunner: txRunner,
		products: products,
		branches: branches,
		stock:    stock,
		metrics:  metrics,
		log:      log.Component("ledger"),
		opts:     opts,
	}
}

// TransferStock asigna quantity del producto a la sucursal. Requiere stock central >= quantity,
// pero el stock central NO se descuenta: solo se descuenta al vender.
func (uc *LedgerUseCase) TransferStock(ctx context.Context, in dto.TransferRequest) (*dto.TransferResponse, error) {
	if _, err := identity.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	switch {
	case in.ProductID == "":
		return nil, domain.Invalid("product_id", "es obligatorio")
	case in.BranchID == "":
		return nil, domain.Invalid("branch_id", "es obligatorio")
	case in.Quantity <= 0:
		return nil, domain.Invalid("quantity", "debe ser mayor que cero")
	}

	var out dto.TransferResponse
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		product, err := r.Products.GetByID(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.Missing("producto", in.ProductID)
		}
		branch, err := r.Branches.GetByID(ctx, in.BranchID)
		if err != nil {
			return err
		}
		if branch == nil {
			return domain.Missing("sucursal", in.BranchID)
		}
		line, err := r.BranchStock.Get(ctx, in.ProductID, in.BranchID)
		if err != nil {
			return err
		}
		if product.CentralQuantity < in.Quantity {
			return &domain.StockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Location:    domain.LocationCentral,
				Requested:   in.Quantity,
				Available:   product.CentralQuantity,
			}
		}
		if line == nil {
			line = &entity.BranchStock{ProductID: in.ProductID, BranchID: in.BranchID}
		}
		sum, ok := inventory.AddQuantity(line.Quantity, in.Quantity)
		if !ok {
			return domain.Invalid("quantity", "el stock de la sucursal excedería el máximo representable")
		}
		line.Quantity = sum
		line.UpdatedAt = uc.opts.Now()
		out = dto.TransferResponse{
			ProductID:       product.ID,
			BranchID:        branch.ID,
			BranchQuantity:  line.Quantity,
			CentralQuantity: product.CentralQuantity,
		}
		return r.BranchStock.Upsert(ctx, line)
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			uc.metrics.AtomicConflict("transfer_stock")
		}
		uc.log.Warn().
			Str("product_id", in.ProductID).
			Str("branch_id", in.BranchID).
			Int64("quantity", in.Quantity).
			Err(err).
			Msg("transferencia rechazada")
		return nil, err
	}
	uc.metrics.StockTransferred(in.BranchID, in.Quantity)
	uc.log.Info().
		Str("product_id", in.ProductID).
		Str("branch_id", in.BranchID).
		Int64("quantity", in.Quantity).
		Int64("branch_quantity", out.BranchQuantity).
		Msg("stock transferido")
	return &out, nil
}

// IsLow indica si la cantidad está por debajo del umbral de stock bajo.
func (uc *LedgerUseCase) IsLow(qty int64) bool {
	return qty < uc.opts.LowStockThreshold
}

// GetBranchStock devuelve la cantidad del producto en la sucursal; 0 si no hay línea.
func (uc *LedgerUseCase) GetBranchStock(ctx context.Context, productID, branchID string) (int64, error) {
	line, err := uc.stock.Get(ctx, productID, branchID)
	if err != nil {
		return 0, err
	}
	if line == nil {
		return 0, nil
	}
	return line.Quantity, nil
}

// ListBranchStock lista las líneas de la sucursal con nombre de producto, ordenadas por nombre.
func (uc *LedgerUseCase) ListBranchStock(ctx context.Context, branchID string) ([]dto.BranchStockResponse, error) {
	branch, err := uc.branches.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}
	if branch == nil {
		return nil, domain.Missing("sucursal", branchID)
	}
	lines, err := uc.stock.ListByBranch(ctx, branchID)
	if err != nil {
		return nil, err
	}
	names, err := uc.productNames(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BranchStockResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.BranchStockResponse{
			ProductID:   l.ProductID,
			ProductName: names[l.ProductID],
			BranchID:    l.BranchID,
			Quantity:    l.Quantity,
			LowStock:    l.Quantity < uc.opts.LowStockThreshold,
			UpdatedAt:   l.UpdatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProductName < out[j].ProductName })
	return out, nil
}

// ListAlternateAvailability muestra dónde más hay stock del producto para redirigir a un cliente:
// primero la bodega central y luego las demás sucursales con stock, excluyendo excludeBranchID.
func (uc *LedgerUseCase) ListAlternateAvailability(ctx context.Context, productID, excludeBranchID string) (*dto.AvailabilityResponse, error) {
	product, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.Missing("producto", productID)
	}
	lines, err := uc.stock.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	branches, err := uc.branches.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(branches))
	for _, b := range branches {
		names[b.ID] = b.Name
	}

	out := &dto.AvailabilityResponse{
		ProductID:   product.ID,
		ProductName: product.Name,
		Locations: []dto.AvailabilityEntry{{
			LocationID:  domain.LocationCentral,
			DisplayName: CentralDisplayName,
			Quantity:    product.CentralQuantity,
		}},
	}
	others := make([]dto.AvailabilityEntry, 0, len(lines))
	for _, l := range lines {
		if l.BranchID == excludeBranchID || l.Quantity <= 0 {
			continue
		}
		name, ok := names[l.BranchID]
		if !ok {
			name = UnknownBranchName
		}
		others = append(others, dto.AvailabilityEntry{LocationID: l.BranchID, DisplayName: name, Quantity: l.Quantity})
	}
	sort.SliceStable(others, func(i, j int) bool { return others[i].Quantity > others[j].Quantity })
	out.Locations = append(out.Locations, others...)
	return out, nil
}

func (uc *LedgerUseCase) productNames(ctx context.Context) (map[string]string, error) {
	products, err := uc.products.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names, nil
}
