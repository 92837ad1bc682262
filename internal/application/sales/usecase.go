// Package sales registra ventas: descuenta stock de sucursal y central, agrega los registros
// de venta y actualiza el acumulado mensual, todo como una sola unidad atómica.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/application/ports"
	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/inventory"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

// Options parámetros del registro de ventas.
type Options struct {
	// Now define el reloj del que sale la fecha de venta y el período del acumulado.
	Now func() time.Time
	// Location zona en la que se calcula el mes calendario. nil = UTC.
	Location *time.Location
}

// SaleUseCase es el único escritor de Sale y MonthlySales.
type SaleUseCase struct {
	txRunner ports.TxRunner
	sales    repository.SaleRepository
	metrics  ports.LedgerMetrics
	log      *logger.Logger
	opts     Options
}

// NewSaleUseCase construye el caso de uso.
func NewSaleUseCase(
	txRunner ports.TxRunner,
	sales repository.SaleRepository,
	metrics ports.LedgerMetrics,
	log *logger.Logger,
	opts Options,
) *SaleUseCase {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &SaleUseCase{
		txRunner: txRunner,
		sales:    sales,
		metrics:  metrics,
		log:      log.Component("sales"),
		opts:     opts,
	}
}

// RecordSale registra una venta de varios ítems en la sucursal.
//
// El lote completo es atómico: si un ítem no tiene stock suficiente (en la sucursal o en la
// bodega central) no se escribe nada. Ítems repetidos del mismo producto se acumulan contra
// la misma línea. El período del acumulado se toma del reloj al momento de registrar.
func (uc *SaleUseCase) RecordSale(ctx context.Context, branchID string, items []dto.SaleItemRequest) (*dto.RecordSaleResponse, error) {
	if _, err := identity.RequireBranch(ctx, branchID); err != nil {
		uc.reject(branchID, err)
		return nil, err
	}
	if err := validateItems(items); err != nil {
		uc.reject(branchID, err)
		return nil, err
	}

	now := uc.opts.Now().In(uc.opts.Location)
	period := inventory.PeriodOf(now)
	createdBy := identity.CreatedBy(ctx)

	var out dto.RecordSaleResponse
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		out = dto.RecordSaleResponse{Month: period.Month, Year: period.Year, TotalAmount: decimal.Zero}

		// 1. Lecturas: sucursal, productos, líneas y acumulado.
		branch, err := r.Branches.GetByID(ctx, branchID)
		if err != nil {
			return err
		}
		if branch == nil {
			return domain.Missing("sucursal", branchID)
		}
		products := make(map[string]*entity.Product)
		lines := make(map[string]*entity.BranchStock)
		for _, it := range items {
			if _, loaded := products[it.ProductID]; loaded {
				continue
			}
			p, err := r.Products.GetByID(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if p == nil {
				return domain.Missing("producto", it.ProductID)
			}
			line, err := r.BranchStock.Get(ctx, it.ProductID, branchID)
			if err != nil {
				return err
			}
			if line == nil {
				return domain.Missing("línea de stock", entity.BranchStockID(it.ProductID, branchID))
			}
			products[it.ProductID] = p
			lines[it.ProductID] = line
		}
		monthly, err := r.MonthlySales.Get(ctx, branchID, period.Year, period.Month)
		if err != nil {
			return err
		}
		if monthly == nil {
			monthly = entity.NewMonthlySales(branchID, branch.Name, period.Year, period.Month)
		}
		if monthly.IsClosed {
			return fmt.Errorf("%s %04d-%02d: %w", branch.Name, period.Year, period.Month, domain.ErrPeriodClosed)
		}
		monthly.BranchName = branch.Name

		// 2. Validación en orden, descontando sobre copias en memoria.
		sales := make([]*entity.Sale, 0, len(items))
		for _, it := range items {
			p, line := products[it.ProductID], lines[it.ProductID]
			if line.Quantity < it.Quantity {
				return &domain.StockError{
					ProductID: p.ID, ProductName: p.Name, Location: branchID,
					Requested: it.Quantity, Available: line.Quantity,
				}
			}
			if p.CentralQuantity < it.Quantity {
				return &domain.StockError{
					ProductID: p.ID, ProductName: p.Name, Location: domain.LocationCentral,
					Requested: it.Quantity, Available: p.CentralQuantity,
				}
			}
			line.Quantity -= it.Quantity
			p.CentralQuantity -= it.Quantity

			amount := p.Price.Mul(decimal.NewFromInt(it.Quantity))
			if !monthly.AddSale(amount) {
				return domain.ErrPeriodClosed
			}
			out.TotalAmount = out.TotalAmount.Add(amount)
			sales = append(sales, &entity.Sale{
				BranchID:    branchID,
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    it.Quantity,
				UnitPrice:   p.Price,
				Amount:      amount,
				SaleDate:    now,
				CreatedBy:   createdBy,
			})
		}

		// 3. Escrituras: se aplican todas o ninguna al cerrar la unidad.
		for _, s := range sales {
			if err := r.Sales.Create(ctx, s); err != nil {
				return err
			}
		}
		for id, line := range lines {
			line.UpdatedAt = now
			if err := r.BranchStock.Upsert(ctx, line); err != nil {
				return err
			}
			p := products[id]
			p.UpdatedAt = now
			if err := r.Products.Update(ctx, p); err != nil {
				return err
			}
		}
		if err := r.MonthlySales.Upsert(ctx, monthly); err != nil {
			return err
		}

		out.Sales = make([]dto.SaleResponse, 0, len(sales))
		for _, s := range sales {
			out.Sales = append(out.Sales, ToSaleResponse(s))
		}
		return nil
	})
	if err != nil {
		uc.reject(branchID, err)
		return nil, err
	}

	uc.metrics.SaleRecorded(branchID, len(out.Sales), out.TotalAmount)
	uc.log.Info().
		Str("branch_id", branchID).
		Int("items", len(out.Sales)).
		Str("amount", out.TotalAmount.StringFixed(2)).
		Str("created_by", createdBy).
		Msg("venta registrada")
	return &out, nil
}

// ListSales lista las ventas de la sucursal, más recientes primero, con paginación.
func (uc *SaleUseCase) ListSales(ctx context.Context, branchID string, page dto.PageRequest) (*dto.SaleListResponse, error) {
	if _, err := identity.RequireBranch(ctx, branchID); err != nil {
		return nil, err
	}
	page.DefaultPage()
	list, err := uc.sales.ListByBranch(ctx, branchID, nil, nil)
	if err != nil {
		return nil, err
	}
	total := len(list)
	start := min(page.Offset, total)
	end := min(start+page.Limit, total)

	items := make([]dto.SaleResponse, 0, end-start)
	for _, s := range list[start:end] {
		items = append(items, ToSaleResponse(s))
	}
	return &dto.SaleListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

func validateItems(items []dto.SaleItemRequest) error {
	if len(items) == 0 {
		return domain.Invalid("items", "la venta debe tener al menos un ítem")
	}
	for i, it := range items {
		if it.ProductID == "" {
			return domain.Invalid(fmt.Sprintf("items[%d].product_id", i), "es obligatorio")
		}
		if it.Quantity <= 0 {
			return domain.Invalid(fmt.Sprintf("items[%d].quantity", i), "debe ser mayor que cero")
		}
	}
	return nil
}

func (uc *SaleUseCase) reject(branchID string, err error) {
	reason := RejectReason(err)
	uc.metrics.SaleRejected(branchID, reason)
	if reason == "conflict" {
		uc.metrics.AtomicConflict("record_sale")
	}
	uc.log.Warn().Str("branch_id", branchID).Str("reason", reason).Err(err).Msg("venta rechazada")
}

// RejectReason clasifica el error para métricas y logs.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrPeriodClosed):
		return "period_closed"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUnauthorized):
		return "forbidden"
	case errors.Is(err, domain.ErrBackendUnavailable):
		return "backend"
	default:
		return "other"
	}
}

// ToSaleResponse convierte la entidad al DTO.
func ToSaleResponse(s *entity.Sale) dto.SaleResponse {
	return dto.SaleResponse{
		ID:          s.ID,
		BranchID:    s.BranchID,
		ProductID:   s.ProductID,
		ProductName: s.ProductName,
		Quantity:    s.Quantity,
		UnitPrice:   s.UnitPrice,
		Amount:      s.Amount,
		SaleDate:    s.SaleDate,
		CreatedBy:   s.CreatedBy,
	}
}
