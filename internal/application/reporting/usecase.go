// Package reporting deriva vistas de solo lectura del ledger: stock bajo, acumulados mensuales,
// conciliación contra las ventas y exportación del reporte mensual. Además cierra períodos.
package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-sucursales/internal/application/catalog"
	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/application/ports"
	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/inventory"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

// Options parámetros de reportes.
type Options struct {
	LowStockThreshold int64
	Now               func() time.Time
	Location          *time.Location
}

// Deps repositorios consultados por los reportes. Summer es opcional.
type Deps struct {
	TxRunner     ports.TxRunner
	Products     repository.ProductRepository
	Branches     repository.BranchRepository
	BranchStock  repository.BranchStockRepository
	Sales        repository.SaleRepository
	MonthlySales repository.MonthlySalesRepository
	Summer       repository.SalesSummer
}

// ReportingUseCase casos de uso de reportes.
type ReportingUseCase struct {
	deps      Deps
	renderers map[string]ports.ReportRenderer
	log       *logger.Logger
	opts      Options
}

// NewReportingUseCase construye el caso de uso con los renderizadores disponibles.
func NewReportingUseCase(deps Deps, renderers []ports.ReportRenderer, log *logger.Logger, opts Options) *ReportingUseCase {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	byFormat := make(map[string]ports.ReportRenderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Format()] = r
	}
	return &ReportingUseCase{deps: deps, renderers: byFormat, log: log.Component("reporting"), opts: opts}
}

// LowStock devuelve lo que está por debajo del umbral según el rol: los admin ven el stock central,
// los encargados las líneas de su sucursal.
func (uc *ReportingUseCase) LowStock(ctx context.Context) (*dto.LowStockResponse, error) {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	out := &dto.LowStockResponse{Threshold: uc.opts.LowStockThreshold, Items: []dto.LowStockItem{}}

	products, err := uc.deps.Products.List(ctx)
	if err != nil {
		return nil, err
	}
	catalog.SortBySerial(products)

	if id.IsAdmin() {
		for _, p := range products {
			if p.LowStock(uc.opts.LowStockThreshold) {
				out.Items = append(out.Items, dto.LowStockItem{
					ProductID: p.ID, SerialNumber: p.SerialNumber, ProductName: p.Name, Quantity: p.CentralQuantity,
				})
			}
		}
		return out, nil
	}
	if id.BranchID == "" {
		return out, nil
	}

	lines, err := uc.deps.BranchStock.ListByBranch(ctx, id.BranchID)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[string]*entity.BranchStock, len(lines))
	for _, l := range lines {
		byProduct[l.ProductID] = l
	}
	for _, p := range products {
		l, ok := byProduct[p.ID]
		if !ok || l.Quantity >= uc.opts.LowStockThreshold {
			continue
		}
		out.Items = append(out.Items, dto.LowStockItem{
			ProductID: p.ID, SerialNumber: p.SerialNumber, ProductName: p.Name, BranchID: id.BranchID, Quantity: l.Quantity,
		})
	}
	return out, nil
}

// GetMonthlySales devuelve el acumulado del período o nil si no existe (no cero).
func (uc *ReportingUseCase) GetMonthlySales(ctx context.Context, branchID string, year, month int) (*dto.MonthlySalesResponse, error) {
	if _, err := identity.RequireBranch(ctx, branchID); err != nil {
		return nil, err
	}
	if err := validPeriod(year, month); err != nil {
		return nil, err
	}
	ms, err := uc.deps.MonthlySales.Get(ctx, branchID, year, month)
	if err != nil {
		return nil, err
	}
	if ms == nil {
		return nil, nil
	}
	res := ToMonthlySalesResponse(ms)
	return &res, nil
}

// ClosePeriod cierra el acumulado (abierto → cerrado, terminal). Si no existía se crea cerrado y vacío.
// Cerrar un período ya cerrado retorna ErrPeriodClosed.
func (uc *ReportingUseCase) ClosePeriod(ctx context.Context, branchID string, year, month int) (*dto.MonthlySalesResponse, error) {
	if _, err := identity.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := validPeriod(year, month); err != nil {
		return nil, err
	}
	var out *entity.MonthlySales
	err := uc.deps.TxRunner.Run(ctx, func(r ports.Repos) error {
		branch, err := r.Branches.GetByID(ctx, branchID)
		if err != nil {
			return err
		}
		if branch == nil {
			return domain.Missing("sucursal", branchID)
		}
		ms, err := r.MonthlySales.Get(ctx, branchID, year, month)
		if err != nil {
			return err
		}
		if ms == nil {
			ms = entity.NewMonthlySales(branchID, branch.Name, year, month)
		}
		if !ms.Close(uc.opts.Now().UTC()) {
			return fmt.Errorf("%s %04d-%02d: %w", branch.Name, year, month, domain.ErrPeriodClosed)
		}
		out = ms
		return r.MonthlySales.Upsert(ctx, ms)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("branch_id", branchID).Int("year", year).Int("month", month).Msg("período cerrado")
	res := ToMonthlySalesResponse(out)
	return &res, nil
}

// CurrentPeriod devuelve el mes que contiene t en la zona de los acumulados.
func (uc *ReportingUseCase) CurrentPeriod(t time.Time) inventory.Period {
	return inventory.PeriodOf(t.In(uc.opts.Location))
}

// ReconcileMonth recalcula total y cantidad desde los registros de venta y los compara con el acumulado.
func (uc *ReportingUseCase) ReconcileMonth(ctx context.Context, branchID string, year, month int) (*dto.ReconcileResponse, error) {
	if _, err := identity.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := validPeriod(year, month); err != nil {
		return nil, err
	}
	ms, err := uc.deps.MonthlySales.Get(ctx, branchID, year, month)
	if err != nil {
		return nil, err
	}
	from, to := inventory.Period{Year: year, Month: month}.Bounds(uc.opts.Location)

	var total decimal.Decimal
	var count int64
	if uc.deps.Summer != nil {
		total, count, err = uc.deps.Summer.SumSales(ctx, branchID, from, to)
		if err != nil {
			return nil, err
		}
	} else {
		list, err := uc.deps.Sales.ListByBranch(ctx, branchID, &from, &to)
		if err != nil {
			return nil, err
		}
		for _, s := range list {
			total = total.Add(s.Amount)
		}
		count = int64(len(list))
	}

	out := &dto.ReconcileResponse{
		BranchID:       branchID,
		Month:          month,
		Year:           year,
		RecordedAmount: decimal.Zero,
		ComputedAmount: total,
		ComputedCount:  count,
	}
	if ms != nil {
		out.HasAggregate = true
		out.RecordedAmount = ms.TotalAmount
		out.RecordedCount = ms.SalesCount
	}
	out.InSync = out.RecordedAmount.Equal(out.ComputedAmount) && out.RecordedCount == out.ComputedCount
	if !out.InSync {
		uc.log.Warn().
			Str("branch_id", branchID).
			Str("recorded", out.RecordedAmount.String()).
			Str("computed", out.ComputedAmount.String()).
			Msg("acumulado mensual desalineado")
	}
	return out, nil
}

// MonthlyReport arma el reporte del período con una fila por sucursal (las que no vendieron van en cero).
func (uc *ReportingUseCase) MonthlyReport(ctx context.Context, year, month int) (*dto.MonthlyReport, error) {
	if _, err := identity.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := validPeriod(year, month); err != nil {
		return nil, err
	}
	aggregates, err := uc.deps.MonthlySales.ListByPeriod(ctx, year, month)
	if err != nil {
		return nil, err
	}
	branches, err := uc.deps.Branches.List(ctx)
	if err != nil {
		return nil, err
	}
	byBranch := make(map[string]*entity.MonthlySales, len(aggregates))
	for _, a := range aggregates {
		byBranch[a.BranchID] = a
	}
	for _, b := range branches {
		if a, ok := byBranch[b.ID]; ok {
			a.BranchName = b.Name
			continue
		}
		byBranch[b.ID] = entity.NewMonthlySales(b.ID, b.Name, year, month)
	}

	report := &dto.MonthlyReport{
		Year:        year,
		Month:       month,
		GeneratedAt: uc.opts.Now().In(uc.opts.Location),
		TotalAmount: decimal.Zero,
	}
	for _, ms := range byBranch {
		report.Rows = append(report.Rows, ToMonthlySalesResponse(ms))
		report.TotalAmount = report.TotalAmount.Add(ms.TotalAmount)
		report.TotalCount += ms.SalesCount
	}
	sort.SliceStable(report.Rows, func(i, j int) bool { return report.Rows[i].BranchName < report.Rows[j].BranchName })
	return report, nil
}

// ExportMonthly genera el reporte mensual en el formato pedido. Retorna el contenido, su content type
// y un nombre de archivo sugerido.
func (uc *ReportingUseCase) ExportMonthly(ctx context.Context, year, month int, format string) ([]byte, string, string, error) {
	renderer, ok := uc.renderers[strings.ToLower(format)]
	if !ok {
		return nil, "", "", domain.Invalid("format", fmt.Sprintf("formato %q no soportado", format))
	}
	report, err := uc.MonthlyReport(ctx, year, month)
	if err != nil {
		return nil, "", "", err
	}
	content, err := renderer.Render(*report)
	if err != nil {
		return nil, "", "", fmt.Errorf("generar reporte %s: %w", renderer.Format(), err)
	}
	filename := fmt.Sprintf("ventas_%04d_%02d.%s", year, month, renderer.Format())
	uc.log.Info().Int("year", year).Int("month", month).Str("format", renderer.Format()).Int("bytes", len(content)).Msg("reporte exportado")
	return content, renderer.ContentType(), filename, nil
}

func validPeriod(year, month int) error {
	if !(inventory.Period{Year: year, Month: month}).Valid() {
		return domain.Invalid("month", "período inválido")
	}
	return nil
}

// ToMonthlySalesResponse convierte la entidad al DTO.
func ToMonthlySalesResponse(ms *entity.MonthlySales) dto.MonthlySalesResponse {
	return dto.MonthlySalesResponse{
		ID:          ms.ID,
		BranchID:    ms.BranchID,
		BranchName:  ms.BranchName,
		Month:       ms.Month,
		Year:        ms.Year,
		TotalAmount: ms.TotalAmount,
		SalesCount:  ms.SalesCount,
		IsClosed:    ms.IsClosed,
		ClosedAt:    ms.ClosedAt,
	}
}
