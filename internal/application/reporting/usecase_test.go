package reporting_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/application/ports"
	"github.com/jhoicas/stock-sucursales/internal/application/reporting"
	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/docstore"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/memstore"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

var now = time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)

// csvRenderer es un renderizador mínimo para probar la selección por formato.
type csvRenderer struct{ got *dto.MonthlyReport }

func (r *csvRenderer) Format() string      { return "csv" }
func (r *csvRenderer) ContentType() string { return "text/csv" }
func (r *csvRenderer) Render(rep dto.MonthlyReport) ([]byte, error) {
	r.got = &rep
	return []byte("ok"), nil
}

type fixture struct {
	uc       *reporting.ReportingUseCase
	repos    ports.Repos
	renderer *csvRenderer
	b1, b2   *entity.Branch
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	t.Cleanup(func() { _ = store.Close() })
	repos := docstore.NewRepos(store)

	f := &fixture{repos: repos, renderer: &csvRenderer{}}
	f.b1 = &entity.Branch{Name: "Norte"}
	require.NoError(t, repos.Branches.Create(ctx, f.b1))
	f.b2 = &entity.Branch{Name: "Centro"}
	require.NoError(t, repos.Branches.Create(ctx, f.b2))

	f.uc = reporting.NewReportingUseCase(reporting.Deps{
		TxRunner:     docstore.NewTxRunner(store),
		Products:     repos.Products,
		Branches:     repos.Branches,
		BranchStock:  repos.BranchStock,
		Sales:        repos.Sales,
		MonthlySales: repos.MonthlySales,
	}, []ports.ReportRenderer{f.renderer}, logger.Nop(), reporting.Options{
		LowStockThreshold: 10,
		Now:               func() time.Time { return now },
	})
	return f
}

func adminCtx() context.Context {
	return identity.WithIdentity(context.Background(), identity.Identity{UserID: "admin", Role: entity.RoleAdmin})
}

func managerCtx(branchID string) context.Context {
	return identity.WithIdentity(context.Background(), identity.Identity{UserID: "m", Role: entity.RoleBranchManager, BranchID: branchID})
}

// ────────────────────────────────────────────────────────────────────────────
// LowStock
// ────────────────────────────────────────────────────────────────────────────

func TestLowStock_PorRol(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	low := &entity.Product{SerialNumber: "000001", Name: "Sal", CentralQuantity: 9}
	ok := &entity.Product{SerialNumber: "000002", Name: "Azúcar", CentralQuantity: 10}
	require.NoError(t, f.repos.Products.Create(ctx, low))
	require.NoError(t, f.repos.Products.Create(ctx, ok))
	require.NoError(t, f.repos.BranchStock.Upsert(ctx, &entity.BranchStock{ProductID: ok.ID, BranchID: f.b1.ID, Quantity: 3}))
	require.NoError(t, f.repos.BranchStock.Upsert(ctx, &entity.BranchStock{ProductID: low.ID, BranchID: f.b1.ID, Quantity: 30}))

	res, err := f.uc.LowStock(adminCtx())
	require.NoError(t, err)
	require.Len(t, res.Items, 1, "10 no está por debajo del umbral")
	assert.Equal(t, "Sal", res.Items[0].ProductName)
	assert.Empty(t, res.Items[0].BranchID)

	res, err = f.uc.LowStock(managerCtx(f.b1.ID))
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Azúcar", res.Items[0].ProductName)
	assert.Equal(t, int64(3), res.Items[0].Quantity)

	_, err = f.uc.LowStock(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// ────────────────────────────────────────────────────────────────────────────
// Acumulados y cierre
// ────────────────────────────────────────────────────────────────────────────

func TestGetMonthlySales_NilSinRegistro(t *testing.T) {
	f := setup(t)
	res, err := f.uc.GetMonthlySales(adminCtx(), f.b1.ID, 2026, 3)
	require.NoError(t, err)
	assert.Nil(t, res, "sin registro es nil, no cero")

	_, err = f.uc.GetMonthlySales(adminCtx(), f.b1.ID, 2026, 13)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.GetMonthlySales(managerCtx(f.b2.ID), f.b1.ID, 2026, 3)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestClosePeriod(t *testing.T) {
	f := setup(t)
	ctx := adminCtx()
	ms := entity.NewMonthlySales(f.b1.ID, "Norte", 2026, 3)
	ms.AddSale(decimal.NewFromInt(10))
	require.NoError(t, f.repos.MonthlySales.Upsert(context.Background(), ms))

	res, err := f.uc.ClosePeriod(ctx, f.b1.ID, 2026, 3)
	require.NoError(t, err)
	assert.True(t, res.IsClosed)
	require.NotNil(t, res.ClosedAt)
	assert.Equal(t, int64(1), res.SalesCount, "cerrar no altera los totales")

	_, err = f.uc.ClosePeriod(ctx, f.b1.ID, 2026, 3)
	assert.ErrorIs(t, err, domain.ErrPeriodClosed, "cerrado es terminal")
}

func TestClosePeriod_SinRegistroCreaCerrado(t *testing.T) {
	f := setup(t)
	res, err := f.uc.ClosePeriod(adminCtx(), f.b2.ID, 2026, 2)
	require.NoError(t, err)
	assert.True(t, res.IsClosed)
	assert.True(t, res.TotalAmount.IsZero())
	assert.Equal(t, "Centro", res.BranchName)

	_, err = f.uc.ClosePeriod(adminCtx(), "nope", 2026, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.ClosePeriod(managerCtx(f.b2.ID), f.b2.ID, 2026, 4)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestReconcileMonth(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	for _, amt := range []string{"2.50", "7.25"} {
		require.NoError(t, f.repos.Sales.Create(ctx, &entity.Sale{
			BranchID: f.b1.ID, Quantity: 1, Amount: decimal.RequireFromString(amt), SaleDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		}))
	}
	// Venta de otro mes: no cuenta.
	require.NoError(t, f.repos.Sales.Create(ctx, &entity.Sale{
		BranchID: f.b1.ID, Quantity: 1, Amount: decimal.NewFromInt(100), SaleDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}))
	ms := entity.NewMonthlySales(f.b1.ID, "Norte", 2026, 3)
	ms.AddSale(decimal.RequireFromString("2.50"))
	require.NoError(t, f.repos.MonthlySales.Upsert(ctx, ms))

	res, err := f.uc.ReconcileMonth(adminCtx(), f.b1.ID, 2026, 3)
	require.NoError(t, err)
	assert.True(t, res.HasAggregate)
	assert.False(t, res.InSync)
	assert.True(t, res.ComputedAmount.Equal(decimal.RequireFromString("9.75")))
	assert.Equal(t, int64(2), res.ComputedCount)

	ms.AddSale(decimal.RequireFromString("7.25"))
	require.NoError(t, f.repos.MonthlySales.Upsert(ctx, ms))
	res, err = f.uc.ReconcileMonth(adminCtx(), f.b1.ID, 2026, 3)
	require.NoError(t, err)
	assert.True(t, res.InSync)
}

// ────────────────────────────────────────────────────────────────────────────
// Exportación
// ────────────────────────────────────────────────────────────────────────────

func TestExportMonthly_UnaFilaPorSucursal(t *testing.T) {
	f := setup(t)
	ms := entity.NewMonthlySales(f.b1.ID, "viejo nombre", 2026, 3)
	ms.AddSale(decimal.NewFromInt(10))
	require.NoError(t, f.repos.MonthlySales.Upsert(context.Background(), ms))

	content, contentType, filename, err := f.uc.ExportMonthly(adminCtx(), 2026, 3, "CSV")
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), content)
	assert.Equal(t, "text/csv", contentType)
	assert.Equal(t, "ventas_2026_03.csv", filename)

	rep := f.renderer.got
	require.NotNil(t, rep)
	require.Len(t, rep.Rows, 2)
	assert.Equal(t, "Centro", rep.Rows[0].BranchName)
	assert.True(t, rep.Rows[0].TotalAmount.IsZero())
	assert.Equal(t, "Norte", rep.Rows[1].BranchName, "se usa el nombre actual de la sucursal")
	assert.True(t, rep.TotalAmount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, int64(1), rep.TotalCount)
}

func TestExportMonthly_FormatoDesconocido(t *testing.T) {
	f := setup(t)
	_, _, _, err := f.uc.ExportMonthly(adminCtx(), 2026, 3, "docx")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
