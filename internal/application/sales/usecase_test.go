package sales_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/application/ports"
	"github.com/jhoicas/stock-sucursales/internal/application/sales"
	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/docstore"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/memstore"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

var march = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	uc     *sales.SaleUseCase
	repos  ports.Repos
	milk   *entity.Product
	bread  *entity.Product
	branch *entity.Branch
	now    time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	t.Cleanup(func() { _ = store.Close() })
	repos := docstore.NewRepos(store)

	f := &fixture{repos: repos, now: march}
	f.milk = &entity.Product{SerialNumber: "000001", Name: "Milk", Unit: "L", Price: decimal.RequireFromString("2.50"), CentralQuantity: 100}
	require.NoError(t, repos.Products.Create(ctx, f.milk))
	f.bread = &entity.Product{SerialNumber: "000002", Name: "Bread", Unit: "und", Price: decimal.RequireFromString("1.10"), CentralQuantity: 50}
	require.NoError(t, repos.Products.Create(ctx, f.bread))
	f.branch = &entity.Branch{Name: "Branch-1"}
	require.NoError(t, repos.Branches.Create(ctx, f.branch))
	require.NoError(t, repos.BranchStock.Upsert(ctx, &entity.BranchStock{ProductID: f.milk.ID, BranchID: f.branch.ID, Quantity: 20}))
	require.NoError(t, repos.BranchStock.Upsert(ctx, &entity.BranchStock{ProductID: f.bread.ID, BranchID: f.branch.ID, Quantity: 2}))

	f.uc = sales.NewSaleUseCase(docstore.NewTxRunner(store), repos.Sales, nil, logger.Nop(),
		sales.Options{Now: func() time.Time { return f.now }})
	return f
}

func managerCtx(branchID string) context.Context {
	return identity.WithIdentity(context.Background(), identity.Identity{
		UserID: "mgr-1", Role: entity.RoleBranchManager, BranchID: branchID,
	})
}

func (f *fixture) branchQty(t *testing.T, productID string) int64 {
	t.Helper()
	l, err := f.repos.BranchStock.Get(context.Background(), productID, f.branch.ID)
	require.NoError(t, err)
	require.NotNil(t, l)
	return l.Quantity
}

func (f *fixture) centralQty(t *testing.T, productID string) int64 {
	t.Helper()
	p, err := f.repos.Products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.CentralQuantity
}

// ────────────────────────────────────────────────────────────────────────────
// RecordSale
// ────────────────────────────────────────────────────────────────────────────

func TestRecordSale_Escenario(t *testing.T) {
	f := setup(t)
	ctx := managerCtx(f.branch.ID)

	res, err := f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{{ProductID: f.milk.ID, Quantity: 5}})
	require.NoError(t, err)
	require.Len(t, res.Sales, 1)
	assert.True(t, res.Sales[0].Amount.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, "Milk", res.Sales[0].ProductName)
	assert.Equal(t, "mgr-1", res.Sales[0].CreatedBy)
	assert.NotEmpty(t, res.Sales[0].ID)

	assert.Equal(t, int64(15), f.branchQty(t, f.milk.ID))
	assert.Equal(t, int64(95), f.centralQty(t, f.milk.ID))

	ms, err := f.repos.MonthlySales.Get(context.Background(), f.branch.ID, 2026, 3)
	require.NoError(t, err)
	require.NotNil(t, ms)
	assert.True(t, ms.TotalAmount.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, int64(1), ms.SalesCount)
	assert.Equal(t, "Branch-1", ms.BranchName)
	assert.False(t, ms.IsClosed)
}

func TestRecordSale_InsuficienteNoMuta(t *testing.T) {
	f := setup(t)
	ctx := managerCtx(f.branch.ID)
	_, err := f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{{ProductID: f.milk.ID, Quantity: 5}})
	require.NoError(t, err)

	_, err = f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{{ProductID: f.milk.ID, Quantity: 999}})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Milk", "el error nombra el producto")

	assert.Equal(t, int64(15), f.branchQty(t, f.milk.ID))
	assert.Equal(t, int64(95), f.centralQty(t, f.milk.ID))
	list, err := f.repos.Sales.ListByBranch(context.Background(), f.branch.ID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// Un lote de dos ítems donde el segundo falla no deja rastro del primero.
func TestRecordSale_LoteAtomico(t *testing.T) {
	f := setup(t)
	ctx := managerCtx(f.branch.ID)

	_, err := f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{
		{ProductID: f.milk.ID, Quantity: 3},
		{ProductID: f.bread.ID, Quantity: 5}, // solo hay 2
	})
	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, f.bread.ID, se.ProductID)

	assert.Equal(t, int64(20), f.branchQty(t, f.milk.ID), "el ítem 1 no debe descontarse")
	assert.Equal(t, int64(100), f.centralQty(t, f.milk.ID))
	list, err := f.repos.Sales.ListByBranch(context.Background(), f.branch.ID, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, list, "no debe persistir ninguna venta")
	ms, err := f.repos.MonthlySales.Get(context.Background(), f.branch.ID, 2026, 3)
	require.NoError(t, err)
	assert.Nil(t, ms)
}

func TestRecordSale_ItemsRepetidosSeAcumulan(t *testing.T) {
	f := setup(t)
	ctx := managerCtx(f.branch.ID)

	_, err := f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{
		{ProductID: f.bread.ID, Quantity: 1},
		{ProductID: f.bread.ID, Quantity: 2}, // 1 + 2 > 2
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(2), f.branchQty(t, f.bread.ID))

	res, err := f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{
		{ProductID: f.bread.ID, Quantity: 1},
		{ProductID: f.bread.ID, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Len(t, res.Sales, 2)
	assert.Zero(t, f.branchQty(t, f.bread.ID))
	assert.Equal(t, int64(48), f.centralQty(t, f.bread.ID))
}

func TestRecordSale_AcumuladoMensualSuma(t *testing.T) {
	f := setup(t)
	ctx := managerCtx(f.branch.ID)

	a, err := f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{{ProductID: f.bread.ID, Quantity: 1}})
	require.NoError(t, err)
	b, err := f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{{ProductID: f.milk.ID, Quantity: 2}})
	require.NoError(t, err)

	ms, err := f.repos.MonthlySales.Get(context.Background(), f.branch.ID, 2026, 3)
	require.NoError(t, err)
	assert.True(t, ms.TotalAmount.Equal(a.TotalAmount.Add(b.TotalAmount)))
	assert.Equal(t, int64(2), ms.SalesCount)
}

func TestRecordSale_PeriodoPorRelojDeRegistro(t *testing.T) {
	f := setup(t)
	ctx := managerCtx(f.branch.ID)

	f.now = time.Date(2026, 4, 1, 0, 0, 1, 0, time.UTC)
	_, err := f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{{ProductID: f.milk.ID, Quantity: 1}})
	require.NoError(t, err)

	ms, err := f.repos.MonthlySales.Get(context.Background(), f.branch.ID, 2026, 4)
	require.NoError(t, err)
	require.NotNil(t, ms)
	prev, err := f.repos.MonthlySales.Get(context.Background(), f.branch.ID, 2026, 3)
	require.NoError(t, err)
	assert.Nil(t, prev)
}

func TestRecordSale_PeriodoCerrado(t *testing.T) {
	f := setup(t)
	ctx := managerCtx(f.branch.ID)
	closed := entity.NewMonthlySales(f.branch.ID, "Branch-1", 2026, 3)
	closed.Close(march)
	require.NoError(t, f.repos.MonthlySales.Upsert(context.Background(), closed))

	_, err := f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{{ProductID: f.milk.ID, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrPeriodClosed)
	assert.Equal(t, int64(20), f.branchQty(t, f.milk.ID))
}

func TestRecordSale_Errores(t *testing.T) {
	f := setup(t)
	ctx := managerCtx(f.branch.ID)

	_, err := f.uc.RecordSale(ctx, f.branch.ID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{{ProductID: f.milk.ID, Quantity: 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{{ProductID: "nope", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Producto sin línea en la sucursal.
	other := &entity.Product{SerialNumber: "000003", Name: "Eggs", Unit: "und", Price: decimal.NewFromInt(1), CentralQuantity: 5}
	require.NoError(t, f.repos.Products.Create(context.Background(), other))
	_, err = f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{{ProductID: other.ID, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.RecordSale(managerCtx("otra"), f.branch.ID, []dto.SaleItemRequest{{ProductID: f.milk.ID, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrForbidden, "un encargado solo vende en su sucursal")
}

func TestRecordSale_StockCentralInsuficiente(t *testing.T) {
	f := setup(t)
	ctx := managerCtx(f.branch.ID)
	f.milk.CentralQuantity = 3
	require.NoError(t, f.repos.Products.Update(context.Background(), f.milk))

	_, err := f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{{ProductID: f.milk.ID, Quantity: 5}})
	var se *domain.StockError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.LocationCentral, se.Location)
	assert.Equal(t, int64(3), f.centralQty(t, f.milk.ID))
}

// Ventas concurrentes sobre la misma línea: nunca se vende más de lo que hay.
func TestRecordSale_Concurrentes(t *testing.T) {
	f := setup(t)
	ctx := managerCtx(f.branch.ID)

	var ok int64
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{{ProductID: f.milk.ID, Quantity: 1}})
			if err == nil {
				atomic.AddInt64(&ok, 1)
				return
			}
			assert.Condition(t, func() bool {
				return sales.RejectReason(err) == "conflict" || sales.RejectReason(err) == "insufficient_stock"
			})
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, f.branchQty(t, f.milk.ID), int64(0))
	assert.Equal(t, int64(20)-ok, f.branchQty(t, f.milk.ID))
	assert.Equal(t, int64(100)-ok, f.centralQty(t, f.milk.ID))

	ms, err := f.repos.MonthlySales.Get(context.Background(), f.branch.ID, 2026, 3)
	require.NoError(t, err)
	if ok > 0 {
		assert.Equal(t, ok, ms.SalesCount, "el acumulado cuenta exactamente las ventas confirmadas")
	}
}

// ────────────────────────────────────────────────────────────────────────────
// ListSales
// ────────────────────────────────────────────────────────────────────────────

func TestListSales_RecientesPrimeroYPaginado(t *testing.T) {
	f := setup(t)
	ctx := managerCtx(f.branch.ID)
	for i := 0; i < 3; i++ {
		f.now = march.Add(time.Duration(i) * time.Hour)
		_, err := f.uc.RecordSale(ctx, f.branch.ID, []dto.SaleItemRequest{{ProductID: f.milk.ID, Quantity: int64(i + 1)}})
		require.NoError(t, err)
	}

	res, err := f.uc.ListSales(ctx, f.branch.ID, dto.PageRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, 3, res.Page.Total)
	assert.Equal(t, int64(3), res.Items[0].Quantity, "la más reciente primero")

	res, err = f.uc.ListSales(ctx, f.branch.ID, dto.PageRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(1), res.Items[0].Quantity)

	res, err = f.uc.ListSales(ctx, f.branch.ID, dto.PageRequest{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestRejectReason(t *testing.T) {
	assert.Equal(t, "period_closed", sales.RejectReason(domain.ErrPeriodClosed))
	assert.Equal(t, "insufficient_stock", sales.RejectReason(&domain.StockError{}))
	assert.Equal(t, "other", sales.RejectReason(assert.AnError))
}
