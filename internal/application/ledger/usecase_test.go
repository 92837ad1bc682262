package ledger_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/application/ledger"
	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/docstore"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/memstore"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

type fixture struct {
	uc       *ledger.LedgerUseCase
	store    *memstore.Store
	product  *entity.Product
	branch   *entity.Branch
	branch2  *entity.Branch
	products *docstore.ProductRepository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	t.Cleanup(func() { _ = store.Close() })

	products := docstore.NewProductRepository(store)
	branches := docstore.NewBranchRepository(store)
	stock := docstore.NewBranchStockRepository(store)

	p := &entity.Product{SerialNumber: "000001", Name: "Milk", Unit: "L", Price: decimal.RequireFromString("2.50"), CentralQuantity: 100}
	require.NoError(t, products.Create(ctx, p))
	b1 := &entity.Branch{Name: "Branch-1"}
	require.NoError(t, branches.Create(ctx, b1))
	b2 := &entity.Branch{Name: "Branch-2"}
	require.NoError(t, branches.Create(ctx, b2))

	uc := ledger.NewLedgerUseCase(docstore.NewTxRunner(store), products, branches, stock, nil, logger.Nop(),
		ledger.Options{LowStockThreshold: 10, Now: func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }})
	return &fixture{uc: uc, store: store, product: p, branch: b1, branch2: b2, products: products}
}

func adminCtx() context.Context {
	return identity.WithIdentity(context.Background(), identity.Identity{UserID: "admin", Role: entity.RoleAdmin})
}

// ────────────────────────────────────────────────────────────────────────────
// TransferStock
// ────────────────────────────────────────────────────────────────────────────

func TestTransferStock_CentralSinCambios(t *testing.T) {
	f := setup(t)
	ctx := adminCtx()

	res, err := f.uc.TransferStock(ctx, dto.TransferRequest{ProductID: f.product.ID, BranchID: f.branch.ID, Quantity: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.BranchQuantity)
	assert.Equal(t, int64(100), res.CentralQuantity)

	qty, err := f.uc.GetBranchStock(ctx, f.product.ID, f.branch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), qty)

	p, err := f.products.GetByID(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), p.CentralQuantity, "la transferencia no descuenta el stock central")
}

func TestTransferStock_SumaAPrevio(t *testing.T) {
	f := setup(t)
	ctx := adminCtx()

	_, err := f.uc.TransferStock(ctx, dto.TransferRequest{ProductID: f.product.ID, BranchID: f.branch.ID, Quantity: 7})
	require.NoError(t, err)
	res, err := f.uc.TransferStock(ctx, dto.TransferRequest{ProductID: f.product.ID, BranchID: f.branch.ID, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.BranchQuantity, "P + Q")
}

func TestTransferStock_Insuficiente(t *testing.T) {
	f := setup(t)
	ctx := adminCtx()

	_, err := f.uc.TransferStock(ctx, dto.TransferRequest{ProductID: f.product.ID, BranchID: f.branch.ID, Quantity: 101})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Milk")

	qty, err := f.uc.GetBranchStock(ctx, f.product.ID, f.branch.ID)
	require.NoError(t, err)
	assert.Zero(t, qty)
}

func TestTransferStock_DesbordeDeLineaRechazado(t *testing.T) {
	f := setup(t)
	ctx := adminCtx()
	f.product.CentralQuantity = math.MaxInt64
	require.NoError(t, f.products.Update(ctx, f.product))

	_, err := f.uc.TransferStock(ctx, dto.TransferRequest{ProductID: f.product.ID, BranchID: f.branch.ID, Quantity: math.MaxInt64})
	require.NoError(t, err)
	_, err = f.uc.TransferStock(ctx, dto.TransferRequest{ProductID: f.product.ID, BranchID: f.branch.ID, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	qty, err := f.uc.GetBranchStock(ctx, f.product.ID, f.branch.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), qty, "la línea no debe dar la vuelta a negativo")
}

func TestTransferStock_Errores(t *testing.T) {
	f := setup(t)
	ctx := adminCtx()

	_, err := f.uc.TransferStock(ctx, dto.TransferRequest{ProductID: f.product.ID, BranchID: f.branch.ID, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.TransferStock(ctx, dto.TransferRequest{ProductID: "nope", BranchID: f.branch.ID, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.TransferStock(ctx, dto.TransferRequest{ProductID: f.product.ID, BranchID: "nope", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mgr := identity.WithIdentity(context.Background(), identity.Identity{Role: entity.RoleBranchManager, BranchID: f.branch.ID})
	_, err = f.uc.TransferStock(mgr, dto.TransferRequest{ProductID: f.product.ID, BranchID: f.branch.ID, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ────────────────────────────────────────────────────────────────────────────
// Lecturas
// ────────────────────────────────────────────────────────────────────────────

func TestGetBranchStock_SinLineaEsCero(t *testing.T) {
	f := setup(t)
	qty, err := f.uc.GetBranchStock(context.Background(), f.product.ID, f.branch.ID)
	require.NoError(t, err)
	assert.Zero(t, qty)
}

func TestListAlternateAvailability(t *testing.T) {
	f := setup(t)
	ctx := adminCtx()
	_, err := f.uc.TransferStock(ctx, dto.TransferRequest{ProductID: f.product.ID, BranchID: f.branch.ID, Quantity: 3})
	require.NoError(t, err)
	_, err = f.uc.TransferStock(ctx, dto.TransferRequest{ProductID: f.product.ID, BranchID: f.branch2.ID, Quantity: 8})
	require.NoError(t, err)

	// Línea de una sucursal que ya no existe.
	stock := docstore.NewBranchStockRepository(f.store)
	require.NoError(t, stock.Upsert(ctx, &entity.BranchStock{ProductID: f.product.ID, BranchID: "gone", Quantity: 2}))

	res, err := f.uc.ListAlternateAvailability(ctx, f.product.ID, f.branch.ID)
	require.NoError(t, err)
	require.Len(t, res.Locations, 3)
	assert.Equal(t, domain.LocationCentral, res.Locations[0].LocationID)
	assert.Equal(t, ledger.CentralDisplayName, res.Locations[0].DisplayName)
	assert.Equal(t, int64(100), res.Locations[0].Quantity)
	assert.Equal(t, "Branch-2", res.Locations[1].DisplayName)
	assert.Equal(t, int64(8), res.Locations[1].Quantity)
	assert.Equal(t, ledger.UnknownBranchName, res.Locations[2].DisplayName)

	for _, l := range res.Locations {
		assert.NotEqual(t, f.branch.ID, l.LocationID, "la sucursal excluida no aparece")
	}
}

func TestListBranchStock(t *testing.T) {
	f := setup(t)
	ctx := adminCtx()
	_, err := f.uc.TransferStock(ctx, dto.TransferRequest{ProductID: f.product.ID, BranchID: f.branch.ID, Quantity: 4})
	require.NoError(t, err)

	lines, err := f.uc.ListBranchStock(ctx, f.branch.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Milk", lines[0].ProductName)
	assert.True(t, lines[0].LowStock)

	_, err = f.uc.ListBranchStock(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
