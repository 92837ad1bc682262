package views_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/application/views"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/docstore"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/memstore"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

const wait = 2 * time.Second

func TestLiveInventory_CicloDeSesiones(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	t.Cleanup(func() { _ = store.Close() })
	repos := docstore.NewRepos(store)

	milk := &entity.Product{SerialNumber: "000001", Name: "Milk", CentralQuantity: 100}
	require.NoError(t, repos.Products.Create(ctx, milk))
	branch := &entity.Branch{Name: "Norte"}
	require.NoError(t, repos.Branches.Create(ctx, branch))

	bus := identity.NewBus()
	live := views.NewLiveInventory(docstore.NewFeeds(store), bus, 10, logger.Nop())
	assert.False(t, live.Active())
	assert.Empty(t, live.Snapshot().Products)

	a := identity.Identity{UserID: "u1", SessionID: "s1"}
	b := identity.Identity{UserID: "u2", SessionID: "s2"}
	bus.SignIn(a)
	bus.SignIn(b)
	require.True(t, live.Active())

	require.Eventually(t, func() bool {
		s := live.Snapshot()
		return len(s.Products) == 1 && len(s.Branches) == 1
	}, wait, 10*time.Millisecond)

	require.NoError(t, repos.BranchStock.Upsert(ctx, &entity.BranchStock{ProductID: milk.ID, BranchID: branch.ID, Quantity: 4}))
	require.Eventually(t, func() bool {
		s := live.Snapshot()
		return len(s.BranchStock) == 1 && s.BranchStock[0].Quantity == 4
	}, wait, 10*time.Millisecond)
	s := live.Snapshot()
	assert.Equal(t, "Milk", s.BranchStock[0].ProductName)
	assert.True(t, s.BranchStock[0].LowStock)
	assert.NotNil(t, s.UpdatedAt)

	// Un snapshot reemplaza: al borrar el producto desaparece de la caché.
	require.NoError(t, repos.Products.Delete(ctx, milk.ID))
	require.Eventually(t, func() bool { return len(live.Snapshot().Products) == 0 }, wait, 10*time.Millisecond)

	bus.SignOut("s1")
	assert.True(t, live.Active(), "queda una sesión abierta")
	bus.SignOut("s2")
	assert.False(t, live.Active())
	s = live.Snapshot()
	assert.Empty(t, s.Branches, "al cerrar la última sesión se limpia la caché")
	assert.Nil(t, s.UpdatedAt)

	// Cambios con la vista cerrada no se aplican.
	require.NoError(t, repos.Branches.Create(ctx, &entity.Branch{Name: "Sur"}))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, live.Snapshot().Branches)

	// Una nueva sesión vuelve a suscribir y trae el estado actual.
	bus.SignIn(identity.Identity{UserID: "u3", SessionID: "s3"})
	require.Eventually(t, func() bool { return len(live.Snapshot().Branches) == 2 }, wait, 10*time.Millisecond)
}

func TestLiveInventory_AlmacenCerrado(t *testing.T) {
	store := memstore.New()
	require.NoError(t, store.Close())

	bus := identity.NewBus()
	live := views.NewLiveInventory(docstore.NewFeeds(store), bus, 10, logger.Nop())
	bus.SignIn(identity.Identity{UserID: "u1", SessionID: "s1"})
	assert.False(t, live.Active(), "sin almacén la vista no queda abierta")
}
