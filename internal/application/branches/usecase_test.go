package branches_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-sucursales/internal/application/branches"
	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/docstore"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/memstore"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

func setup(t *testing.T) (*branches.BranchUseCase, *docstore.UserRepository) {
	t.Helper()
	store := memstore.New()
	t.Cleanup(func() { _ = store.Close() })
	uc := branches.NewBranchUseCase(docstore.NewTxRunner(store), docstore.NewBranchRepository(store), logger.Nop(), nil)
	return uc, docstore.NewUserRepository(store)
}

func adminCtx() context.Context {
	return identity.WithIdentity(context.Background(), identity.Identity{UserID: "admin", Role: entity.RoleAdmin})
}

func TestCreateAndList(t *testing.T) {
	uc, _ := setup(t)
	ctx := adminCtx()

	_, err := uc.CreateBranch(ctx, dto.CreateBranchRequest{Name: "Norte", Location: "Av. 1"})
	require.NoError(t, err)
	_, err = uc.CreateBranch(ctx, dto.CreateBranchRequest{Name: "Centro"})
	require.NoError(t, err)

	list, err := uc.ListBranches(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Centro", list[0].Name)
	assert.Empty(t, list[0].ManagerID, "una sucursal nueva no tiene encargado")

	_, err = uc.CreateBranch(ctx, dto.CreateBranchRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateBranch(t *testing.T) {
	uc, _ := setup(t)
	ctx := adminCtx()
	b, err := uc.CreateBranch(ctx, dto.CreateBranchRequest{Name: "Norte"})
	require.NoError(t, err)

	loc := "Calle 5"
	got, err := uc.UpdateBranch(ctx, b.ID, dto.UpdateBranchRequest{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, "Norte", got.Name)
	assert.Equal(t, "Calle 5", got.Location)

	_, err = uc.UpdateBranch(ctx, "nope", dto.UpdateBranchRequest{Location: &loc})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// La última asignación gana y los vínculos previos se limpian.
func TestAssignManager_UltimaGana(t *testing.T) {
	uc, users := setup(t)
	ctx := adminCtx()
	b1, err := uc.CreateBranch(ctx, dto.CreateBranchRequest{Name: "B1"})
	require.NoError(t, err)
	b2, err := uc.CreateBranch(ctx, dto.CreateBranchRequest{Name: "B2"})
	require.NoError(t, err)

	ana := &entity.User{Username: "ana", Name: "Ana", Role: entity.RoleBranchManager, Status: entity.UserStatusActive}
	require.NoError(t, users.Create(ctx, ana))
	luis := &entity.User{Username: "luis", Role: entity.RoleBranchManager, Status: entity.UserStatusActive}
	require.NoError(t, users.Create(ctx, luis))

	got, err := uc.AssignManager(ctx, b1.ID, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, ana.ID, got.ManagerID)
	assert.Equal(t, "Ana", got.ManagerName)

	// Luis reemplaza a Ana en B1.
	_, err = uc.AssignManager(ctx, b1.ID, luis.ID)
	require.NoError(t, err)
	anaNow, err := users.GetByID(ctx, ana.ID)
	require.NoError(t, err)
	assert.Empty(t, anaNow.BranchID, "el encargado anterior pierde la sucursal")

	// Luis se mueve a B2: B1 queda sin encargado.
	_, err = uc.AssignManager(ctx, b2.ID, luis.ID)
	require.NoError(t, err)
	b1Now, err := uc.GetBranch(ctx, b1.ID)
	require.NoError(t, err)
	assert.Empty(t, b1Now.ManagerID)
	luisNow, err := users.GetByID(ctx, luis.ID)
	require.NoError(t, err)
	assert.Equal(t, b2.ID, luisNow.BranchID)
}

func TestAssignManager_Validaciones(t *testing.T) {
	uc, users := setup(t)
	ctx := adminCtx()
	b, err := uc.CreateBranch(ctx, dto.CreateBranchRequest{Name: "B1"})
	require.NoError(t, err)

	_, err = uc.AssignManager(ctx, b.ID, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	admin := &entity.User{Username: "root", Role: entity.RoleAdmin}
	require.NoError(t, users.Create(ctx, admin))
	_, err = uc.AssignManager(ctx, b.ID, admin.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := uc.AssignManager(ctx, b.ID, "")
	require.NoError(t, err)
	assert.Empty(t, got.ManagerID, "userID vacío desasigna")
}
