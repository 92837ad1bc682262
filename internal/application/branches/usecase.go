package branches

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/application/ports"
	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

// BranchUseCase casos de uso de sucursales y asignación de encargados.
type BranchUseCase struct {
	txRunner ports.TxRunner
	branches repository.BranchRepository
	log      *logger.Logger
	now      func() time.Time
}

// NewBranchUseCase construye el caso de uso. now nil usa time.Now.
func NewBranchUseCase(txRunner ports.TxRunner, branches repository.BranchRepository, log *logger.Logger, now func() time.Time) *BranchUseCase {
	if now == nil {
		now = time.Now
	}
	return &BranchUseCase{txRunner: txRunner, branches: branches, log: log.Component("branches"), now: now}
}

// CreateBranch crea una sucursal sin encargado.
func (uc *BranchUseCase) CreateBranch(ctx context.Context, in dto.CreateBranchRequest) (*dto.BranchResponse, error) {
	if _, err := identity.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Invalid("name", "es obligatorio")
	}
	now := uc.now()
	b := &entity.Branch{
		Name:      name,
		Location:  strings.TrimSpace(in.Location),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.branches.Create(ctx, b); err != nil {
		return nil, err
	}
	uc.log.Info().Str("branch_id", b.ID).Str("name", b.Name).Msg("sucursal creada")
	return ToBranchResponse(b), nil
}

// UpdateBranch mezcla nombre y ubicación.
func (uc *BranchUseCase) UpdateBranch(ctx context.Context, id string, in dto.UpdateBranchRequest) (*dto.BranchResponse, error) {
	if _, err := identity.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, domain.Invalid("name", "no puede quedar vacío")
	}
	var out *entity.Branch
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		b, err := r.Branches.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return domain.Missing("sucursal", id)
		}
		if in.Name != nil {
			b.Name = strings.TrimSpace(*in.Name)
		}
		if in.Location != nil {
			b.Location = strings.TrimSpace(*in.Location)
		}
		b.UpdatedAt = uc.now()
		out = b
		return r.Branches.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return ToBranchResponse(out), nil
}

// AssignManager asigna userID como encargado de la sucursal; la última asignación gana.
// Se limpian los vínculos previos: el encargado anterior queda sin sucursal y cualquier otra
// sucursal que tuviera userID queda sin encargado. userID vacío deja la sucursal sin encargado.
func (uc *BranchUseCase) AssignManager(ctx context.Context, branchID, userID string) (*dto.BranchResponse, error) {
	if _, err := identity.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	var out *entity.Branch
	err := uc.txRunner.Run(ctx, func(r ports.Repos) error {
		// Lecturas
		branch, err := r.Branches.GetByID(ctx, branchID)
		if err != nil {
			return err
		}
		if branch == nil {
			return domain.Missing("sucursal", branchID)
		}
		var user *entity.User
		var others []*entity.Branch
		if userID != "" {
			user, err = r.Users.GetByID(ctx, userID)
			if err != nil {
				return err
			}
			if user == nil {
				return domain.Missing("usuario", userID)
			}
			if user.Role != entity.RoleBranchManager {
				return domain.Invalid("user_id", "el usuario no es encargado de sucursal")
			}
			others, err = r.Branches.ListByManager(ctx, userID)
			if err != nil {
				return err
			}
		}
		var previous *entity.User
		if branch.ManagerID != "" && branch.ManagerID != userID {
			previous, err = r.Users.GetByID(ctx, branch.ManagerID)
			if err != nil {
				return err
			}
		}

		// Escrituras
		now := uc.now()
		for _, o := range others {
			if o.ID == branch.ID {
				continue
			}
			o.ManagerID, o.ManagerName, o.UpdatedAt = "", "", now
			if err := r.Branches.Update(ctx, o); err != nil {
				return err
			}
		}
		if previous != nil && previous.BranchID == branch.ID {
			previous.BranchID, previous.UpdatedAt = "", now
			if err := r.Users.Update(ctx, previous); err != nil {
				return err
			}
		}
		if user != nil {
			user.BranchID, user.UpdatedAt = branch.ID, now
			if err := r.Users.Update(ctx, user); err != nil {
				return err
			}
			branch.ManagerID, branch.ManagerName = user.ID, displayName(user)
		} else {
			branch.ManagerID, branch.ManagerName = "", ""
		}
		branch.UpdatedAt = now
		out = branch
		return r.Branches.Update(ctx, branch)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("branch_id", branchID).Str("manager_id", userID).Msg("encargado asignado")
	return ToBranchResponse(out), nil
}

// GetBranch obtiene una sucursal.
func (uc *BranchUseCase) GetBranch(ctx context.Context, id string) (*dto.BranchResponse, error) {
	b, err := uc.branches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.Missing("sucursal", id)
	}
	return ToBranchResponse(b), nil
}

// ListBranches lista las sucursales ordenadas por nombre.
func (uc *BranchUseCase) ListBranches(ctx context.Context) ([]dto.BranchResponse, error) {
	list, err := uc.branches.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	out := make([]dto.BranchResponse, 0, len(list))
	for _, b := range list {
		out = append(out, *ToBranchResponse(b))
	}
	return out, nil
}

func displayName(u *entity.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// ToBranchResponse convierte la entidad al DTO.
func ToBranchResponse(b *entity.Branch) *dto.BranchResponse {
	if b == nil {
		return nil
	}
	return &dto.BranchResponse{
		ID:          b.ID,
		Name:        b.Name,
		Location:    b.Location,
		ManagerID:   b.ManagerID,
		ManagerName: b.ManagerName,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}
