// Package identity modela el usuario actual y el ciclo de vida de sus sesiones.
// Los casos de uso confían en esta identidad para autorizar y sellar createdBy; no autentican.
package identity

import (
	"context"

	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
)

// Identity es el usuario autenticado de la petición.
type Identity struct {
	UserID    string
	Username  string
	Role      string
	BranchID  string // solo para branch_manager
	SessionID string
}

// IsAdmin indica si la identidad tiene rol admin.
func (i Identity) IsAdmin() bool { return i.Role == entity.RoleAdmin }

// CanOperateBranch indica si la identidad puede operar sobre la sucursal:
// los admin sobre todas, los encargados solo sobre la propia.
func (i Identity) CanOperateBranch(branchID string) bool {
	if i.IsAdmin() {
		return true
	}
	return i.Role == entity.RoleBranchManager && i.BranchID != "" && i.BranchID == branchID
}

type ctxKey struct{}

// WithIdentity devuelve un contexto que transporta la identidad.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extrae la identidad del contexto.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok
}

// CreatedBy devuelve el ID del usuario actual o "unknown" si no hay identidad.
func CreatedBy(ctx context.Context) string {
	if id, ok := FromContext(ctx); ok && id.UserID != "" {
		return id.UserID
	}
	return "unknown"
}

// RequireAdmin retorna ErrUnauthorized sin identidad y ErrForbidden si no es admin.
func RequireAdmin(ctx context.Context) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return Identity{}, domain.ErrUnauthorized
	}
	if !id.IsAdmin() {
		return id, domain.ErrForbidden
	}
	return id, nil
}

// RequireBranch retorna ErrForbidden si la identidad no puede operar la sucursal.
func RequireBranch(ctx context.Context, branchID string) (Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return Identity{}, domain.ErrUnauthorized
	}
	if !id.CanOperateBranch(branchID) {
		return id, domain.ErrForbidden
	}
	return id, nil
}
