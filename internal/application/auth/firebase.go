package auth

import (
	"context"

	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

// TokenVerifier verifica un ID token emitido por un proveedor externo y devuelve el uid.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, token string) (string, error)
}

// FirebaseProvider resuelve ID tokens de Firebase en identidades usando el perfil users/{uid}.
// Cada uid abre una única sesión en el bus, que se cierra con Logout.
type FirebaseProvider struct {
	verifier TokenVerifier
	users    repository.UserRepository
	bus      *identity.Bus
	log      *logger.Logger
}

// NewFirebaseProvider construye el proveedor.
func NewFirebaseProvider(verifier TokenVerifier, users repository.UserRepository, bus *identity.Bus, log *logger.Logger) *FirebaseProvider {
	return &FirebaseProvider{verifier: verifier, users: users, bus: bus, log: log.Component("auth.firebase")}
}

var _ Verifier = (*FirebaseProvider)(nil)

// Verify valida el token y carga el perfil. Un uid sin perfil o inactivo no puede operar.
func (p *FirebaseProvider) Verify(ctx context.Context, token string) (identity.Identity, error) {
	uid, err := p.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		return identity.Identity{}, domain.ErrUnauthorized
	}
	user, err := p.users.GetByID(ctx, uid)
	if err != nil {
		return identity.Identity{}, err
	}
	if user == nil || user.Status != entity.UserStatusActive {
		p.log.Warn().Str("uid", uid).Msg("uid sin perfil activo")
		return identity.Identity{}, domain.ErrForbidden
	}
	id := identity.Identity{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		BranchID:  user.BranchID,
		SessionID: "firebase:" + user.ID,
	}
	p.bus.SignIn(id)
	return id, nil
}
