// Package auth autentica usuarios y traduce tokens a identidades.
// La identidad resultante viaja en el contexto; los casos de uso del ledger no autentican.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/application/ports"
	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/entity"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
	"github.com/jhoicas/stock-sucursales/pkg/jwt"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// BootstrapAdmin cuenta admin inicial tomada de la configuración.
type BootstrapAdmin struct {
	Username string
	Email    string
	Password string
}

// Verifier resuelve un token bearer en la identidad de la petición.
type Verifier interface {
	Verify(ctx context.Context, token string) (identity.Identity, error)
}

// AuthUseCase casos de uso de autenticación local: login, logout y alta de encargados.
type AuthUseCase struct {
	txRunner ports.TxRunner
	users    repository.UserRepository
	bus      *identity.Bus
	jwtCfg   JWTConfig
	log      *logger.Logger
	now      func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(txRunner ports.TxRunner, users repository.UserRepository, bus *identity.Bus, jwtCfg JWTConfig, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{txRunner: txRunner, users: users, bus: bus, jwtCfg: jwtCfg, log: log.Component("auth"), now: time.Now}
}

var _ Verifier = (*AuthUseCase)(nil)

// Login verifica usuario/password, abre una sesión y retorna token + usuario.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	username := normalizeUsername(in.Username)
	if username == "" || in.Password == "" {
		return nil, domain.Invalid("username", "usuario y contraseña son obligatorios")
	}
	user, err := uc.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != entity.UserStatusActive {
		return nil, domain.ErrForbidden
	}

	id := identity.Identity{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		BranchID:  user.BranchID,
		SessionID: uuid.New().String(),
	}
	token, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes, jwt.Payload{
		UserID:    id.UserID,
		Username:  id.Username,
		Role:      id.Role,
		BranchID:  id.BranchID,
		SessionID: id.SessionID,
	})
	if err != nil {
		return nil, err
	}
	uc.bus.SignIn(id)
	uc.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("sesión iniciada")
	return &dto.LoginResponse{
		Token:     token,
		ExpiresAt: uc.now().Add(time.Duration(uc.jwtCfg.ExpMinutes) * time.Minute),
		User:      *ToUserResponse(user),
	}, nil
}

// Logout cierra la sesión de la identidad actual. Cerrar dos veces no es error.
func (uc *AuthUseCase) Logout(ctx context.Context) error {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	if uc.bus.SignOut(id.SessionID) {
		uc.log.Info().Str("user_id", id.UserID).Msg("sesión cerrada")
	}
	return nil
}

// Verify valida el JWT y exige que su sesión siga abierta (logout revoca el token).
func (uc *AuthUseCase) Verify(_ context.Context, token string) (identity.Identity, error) {
	claims, err := jwt.Parse(uc.jwtCfg.Secret, token)
	if err != nil {
		return identity.Identity{}, domain.ErrUnauthorized
	}
	if !uc.bus.IsOpen(claims.ID) {
		return identity.Identity{}, domain.ErrUnauthorized
	}
	return identity.Identity{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		BranchID:  claims.BranchID,
		SessionID: claims.ID,
	}, nil
}

// CreateBranchManager crea un encargado y lo asigna a la sucursal; el encargado anterior queda sin sucursal.
func (uc *AuthUseCase) CreateBranchManager(ctx context.Context, in dto.CreateBranchManagerRequest) (*dto.UserResponse, error) {
	if _, err := identity.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	username := normalizeUsername(in.Username)
	if len(username) < 3 {
		return nil, domain.Invalid("username", "mínimo 3 caracteres")
	}
	if len(in.Password) < 8 {
		return nil, domain.Invalid("password", "mínimo 8 caracteres")
	}
	if in.BranchID == "" {
		return nil, domain.Invalid("branch_id", "es obligatorio")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	user := &entity.User{
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Role:         entity.RoleBranchManager,
		BranchID:     in.BranchID,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if user.Name == "" {
		user.Name = username
	}

	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		branch, err := r.Branches.GetByID(ctx, in.BranchID)
		if err != nil {
			return err
		}
		if branch == nil {
			return domain.Missing("sucursal", in.BranchID)
		}
		existing, err := r.Users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		var previous *entity.User
		if branch.HasManager() {
			if previous, err = r.Users.GetByID(ctx, branch.ManagerID); err != nil {
				return err
			}
		}

		if err := r.Users.Create(ctx, user); err != nil {
			return err
		}
		if previous != nil && previous.BranchID == branch.ID {
			previous.BranchID, previous.UpdatedAt = "", now
			if err := r.Users.Update(ctx, previous); err != nil {
				return err
			}
		}
		branch.ManagerID, branch.ManagerName, branch.UpdatedAt = user.ID, user.Name, now
		return r.Branches.Update(ctx, branch)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", user.ID).Str("branch_id", user.BranchID).Msg("encargado creado")
	return ToUserResponse(user), nil
}

// SeedAdmin crea la cuenta admin de arranque si no existe. Retorna true si la creó.
// Sin usuario configurado no hace nada.
func (uc *AuthUseCase) SeedAdmin(ctx context.Context, in BootstrapAdmin) (bool, error) {
	username := normalizeUsername(in.Username)
	if username == "" {
		return false, nil
	}
	if len(in.Password) < 8 {
		return false, domain.Invalid("password", "la contraseña del admin inicial requiere mínimo 8 caracteres")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	now := uc.now()
	admin := &entity.User{
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: string(hash),
		Name:         username,
		Role:         entity.RoleAdmin,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = uc.txRunner.Run(ctx, func(r ports.Repos) error {
		existing, err := r.Users.GetByUsername(ctx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return errAlreadySeeded
		}
		return r.Users.Create(ctx, admin)
	})
	if errors.Is(err, errAlreadySeeded) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	uc.log.Info().Str("username", username).Msg("admin inicial creado")
	return true, nil
}

var errAlreadySeeded = errors.New("admin ya existe")

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ToUserResponse convierte la entidad al DTO (sin password).
func ToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		BranchID:  u.BranchID,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
