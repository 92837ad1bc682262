package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-sucursales/internal/application/auth"
	"github.com/jhoicas/stock-sucursales/internal/application/dto"
	"github.com/jhoicas/stock-sucursales/internal/application/identity"
	"github.com/jhoicas/stock-sucursales/internal/domain"
)

// Locals keys para la identidad en Fiber.
const (
	LocalUserID   = "user_id"
	LocalRole     = "role"
	LocalBranchID = "branch_id"
	localIdentity = "identity"
)

// AuthMiddleware valida el Bearer Token con el proveedor de identidad configurado y deja la
// identidad en c.Locals y en el contexto de usuario que reciben los casos de uso.
func AuthMiddleware(verifier auth.Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		id, err := verifier.Verify(c.UserContext(), tokenString)
		if err != nil {
			if errors.Is(err, domain.ErrForbidden) {
				return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "cuenta inactiva o sin acceso"})
			}
			if errors.Is(err, domain.ErrBackendUnavailable) {
				return respondError(c, err)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalUserID, id.UserID)
		c.Locals(LocalRole, id.Role)
		c.Locals(LocalBranchID, id.BranchID)
		c.Locals(localIdentity, id)
		c.SetUserContext(identity.WithIdentity(c.UserContext(), id))
		return c.Next()
	}
}

// RequireRole autoriza solo a las identidades con alguno de los roles indicados.
// Debe montarse después de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no trae rol"})
		}
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para esta operación"})
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	return localString(c, LocalUserID)
}

// GetRole devuelve el rol del contexto (después del middleware de auth).
func GetRole(c *fiber.Ctx) string {
	return localString(c, LocalRole)
}

// GetBranchID devuelve la sucursal del encargado autenticado; vacío para admin.
func GetBranchID(c *fiber.Ctx) string {
	return localString(c, LocalBranchID)
}

// GetIdentity devuelve la identidad completa dejada por AuthMiddleware.
func GetIdentity(c *fiber.Ctx) (identity.Identity, bool) {
	id, ok := c.Locals(localIdentity).(identity.Identity)
	return id, ok
}

func localString(c *fiber.Ctx, key string) string {
	v := c.Locals(key)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
