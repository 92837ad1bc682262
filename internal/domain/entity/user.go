package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin         = "admin"
	RoleBranchManager = "branch_manager"
)

// Estados de cuenta.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User representa una cuenta del sistema. Los encargados de sucursal llevan BranchID.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // bcrypt; vacío cuando la identidad la emite un proveedor externo
	Name         string
	Role         string
	BranchID     string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidRole indica si role es uno de los roles soportados.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleBranchManager
}
