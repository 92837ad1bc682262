package dto

import "time"

// CreateBranchRequest entrada para crear una sucursal.
type CreateBranchRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

// UpdateBranchRequest entrada para actualizar una sucursal (campos parciales).
type UpdateBranchRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
}

// AssignManagerRequest asigna un usuario branch_manager a la sucursal. UserID vacío desasigna.
type AssignManagerRequest struct {
	UserID string `json:"user_id"`
}

// BranchResponse salida de una sucursal.
type BranchResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	ManagerID   string    `json:"manager_id,omitempty"`
	ManagerName string    `json:"manager_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
