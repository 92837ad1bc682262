package dto

import "time"

// LiveInventoryResponse estado en vivo mantenido por las suscripciones.
type LiveInventoryResponse struct {
	Active      bool                  `json:"active"`
	UpdatedAt   *time.Time            `json:"updated_at,omitempty"`
	Products    []ProductResponse     `json:"products"`
	Branches    []BranchResponse      `json:"branches"`
	BranchStock []BranchStockResponse `json:"branch_stock"`
}
