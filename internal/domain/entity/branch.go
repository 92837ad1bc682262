package entity

import "time"

// Branch representa una sucursal que recibe stock de la bodega central.
// ManagerID vacío significa "sin asignar".
type Branch struct {
	ID          string
	Name        string
	Location    string
	ManagerID   string
	ManagerName string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasManager indica si la sucursal tiene un encargado asignado.
func (b *Branch) HasManager() bool {
	return b.ManagerID != ""
}
