package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual, reintente la operación")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrPeriodClosed       = errors.New("el período de ventas está cerrado")
	ErrBackendUnavailable = errors.New("almacenamiento no disponible")
)

// ValidationError indica el campo que no pasó la validación. Envuelve ErrInvalidInput.
type ValidationError struct {
	Field  string
	Reason string
}

// Invalid construye un ValidationError.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// StockError describe un faltante de stock sobre un producto concreto. Envuelve ErrInsufficientStock.
type StockError struct {
	ProductID   string
	ProductName string
	Location    string // "central" o el ID de la sucursal
	Requested   int64
	Available   int64
}

func (e *StockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	if e.Location == LocationCentral {
		return fmt.Sprintf("stock insuficiente de %s en bodega central: solicitado %d, disponible %d",
			name, e.Requested, e.Available)
	}
	return fmt.Sprintf("stock insuficiente de %s en la sucursal: solicitado %d, disponible %d",
		name, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// LocationCentral identifica la bodega central en StockError y en disponibilidad alternativa.
const LocationCentral = "central"

// NotFoundError detalla qué recurso no existe. Envuelve ErrNotFound.
type NotFoundError struct {
	Kind string
	ID   string
}

// Missing construye un NotFoundError.
func Missing(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q no encontrado", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
