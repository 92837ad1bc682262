package repository

import "context"

// Colecciones del almacén de documentos.
const (
	CollectionProducts     = "products"
	CollectionBranches     = "branches"
	CollectionBranchStock  = "branchStock"
	CollectionSales        = "sales"
	CollectionMonthlySales = "monthlySales"
	CollectionUsers        = "users"
)

// Fields son los campos de un documento.
type Fields map[string]any

// Document es un documento con su ID dentro de una colección.
type Document struct {
	ID     string
	Fields Fields
}

// Filter es un filtro de igualdad sobre un campo.
type Filter struct {
	Field string
	Value any
}

// Eq construye un filtro field == value.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// SnapshotFunc recibe el conjunto completo de documentos de la colección en cada cambio.
// Cada snapshot reemplaza por completo al anterior; no es un delta.
type SnapshotFunc func(docs []Document)

// ErrorFunc recibe el error que terminó una suscripción.
type ErrorFunc func(err error)

// Unsubscribe cancela una suscripción. Es seguro llamarla más de una vez.
type Unsubscribe func()

// DocumentQuerier agrupa las operaciones comunes al almacén y a una transacción
// (mismo papel que el Querier pool-o-tx de los repositorios SQL).
type DocumentQuerier interface {
	// Get devuelve el documento o domain.ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Query devuelve los documentos que cumplen todos los filtros, ordenados por ID.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	// Create inserta un documento con ID generado y lo retorna.
	Create(ctx context.Context, collection string, fields Fields) (string, error)
	// Set crea o reemplaza el documento con el ID indicado.
	Set(ctx context.Context, collection, id string, fields Fields) error
	// Update mezcla fields en un documento existente; domain.ErrNotFound si no existe.
	Update(ctx context.Context, collection, id string, fields Fields) error
	// Delete elimina el documento. Eliminar un documento inexistente no es error.
	Delete(ctx context.Context, collection, id string) error
}

// DocumentTx es una unidad atómica. Todas las lecturas deben preceder a las escrituras:
// las lecturas quedan como precondición del commit y las escrituras se aplican todas o ninguna.
type DocumentTx interface {
	DocumentQuerier
}

// DocumentStore es el adaptador de persistencia consumido por todos los componentes.
type DocumentStore interface {
	DocumentQuerier

	// Subscribe abre una consulta en vivo sobre la colección. onSnapshot recibe de inmediato el
	// estado actual y luego el conjunto completo tras cada cambio; un consumidor lento solo recibe
	// el último snapshot. onError se invoca una vez si la suscripción termina por un fallo.
	Subscribe(ctx context.Context, collection string, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error)

	// RunAtomic ejecuta fn como una unidad todo-o-nada. Si otra escritura invalida una lectura de fn
	// antes del commit retorna domain.ErrConflict. No reintenta.
	RunAtomic(ctx context.Context, fn func(tx DocumentTx) error) error

	Close() error
}
