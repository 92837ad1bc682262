// Package docstore implementa los repositorios tipados sobre repository.DocumentStore.
// Cada repositorio recibe un Querier: el almacén o una transacción de RunAtomic.
package docstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

// Querier es el almacén o una transacción (mismo papel que pool-o-tx en SQL).
type Querier = repository.DocumentQuerier

func str(f repository.Fields, key string) string {
	switch v := f[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// int64Of acepta los tipos numéricos que devuelven los distintos backends
// (int64 en memoria y Firestore, float64 o json.Number desde JSONB).
func int64Of(f repository.Fields, key string) int64 {
	switch v := f[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func intOf(f repository.Fields, key string) int {
	return int(int64Of(f, key))
}

func boolOf(f repository.Fields, key string) bool {
	b, _ := f[key].(bool)
	return b
}

// decimalOf lee montos guardados como texto; acepta números por compatibilidad.
func decimalOf(f repository.Fields, key string) decimal.Decimal {
	switch v := f[key].(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	case float64:
		return decimal.NewFromFloat(v)
	case int64:
		return decimal.NewFromInt(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

func timeOf(f repository.Fields, key string) time.Time {
	switch v := f[key].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}
		}
		return t
	default:
		return time.Time{}
	}
}

func timePtrOf(f repository.Fields, key string) *time.Time {
	t := timeOf(f, key)
	if t.IsZero() {
		return nil
	}
	return &t
}

func money(d decimal.Decimal) string {
	return d.String()
}

// nullableTime convierte nil en un valor nulo explícito del documento.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
