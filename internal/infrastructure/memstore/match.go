package memstore

import (
	"reflect"
	"time"

	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

func matches(fields repository.Fields, filters []repository.Filter) bool {
	for _, f := range filters {
		v, ok := fields[f.Field]
		if !ok || !equal(v, f.Value) {
			return false
		}
	}
	return true
}

// equal compara valores de campo tolerando distintos tipos numéricos (int, int64, float64).
func equal(a, b any) bool {
	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return x == y
		}
		return false
	}
	if x, ok := a.(time.Time); ok {
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
