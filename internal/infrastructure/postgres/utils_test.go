package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("op", nil))
	assert.ErrorIs(t, mapError("op", &pgconn.PgError{Code: "40001"}), domain.ErrConflict)
	assert.ErrorIs(t, mapError("op", &pgconn.PgError{Code: "40P01"}), domain.ErrConflict)
	assert.ErrorIs(t, mapError("op", &pgconn.PgError{Code: "23505"}), domain.ErrConflict)
	assert.ErrorIs(t, mapError("op", errors.New("dial tcp: connection refused")), domain.ErrBackendUnavailable)
	assert.ErrorIs(t, mapError("op", context.Canceled), context.Canceled)

	err := mapError("op", &pgconn.PgError{Code: "22P02", Message: "invalid input syntax"})
	assert.NotErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "invalid input syntax")
}

func TestEncodeDecode_EnterosSinPerderPrecision(t *testing.T) {
	at := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	raw, err := encode(repository.Fields{"quantity": int64(9007199254740993), "price": "2.50", "saleDate": at})
	require.NoError(t, err)

	fields, err := decode([]byte(raw))
	require.NoError(t, err)
	n, ok := fields["quantity"].(json.Number)
	require.True(t, ok)
	v, err := n.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), v)
	assert.Equal(t, "2.50", fields["price"])
	assert.Equal(t, at.Format(time.RFC3339Nano), fields["saleDate"])
}
