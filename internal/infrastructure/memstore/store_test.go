package memstore_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
	"github.com/jhoicas/stock-sucursales/internal/infrastructure/memstore"
)

// ────────────────────────────────────────────────────────────────────────────
// CRUD
// ────────────────────────────────────────────────────────────────────────────

func TestCRUD(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	id, err := s.Create(ctx, "products", repository.Fields{"name": "Milk", "qty": int64(100)})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := s.Get(ctx, "products", id)
	require.NoError(t, err)
	assert.Equal(t, "Milk", doc.Fields["name"])

	require.NoError(t, s.Update(ctx, "products", id, repository.Fields{"qty": int64(95)}))
	doc, err = s.Get(ctx, "products", id)
	require.NoError(t, err)
	assert.Equal(t, int64(95), doc.Fields["qty"])
	assert.Equal(t, "Milk", doc.Fields["name"], "Update mezcla, no reemplaza")

	require.NoError(t, s.Delete(ctx, "products", id))
	_, err = s.Get(ctx, "products", id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "products", id), "borrar un inexistente no es error")
}

func TestUpdate_Inexistente(t *testing.T) {
	err := memstore.New().Update(context.Background(), "products", "nope", repository.Fields{"x": 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_DevuelveCopia(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Set(ctx, "c", "a", repository.Fields{"n": "x"}))

	doc, err := s.Get(ctx, "c", "a")
	require.NoError(t, err)
	doc.Fields["n"] = "mutado"

	again, err := s.Get(ctx, "c", "a")
	require.NoError(t, err)
	assert.Equal(t, "x", again.Fields["n"])
}

func TestQuery_FiltrosYOrden(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Set(ctx, "branchStock", "p2_b1", repository.Fields{"branchId": "b1", "quantity": int64(3)}))
	require.NoError(t, s.Set(ctx, "branchStock", "p1_b1", repository.Fields{"branchId": "b1", "quantity": int64(5)}))
	require.NoError(t, s.Set(ctx, "branchStock", "p1_b2", repository.Fields{"branchId": "b2", "quantity": int64(5)}))

	docs, err := s.Query(ctx, "branchStock", repository.Eq("branchId", "b1"))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "p1_b1", docs[0].ID)
	assert.Equal(t, "p2_b1", docs[1].ID)

	docs, err = s.Query(ctx, "branchStock", repository.Eq("quantity", 5))
	require.NoError(t, err)
	assert.Len(t, docs, 2, "int y int64 se comparan por valor")
}

// ────────────────────────────────────────────────────────────────────────────
// RunAtomic
// ────────────────────────────────────────────────────────────────────────────

func TestRunAtomic_TodoONada(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Set(ctx, "c", "a", repository.Fields{"v": int64(1)}))

	err := s.RunAtomic(ctx, func(tx repository.DocumentTx) error {
		if _, err := tx.Get(ctx, "c", "a"); err != nil {
			return err
		}
		require.NoError(t, tx.Update(ctx, "c", "a", repository.Fields{"v": int64(2)}))
		return tx.Update(ctx, "c", "missing", repository.Fields{"v": int64(3)})
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	doc, err := s.Get(ctx, "c", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Fields["v"], "ninguna escritura debe aplicarse")
}

func TestRunAtomic_ErrorDelCallbackDescarta(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	err := s.RunAtomic(ctx, func(tx repository.DocumentTx) error {
		_, _ = tx.Create(ctx, "c", repository.Fields{"v": 1})
		return domain.ErrInsufficientStock
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	docs, err := s.Query(ctx, "c")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRunAtomic_ConflictoPorDocumento(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Set(ctx, "c", "a", repository.Fields{"v": int64(1)}))

	err := s.RunAtomic(ctx, func(tx repository.DocumentTx) error {
		if _, err := tx.Get(ctx, "c", "a"); err != nil {
			return err
		}
		// Escritura concurrente fuera de la transacción.
		require.NoError(t, s.Update(ctx, "c", "a", repository.Fields{"v": int64(7)}))
		return tx.Update(ctx, "c", "a", repository.Fields{"v": int64(2)})
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	doc, err := s.Get(ctx, "c", "a")
	require.NoError(t, err)
	assert.Equal(t, int64(7), doc.Fields["v"])
}

func TestRunAtomic_ConflictoPorAusencia(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	err := s.RunAtomic(ctx, func(tx repository.DocumentTx) error {
		_, err := tx.Get(ctx, "c", "a")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, s.Set(ctx, "c", "a", repository.Fields{"v": int64(1)}))
		return tx.Set(ctx, "c", "a", repository.Fields{"v": int64(2)})
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRunAtomic_ConflictoPorQuery(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	err := s.RunAtomic(ctx, func(tx repository.DocumentTx) error {
		if _, err := tx.Query(ctx, "products"); err != nil {
			return err
		}
		_, err := s.Create(ctx, "products", repository.Fields{"serial": "000001"})
		require.NoError(t, err)
		_, err = tx.Create(ctx, "products", repository.Fields{"serial": "000001"})
		return err
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	docs, err := s.Query(ctx, "products")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestRunAtomic_LecturaDespuesDeEscritura(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	err := s.RunAtomic(ctx, func(tx repository.DocumentTx) error {
		require.NoError(t, tx.Set(ctx, "c", "a", repository.Fields{}))
		_, err := tx.Get(ctx, "c", "a")
		return err
	})
	assert.Error(t, err)
}

// Decrementos concurrentes con lectura condicional: nunca se vende más de lo disponible.
func TestRunAtomic_DecrementosConcurrentes(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Set(ctx, "branchStock", "p1_b1", repository.Fields{"quantity": int64(10)}))

	var ok int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.RunAtomic(ctx, func(tx repository.DocumentTx) error {
				doc, err := tx.Get(ctx, "branchStock", "p1_b1")
				if err != nil {
					return err
				}
				qty := doc.Fields["quantity"].(int64)
				if qty < 1 {
					return domain.ErrInsufficientStock
				}
				return tx.Update(ctx, "branchStock", "p1_b1", repository.Fields{"quantity": qty - 1})
			})
			if err == nil {
				atomic.AddInt64(&ok, 1)
			}
		}()
	}
	wg.Wait()

	doc, err := s.Get(ctx, "branchStock", "p1_b1")
	require.NoError(t, err)
	final := doc.Fields["quantity"].(int64)
	assert.GreaterOrEqual(t, final, int64(0))
	assert.Equal(t, int64(10)-ok, final, "cada éxito descuenta exactamente una unidad")
}

// ────────────────────────────────────────────────────────────────────────────
// Subscribe
// ────────────────────────────────────────────────────────────────────────────

func TestSubscribe_SnapshotInicialYCambios(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Set(ctx, "products", "a", repository.Fields{"n": 1}))

	snaps := make(chan []repository.Document, 16)
	unsub, err := s.Subscribe(ctx, "products", func(docs []repository.Document) { snaps <- docs }, nil)
	require.NoError(t, err)
	defer unsub()

	first := <-snaps
	assert.Len(t, first, 1, "el primer snapshot trae el estado actual")

	require.NoError(t, s.Set(ctx, "products", "b", repository.Fields{"n": 2}))
	assert.Eventually(t, func() bool {
		select {
		case docs := <-snaps:
			return len(docs) == 2
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond, "cada snapshot es el conjunto completo")
}

func TestSubscribe_IgnoraOtrasColecciones(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	var calls int64
	unsub, err := s.Subscribe(ctx, "products", func([]repository.Document) { atomic.AddInt64(&calls, 1) }, nil)
	require.NoError(t, err)
	defer unsub()

	assert.Eventually(t, func() bool { return atomic.LoadInt64(&calls) == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Set(ctx, "sales", "x", repository.Fields{}))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestSubscribe_UnsubscribeDetieneEntregas(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	var calls int64
	unsub, err := s.Subscribe(ctx, "products", func([]repository.Document) { atomic.AddInt64(&calls, 1) }, nil)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return atomic.LoadInt64(&calls) == 1 }, time.Second, 5*time.Millisecond)

	unsub()
	unsub() // idempotente
	require.NoError(t, s.Set(ctx, "products", "a", repository.Fields{}))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestSubscribe_CancelarContextoLiberaFeed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := memstore.New()
	t.Cleanup(func() { _ = s.Close() })

	var calls int64
	_, err := s.Subscribe(ctx, "products", func([]repository.Document) { atomic.AddInt64(&calls, 1) }, nil)
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return atomic.LoadInt64(&calls) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, s.FeedCount("products"))

	cancel()
	assert.Eventually(t, func() bool { return s.FeedCount("products") == 0 }, time.Second, 5*time.Millisecond,
		"el feed debe salir de la colección sin llamar a Unsubscribe")

	require.NoError(t, s.Set(context.Background(), "products", "a", repository.Fields{}))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
}

func TestClose_NotificaErrorYRechaza(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()

	errs := make(chan error, 1)
	_, err := s.Subscribe(ctx, "products", func([]repository.Document) {}, func(err error) { errs <- err })
	require.NoError(t, err)

	require.NoError(t, s.Close())
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	case <-time.After(time.Second):
		t.Fatal("onError no fue invocado")
	}

	_, err = s.Get(ctx, "products", "a")
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}
