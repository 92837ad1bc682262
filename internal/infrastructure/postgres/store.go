package postgres

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

// Store implementa repository.DocumentStore sobre la tabla documents (JSONB).
// Las escrituras notifican por el canal documents_changed (trigger de la migración).
type Store struct {
	pool *pgxpool.Pool
	log  *logger.Logger

	mu      sync.Mutex
	closed  bool
	nextSub uint64
	cancels map[uint64]context.CancelFunc
	subs    sync.WaitGroup
}

// NewStore construye el almacén sobre el pool. Close no cierra el pool.
func NewStore(pool *pgxpool.Pool, log *logger.Logger) *Store {
	return &Store{pool: pool, log: log.Component("postgres.store"), cancels: make(map[uint64]context.CancelFunc)}
}

var _ repository.DocumentStore = (*Store)(nil)

func (s *Store) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("postgres store cerrado: %w", domain.ErrBackendUnavailable)
	}
	return nil
}

// Get implementa repository.DocumentQuerier.
func (s *Store) Get(ctx context.Context, collection, id string) (repository.Document, error) {
	if err := s.checkOpen(); err != nil {
		return repository.Document{}, err
	}
	return getDocument(ctx, s.pool, collection, id, false)
}

// Query implementa repository.DocumentQuerier.
func (s *Store) Query(ctx context.Context, collection string, filters ...repository.Filter) ([]repository.Document, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return queryDocuments(ctx, s.pool, collection, filters)
}

// Las escrituras sueltas corren en su propia transacción para respetar los mismos bloqueos.

func (s *Store) Create(ctx context.Context, collection string, fields repository.Fields) (string, error) {
	var id string
	err := s.RunAtomic(ctx, func(tx repository.DocumentTx) error {
		var err error
		id, err = tx.Create(ctx, collection, fields)
		return err
	})
	return id, err
}

func (s *Store) Set(ctx context.Context, collection, id string, fields repository.Fields) error {
	return s.RunAtomic(ctx, func(tx repository.DocumentTx) error {
		return tx.Set(ctx, collection, id, fields)
	})
}

func (s *Store) Update(ctx context.Context, collection, id string, fields repository.Fields) error {
	return s.RunAtomic(ctx, func(tx repository.DocumentTx) error {
		return tx.Update(ctx, collection, id, fields)
	})
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.RunAtomic(ctx, func(tx repository.DocumentTx) error {
		return tx.Delete(ctx, collection, id)
	})
}

// RunAtomic ejecuta fn en una transacción READ COMMITTED. Las lecturas toman bloqueos
// (advisory por documento y colección, más FOR UPDATE) hasta el commit; un deadlock o fallo
// de serialización se reporta como domain.ErrConflict.
func (s *Store) RunAtomic(ctx context.Context, fn func(tx repository.DocumentTx) error) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	pgxTx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return mapError("begin transaction", err)
	}
	defer func() { _ = pgxTx.Rollback(ctx) }()

	t := &tx{q: pgxTx, collections: make(map[string]lockMode)}
	if err := fn(t); err != nil {
		return err
	}
	if err := pgxTx.Commit(ctx); err != nil {
		return mapError("commit transaction", err)
	}
	return nil
}

// Close termina las suscripciones abiertas (onError recibe ErrBackendUnavailable) y espera a que
// liberen su conexión. No cierra el pool.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for id, cancel := range s.cancels {
		cancel()
		delete(s.cancels, id)
	}
	s.mu.Unlock()
	s.subs.Wait()
	s.log.Info().Msg("suscripciones cerradas")
	return nil
}

type lockMode int

const (
	lockShared lockMode = iota + 1
	lockExclusive
)

// tx implementa repository.DocumentTx.
type tx struct {
	q           Querier
	collections map[string]lockMode
}

// lockCollection toma el lock de colección: exclusivo para consultas (evita fantasmas),
// compartido para escrituras.
func (t *tx) lockCollection(ctx context.Context, collection string, mode lockMode) error {
	if t.collections[collection] >= mode {
		return nil
	}
	sql := `SELECT pg_advisory_xact_lock_shared(1, hashtext($1))`
	if mode == lockExclusive {
		sql = `SELECT pg_advisory_xact_lock(1, hashtext($1))`
	}
	if _, err := t.q.Exec(ctx, sql, collection); err != nil {
		return mapError("lock "+collection, err)
	}
	t.collections[collection] = mode
	return nil
}

// lockDoc serializa el acceso a un documento, exista o no.
func (t *tx) lockDoc(ctx context.Context, collection, id string) error {
	if _, err := t.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`, collection, id); err != nil {
		return mapError("lock "+collection+"/"+id, err)
	}
	return nil
}

func (t *tx) Get(ctx context.Context, collection, id string) (repository.Document, error) {
	if err := t.lockDoc(ctx, collection, id); err != nil {
		return repository.Document{}, err
	}
	return getDocument(ctx, t.q, collection, id, true)
}

func (t *tx) Query(ctx context.Context, collection string, filters ...repository.Filter) ([]repository.Document, error) {
	if err := t.lockCollection(ctx, collection, lockExclusive); err != nil {
		return nil, err
	}
	return queryDocuments(ctx, t.q, collection, filters)
}

func (t *tx) Create(ctx context.Context, collection string, fields repository.Fields) (string, error) {
	id := uuid.New().String()
	if err := t.Set(ctx, collection, id, fields); err != nil {
		return "", err
	}
	return id, nil
}

func (t *tx) Set(ctx context.Context, collection, id string, fields repository.Fields) error {
	if err := t.prepareWrite(ctx, collection, id); err != nil {
		return err
	}
	data, err := encode(fields)
	if err != nil {
		return err
	}
	_, err = t.q.Exec(ctx, `
		INSERT INTO documents (collection, id, data, version, updated_at)
		VALUES ($1, $2, $3::jsonb, 1, now())
		ON CONFLICT (collection, id)
		DO UPDATE SET data = EXCLUDED.data, version = documents.version + 1, updated_at = now()`,
		collection, id, data)
	return mapError("set "+collection, err)
}

func (t *tx) Update(ctx context.Context, collection, id string, fields repository.Fields) error {
	if err := t.prepareWrite(ctx, collection, id); err != nil {
		return err
	}
	data, err := encode(fields)
	if err != nil {
		return err
	}
	tag, err := t.q.Exec(ctx, `
		UPDATE documents SET data = data || $3::jsonb, version = version + 1, updated_at = now()
		WHERE collection = $1 AND id = $2`,
		collection, id, data)
	if err != nil {
		return mapError("update "+collection, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	return nil
}

func (t *tx) Delete(ctx context.Context, collection, id string) error {
	if err := t.prepareWrite(ctx, collection, id); err != nil {
		return err
	}
	_, err := t.q.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	return mapError("delete "+collection, err)
}

func (t *tx) prepareWrite(ctx context.Context, collection, id string) error {
	if err := t.lockCollection(ctx, collection, lockShared); err != nil {
		return err
	}
	return t.lockDoc(ctx, collection, id)
}

func getDocument(ctx context.Context, q Querier, collection, id string, forUpdate bool) (repository.Document, error) {
	sql := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	if forUpdate {
		sql += ` FOR UPDATE`
	}
	var raw []byte
	err := q.QueryRow(ctx, sql, collection, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.Document{}, fmt.Errorf("%s/%s: %w", collection, id, domain.ErrNotFound)
	}
	if err != nil {
		return repository.Document{}, mapError("get "+collection, err)
	}
	fields, err := decode(raw)
	if err != nil {
		return repository.Document{}, err
	}
	return repository.Document{ID: id, Fields: fields}, nil
}

func queryDocuments(ctx context.Context, q Querier, collection string, filters []repository.Filter) ([]repository.Document, error) {
	match := make(repository.Fields, len(filters))
	for _, f := range filters {
		match[f.Field] = f.Value
	}
	data, err := encode(match)
	if err != nil {
		return nil, err
	}
	rows, err := q.Query(ctx, `
		SELECT id, data FROM documents
		WHERE collection = $1 AND data @> $2::jsonb
		ORDER BY id`, collection, data)
	if err != nil {
		return nil, mapError("query "+collection, err)
	}
	defer rows.Close()

	var out []repository.Document
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, mapError("scan "+collection, err)
		}
		fields, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, repository.Document{ID: id, Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("query "+collection, err)
	}
	return out, nil
}

func encode(fields repository.Fields) (string, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("codificar documento: %w", err)
	}
	return string(b), nil
}

// decode usa json.Number para no perder precisión en los enteros.
func decode(raw []byte) (repository.Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var fields repository.Fields
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decodificar documento: %w", err)
	}
	return fields, nil
}
