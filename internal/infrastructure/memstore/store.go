// Package memstore implementa repository.DocumentStore en memoria: documentos versionados,
// transacciones optimistas (validación del conjunto de lecturas al commit) y feeds de snapshots.
// Se usa con STORE_DRIVER=memory y como almacén real en los tests de casos de uso.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

var _ repository.DocumentStore = (*Store)(nil)

// errReadAfterWrite se retorna cuando una transacción lee después de haber escrito.
var errReadAfterWrite = errors.New("memstore: las lecturas deben preceder a las escrituras en la transacción")

type record struct {
	fields  repository.Fields
	version uint64
}

type collection struct {
	docs    map[string]record
	version uint64
	feeds   map[uint64]*feed
}

// Store es un almacén de documentos en memoria seguro para uso concurrente.
type Store struct {
	mu     sync.Mutex
	cols   map[string]*collection
	seq    uint64 // versión global; cada escritura toma la siguiente
	nextID uint64 // IDs de feeds
	closed bool
}

// New crea un almacén vacío.
func New() *Store {
	return &Store{cols: make(map[string]*collection)}
}

func (s *Store) col(name string) *collection {
	c, ok := s.cols[name]
	if !ok {
		c = &collection{docs: make(map[string]record), feeds: make(map[uint64]*feed)}
		s.cols[name] = c
	}
	return c
}

func (s *Store) checkOpen() error {
	if s.closed {
		return fmt.Errorf("memstore cerrado: %w", domain.ErrBackendUnavailable)
	}
	return nil
}

// Get implementa repository.DocumentQuerier.
func (s *Store) Get(ctx context.Context, collection, id string) (repository.Document, error) {
	doc, _, err := s.get(ctx, collection, id)
	return doc, err
}

func (s *Store) get(ctx context.Context, collection, id string) (repository.Document, uint64, error) {
	if err := ctx.Err(); err != nil {
		return repository.Document{}, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return repository.Document{}, 0, err
	}
	r, ok := s.col(collection).docs[id]
	if !ok {
		return repository.Document{}, 0, domain.ErrNotFound
	}
	return repository.Document{ID: id, Fields: maps.Clone(r.fields)}, r.version, nil
}

// Query implementa repository.DocumentQuerier.
func (s *Store) Query(ctx context.Context, collection string, filters ...repository.Filter) ([]repository.Document, error) {
	docs, _, err := s.query(ctx, collection, filters)
	return docs, err
}

func (s *Store) query(ctx context.Context, collection string, filters []repository.Filter) ([]repository.Document, uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, 0, err
	}
	c := s.col(collection)
	return snapshotOf(c, filters), c.version, nil
}

// snapshotOf copia los documentos que cumplen los filtros, ordenados por ID. Requiere s.mu.
func snapshotOf(c *collection, filters []repository.Filter) []repository.Document {
	out := make([]repository.Document, 0, len(c.docs))
	for id, r := range c.docs {
		if matches(r.fields, filters) {
			out = append(out, repository.Document{ID: id, Fields: maps.Clone(r.fields)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Create implementa repository.DocumentQuerier.
func (s *Store) Create(ctx context.Context, collection string, fields repository.Fields) (string, error) {
	id := uuid.NewString()
	return id, s.apply(ctx, nil, []write{{op: opSet, collection: collection, id: id, fields: fields}})
}

// Set implementa repository.DocumentQuerier.
func (s *Store) Set(ctx context.Context, collection, id string, fields repository.Fields) error {
	return s.apply(ctx, nil, []write{{op: opSet, collection: collection, id: id, fields: fields}})
}

// Update implementa repository.DocumentQuerier.
func (s *Store) Update(ctx context.Context, collection, id string, fields repository.Fields) error {
	return s.apply(ctx, nil, []write{{op: opUpdate, collection: collection, id: id, fields: fields}})
}

// Delete implementa repository.DocumentQuerier.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	return s.apply(ctx, nil, []write{{op: opDelete, collection: collection, id: id}})
}

// RunAtomic implementa repository.DocumentStore con control optimista: fn corre sin bloqueo,
// y al commit se verifica que ningún documento ni colección leídos haya cambiado.
func (s *Store) RunAtomic(ctx context.Context, fn func(tx repository.DocumentTx) error) error {
	t := &tx{s: s, reads: make(map[docKey]uint64), queries: make(map[string]uint64)}
	if err := fn(t); err != nil {
		return err
	}
	if len(t.writes) == 0 {
		return nil
	}
	return s.apply(ctx, t, t.writes)
}

// Close termina todas las suscripciones; las operaciones posteriores fallan con ErrBackendUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var feeds []*feed
	for _, c := range s.cols {
		for id, f := range c.feeds {
			feeds = append(feeds, f)
			delete(c.feeds, id)
		}
	}
	s.mu.Unlock()

	for _, f := range feeds {
		f.fail(fmt.Errorf("memstore cerrado: %w", domain.ErrBackendUnavailable))
	}
	return nil
}

type docKey struct {
	collection string
	id         string
}

type opKind int

const (
	opSet opKind = iota
	opUpdate
	opDelete
)

type write struct {
	op         opKind
	collection string
	id         string
	fields     repository.Fields
}

// apply valida el conjunto de lecturas de t (si hay) y aplica las escrituras todas o ninguna.
func (s *Store) apply(ctx context.Context, t *tx, writes []write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return err
	}

	if t != nil {
		for k, seen := range t.reads {
			var current uint64
			if r, ok := s.col(k.collection).docs[k.id]; ok {
				current = r.version
			}
			if current != seen {
				s.mu.Unlock()
				return fmt.Errorf("documento %s/%s modificado: %w", k.collection, k.id, domain.ErrConflict)
			}
		}
		for name, seen := range t.queries {
			if s.col(name).version != seen {
				s.mu.Unlock()
				return fmt.Errorf("colección %s modificada: %w", name, domain.ErrConflict)
			}
		}
	}

	// Se calcula el estado final en un overlay antes de tocar el almacén.
	overlay := make(map[docKey]*repository.Fields)
	order := make([]docKey, 0, len(writes))
	for _, w := range writes {
		k := docKey{w.collection, w.id}
		if _, seen := overlay[k]; !seen {
			order = append(order, k)
		}
		switch w.op {
		case opSet:
			f := maps.Clone(w.fields)
			if f == nil {
				f = repository.Fields{}
			}
			overlay[k] = &f
		case opUpdate:
			var base repository.Fields
			if cur, ok := overlay[k]; ok {
				if cur == nil {
					s.mu.Unlock()
					return domain.Missing(w.collection, w.id)
				}
				base = *cur
			} else if r, ok := s.col(w.collection).docs[w.id]; ok {
				base = maps.Clone(r.fields)
			} else {
				s.mu.Unlock()
				return domain.Missing(w.collection, w.id)
			}
			for field, v := range w.fields {
				base[field] = v
			}
			overlay[k] = &base
		case opDelete:
			overlay[k] = nil
		}
	}

	touched := make(map[string]bool)
	for _, k := range order {
		c := s.col(k.collection)
		s.seq++
		if f := overlay[k]; f == nil {
			if _, ok := c.docs[k.id]; !ok {
				continue
			}
			delete(c.docs, k.id)
		} else {
			c.docs[k.id] = record{fields: *f, version: s.seq}
		}
		c.version = s.seq
		touched[k.collection] = true
	}

	var notify []*feed
	for name := range touched {
		for _, f := range s.cols[name].feeds {
			notify = append(notify, f)
		}
	}
	s.mu.Unlock()

	for _, f := range notify {
		f.signal()
	}
	return nil
}

// tx es la transacción optimista de RunAtomic.
type tx struct {
	s       *Store
	reads   map[docKey]uint64
	queries map[string]uint64
	writes  []write
}

func (t *tx) Get(ctx context.Context, collection, id string) (repository.Document, error) {
	if len(t.writes) > 0 {
		return repository.Document{}, errReadAfterWrite
	}
	doc, version, err := t.s.get(ctx, collection, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return doc, err
	}
	// La ausencia también es una precondición: si otro crea el documento, hay conflicto.
	k := docKey{collection, id}
	if _, seen := t.reads[k]; !seen {
		t.reads[k] = version
	}
	return doc, err
}

func (t *tx) Query(ctx context.Context, collection string, filters ...repository.Filter) ([]repository.Document, error) {
	if len(t.writes) > 0 {
		return nil, errReadAfterWrite
	}
	docs, version, err := t.s.query(ctx, collection, filters)
	if err != nil {
		return nil, err
	}
	if _, seen := t.queries[collection]; !seen {
		t.queries[collection] = version
	}
	return docs, nil
}

func (t *tx) Create(_ context.Context, collection string, fields repository.Fields) (string, error) {
	id := uuid.NewString()
	t.writes = append(t.writes, write{op: opSet, collection: collection, id: id, fields: maps.Clone(fields)})
	return id, nil
}

func (t *tx) Set(_ context.Context, collection, id string, fields repository.Fields) error {
	t.writes = append(t.writes, write{op: opSet, collection: collection, id: id, fields: maps.Clone(fields)})
	return nil
}

func (t *tx) Update(_ context.Context, collection, id string, fields repository.Fields) error {
	t.writes = append(t.writes, write{op: opUpdate, collection: collection, id: id, fields: maps.Clone(fields)})
	return nil
}

func (t *tx) Delete(_ context.Context, collection, id string) error {
	t.writes = append(t.writes, write{op: opDelete, collection: collection, id: id})
	return nil
}
