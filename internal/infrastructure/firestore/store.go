package firestore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
	"github.com/jhoicas/stock-sucursales/pkg/logger"
)

// Store implementa repository.DocumentStore sobre Firestore. Es dueño del cliente: Close lo cierra.
type Store struct {
	client *firestore.Client
	log    *logger.Logger

	mu      sync.Mutex
	closed  bool
	nextSub uint64
	cancels map[uint64]context.CancelFunc
	subs    sync.WaitGroup
}

// NewStore construye el almacén sobre el cliente.
func NewStore(client *firestore.Client, log *logger.Logger) *Store {
	return &Store{client: client, log: log.Component("firestore.store"), cancels: make(map[uint64]context.CancelFunc)}
}

var _ repository.DocumentStore = (*Store)(nil)

func (s *Store) checkOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("firestore store cerrado: %w", domain.ErrBackendUnavailable)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (repository.Document, error) {
	if err := s.checkOpen(); err != nil {
		return repository.Document{}, err
	}
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return repository.Document{}, mapError("get "+collection+"/"+id, err)
	}
	return toDocument(snap), nil
}

func (s *Store) Query(ctx context.Context, collection string, filters ...repository.Filter) ([]repository.Document, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	it := buildQuery(s.client, collection, filters).Documents(ctx)
	return collect(collection, it)
}

func (s *Store) Create(ctx context.Context, collection string, fields repository.Fields) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}
	ref := s.client.Collection(collection).NewDoc()
	if _, err := ref.Create(ctx, map[string]any(fields)); err != nil {
		return "", mapError("create "+collection, err)
	}
	return ref.ID, nil
}

func (s *Store) Set(ctx context.Context, collection, id string, fields repository.Fields) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, map[string]any(fields))
	return mapError("set "+collection, err)
}

func (s *Store) Update(ctx context.Context, collection, id string, fields repository.Fields) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, updates(fields))
	return mapError("update "+collection+"/"+id, err)
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return mapError("delete "+collection, err)
}

// RunAtomic usa RunTransaction con un único intento: la contención se reporta como ErrConflict.
func (s *Store) RunAtomic(ctx context.Context, fn func(tx repository.DocumentTx) error) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	err := s.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		return fn(&tx{client: s.client, t: t})
	}, firestore.MaxAttempts(1))
	return mapError("transaction", err)
}

// Subscribe abre una consulta en vivo con Snapshots. Cada entrega es la colección completa.
func (s *Store) Subscribe(ctx context.Context, collection string, onSnapshot repository.SnapshotFunc, onError repository.ErrorFunc) (repository.Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return nil, fmt.Errorf("firestore store cerrado: %w", domain.ErrBackendUnavailable)
	}
	s.nextSub++
	id := s.nextSub
	s.cancels[id] = cancel
	s.subs.Add(1)
	s.mu.Unlock()

	it := s.client.Collection(collection).Snapshots(subCtx)
	go func() {
		defer s.subs.Done()
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				s.failSubscription(subCtx, err, onError)
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				s.failSubscription(subCtx, err, onError)
				return
			}
			out := make([]repository.Document, 0, len(docs))
			for _, d := range docs {
				out = append(out, toDocument(d))
			}
			sortByID(out)
			if subCtx.Err() != nil {
				return
			}
			onSnapshot(out)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.cancels, id)
			s.mu.Unlock()
			cancel()
		})
	}, nil
}

func (s *Store) failSubscription(ctx context.Context, err error, onError repository.ErrorFunc) {
	if onError == nil {
		return
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	switch {
	case closed:
		onError(fmt.Errorf("firestore store cerrado: %w", domain.ErrBackendUnavailable))
	case ctx.Err() == nil:
		onError(mapError("snapshots", err))
	}
}

// Close termina las suscripciones y cierra el cliente.
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
	return s.client.Close()
}

// tx implementa repository.DocumentTx sobre una transacción de Firestore, que ya exige
// lecturas antes de escrituras.
type tx struct {
	client *firestore.Client
	t      *firestore.Transaction
}

func (x *tx) Get(_ context.Context, collection, id string) (repository.Document, error) {
	snap, err := x.t.Get(x.client.Collection(collection).Doc(id))
	if err != nil {
		return repository.Document{}, mapError("tx get "+collection+"/"+id, err)
	}
	return toDocument(snap), nil
}

func (x *tx) Query(_ context.Context, collection string, filters ...repository.Filter) ([]repository.Document, error) {
	return collect(collection, x.t.Documents(buildQuery(x.client, collection, filters)))
}

func (x *tx) Create(_ context.Context, collection string, fields repository.Fields) (string, error) {
	ref := x.client.Collection(collection).NewDoc()
	if err := x.t.Create(ref, map[string]any(fields)); err != nil {
		return "", mapError("tx create "+collection, err)
	}
	return ref.ID, nil
}

func (x *tx) Set(_ context.Context, collection, id string, fields repository.Fields) error {
	return mapError("tx set "+collection, x.t.Set(x.client.Collection(collection).Doc(id), map[string]any(fields)))
}

func (x *tx) Update(_ context.Context, collection, id string, fields repository.Fields) error {
	return mapError("tx update "+collection, x.t.Update(x.client.Collection(collection).Doc(id), updates(fields)))
}

func (x *tx) Delete(_ context.Context, collection, id string) error {
	return mapError("tx delete "+collection, x.t.Delete(x.client.Collection(collection).Doc(id)))
}

func buildQuery(client *firestore.Client, collection string, filters []repository.Filter) firestore.Query {
	q := client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, "==", f.Value)
	}
	return q
}

func collect(collection string, it *firestore.DocumentIterator) ([]repository.Document, error) {
	defer it.Stop()
	var out []repository.Document
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, mapError("query "+collection, err)
		}
		out = append(out, toDocument(snap))
	}
	sortByID(out)
	return out, nil
}

func toDocument(snap *firestore.DocumentSnapshot) repository.Document {
	return repository.Document{ID: snap.Ref.ID, Fields: repository.Fields(snap.Data())}
}

func updates(fields repository.Fields) []firestore.Update {
	out := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		out = append(out, firestore.Update{Path: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func sortByID(docs []repository.Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
}
