package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/stock-sucursales/internal/domain"
	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

const notifyChannel = "documents_changed"

// Subscribe implementa repository.DocumentStore con LISTEN sobre una conexión dedicada del pool.
// Cada notificación de la colección dispara una consulta completa de la colección.
func (s *Store) Subscribe(ctx context.Context, collection string, onSnapshot repository.SnapshotFunc, onError repository.ErrorFunc) (repository.Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return nil, fmt.Errorf("postgres store cerrado: %w", domain.ErrBackendUnavailable)
	}
	s.nextSub++
	id := s.nextSub
	s.cancels[id] = cancel
	s.subs.Add(1)
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		delete(s.cancels, id)
		s.mu.Unlock()
		cancel()
	}

	conn, err := s.pool.Acquire(subCtx)
	if err != nil {
		release()
		s.subs.Done()
		return nil, mapError("acquire listen conn", err)
	}
	if _, err := conn.Exec(subCtx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		release()
		s.subs.Done()
		return nil, mapError("listen", err)
	}

	go func() {
		defer s.subs.Done()
		defer conn.Release()
		// UNLISTEN antes de devolver la conexión al pool.
		defer func() { _, _ = conn.Exec(context.Background(), "UNLISTEN "+notifyChannel) }()

		fail := func(err error) {
			if onError == nil {
				return
			}
			if s.isClosed() {
				onError(fmt.Errorf("postgres store cerrado: %w", domain.ErrBackendUnavailable))
				return
			}
			if subCtx.Err() == nil {
				onError(err)
			}
		}
		deliver := func() bool {
			docs, err := queryDocuments(subCtx, s.pool, collection, nil)
			if err != nil {
				fail(err)
				return false
			}
			if subCtx.Err() != nil {
				fail(subCtx.Err())
				return false
			}
			onSnapshot(docs)
			return true
		}

		if !deliver() {
			return
		}
		for {
			n, err := conn.Conn().WaitForNotification(subCtx)
			if err != nil {
				fail(mapError("wait notification", err))
				return
			}
			if n.Payload == collection && !deliver() {
				return
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
