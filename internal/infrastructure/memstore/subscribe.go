package memstore

import (
	"context"
	"sync"

	"github.com/jhoicas/stock-sucursales/internal/domain/repository"
)

// feed entrega snapshots completos a un suscriptor. La señal tiene capacidad 1: varias escrituras
// seguidas se funden en una sola entrega con el estado más reciente.
type feed struct {
	wake chan struct{}
	done chan struct{}
	once sync.Once

	errMu sync.Mutex
	err   error
}

func newFeed() *feed {
	return &feed{wake: make(chan struct{}, 1), done: make(chan struct{})}
}

func (f *feed) signal() {
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

func (f *feed) stop() {
	f.once.Do(func() { close(f.done) })
}

func (f *feed) fail(err error) {
	f.errMu.Lock()
	f.err = err
	f.errMu.Unlock()
	f.stop()
}

func (f *feed) failure() error {
	f.errMu.Lock()
	defer f.errMu.Unlock()
	return f.err
}

// Subscribe implementa repository.DocumentStore. El primer snapshot se entrega de inmediato.
func (s *Store) Subscribe(ctx context.Context, collection string, onSnapshot repository.SnapshotFunc, onError repository.ErrorFunc) (repository.Unsubscribe, error) {
	s.mu.Lock()
	if err := s.checkOpen(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	f := newFeed()
	s.nextID++
	id := s.nextID
	s.col(collection).feeds[id] = f
	s.mu.Unlock()

	f.signal()
	go s.run(ctx, collection, id, f, onSnapshot, onError)

	unsubscribe := func() {
		s.detach(collection, id)
		f.stop()
	}
	return unsubscribe, nil
}

// detach quita el feed de la colección; las escrituras posteriores ya no lo señalan.
func (s *Store) detach(collection string, id uint64) {
	s.mu.Lock()
	if c, ok := s.cols[collection]; ok {
		delete(c.feeds, id)
	}
	s.mu.Unlock()
}

func (s *Store) run(ctx context.Context, collection string, id uint64, f *feed, onSnapshot repository.SnapshotFunc, onError repository.ErrorFunc) {
	for {
		select {
		case <-ctx.Done():
			s.detach(collection, id)
			f.stop()
			return
		case <-f.done:
			if err := f.failure(); err != nil && onError != nil {
				onError(err)
			}
			return
		case <-f.wake:
			select {
			case <-f.done:
				continue
			default:
			}
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				continue // Close ya marcó el feed; done queda listo
			}
			docs := snapshotOf(s.col(collection), nil)
			s.mu.Unlock()
			onSnapshot(docs)
		}
	}
}
