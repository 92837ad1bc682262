package identity

import "sync"

// EventKind tipo de evento de sesión.
type EventKind int

const (
	SignedIn EventKind = iota + 1
	SignedOut
)

func (k EventKind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	default:
		return "unknown"
	}
}

// Event es un cambio en el ciclo de vida de una sesión.
type Event struct {
	Kind     EventKind
	Identity Identity
	// Active es la cantidad de sesiones abiertas después del evento.
	Active int
}

// Listener recibe los eventos en el orden en que ocurren.
type Listener func(Event)

// Bus registra las sesiones abiertas y publica SignedIn / SignedOut a los oyentes.
// Cerrar una sesión desconocida o ya cerrada no publica nada.
type Bus struct {
	mu        sync.Mutex
	sessions  map[string]Identity
	listeners []Listener
}

// NewBus crea un bus sin sesiones.
func NewBus() *Bus {
	return &Bus{sessions: make(map[string]Identity)}
}

// Listen registra un oyente.
func (b *Bus) Listen(l Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// SignIn abre la sesión id.SessionID. Reabrir una sesión ya abierta no publica de nuevo.
func (b *Bus) SignIn(id Identity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, open := b.sessions[id.SessionID]; open {
		return
	}
	b.sessions[id.SessionID] = id
	b.publish(Event{Kind: SignedIn, Identity: id, Active: len(b.sessions)})
}

// SignOut cierra la sesión. Retorna false si no estaba abierta.
func (b *Bus) SignOut(sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, open := b.sessions[sessionID]
	if !open {
		return false
	}
	delete(b.sessions, sessionID)
	b.publish(Event{Kind: SignedOut, Identity: id, Active: len(b.sessions)})
	return true
}

// Active cantidad de sesiones abiertas.
func (b *Bus) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// IsOpen indica si la sesión sigue abierta.
func (b *Bus) IsOpen(sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, open := b.sessions[sessionID]
	return open
}

// publish se llama con b.mu tomado para que los oyentes vean los eventos en orden.
func (b *Bus) publish(ev Event) {
	for _, l := range b.listeners {
		l(ev)
	}
}
