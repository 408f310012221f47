package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/YannKr/tunesync/internal/metrics"
	"github.com/YannKr/tunesync/internal/model"
)

// Registry is the set of live connections keyed by connection id.
type Registry struct {
	mu     sync.RWMutex
	conns  map[string]*Connection
	buffer int
}

// NewRegistry creates a registry whose connections buffer up to buffer
// outbound messages each.
func NewRegistry(buffer int) *Registry {
	if buffer <= 0 {
		buffer = 1
	}
	return &Registry{
		conns:  make(map[string]*Connection),
		buffer: buffer,
	}
}

// Open registers a new Unauthenticated connection.
func (r *Registry) Open() *Connection {
	c := newConnection(uuid.NewString(), r.buffer)

	r.mu.Lock()
	r.conns[c.ID] = c
	r.mu.Unlock()

	metrics.ConnectionsActive.Inc()
	return c
}

// Remove drops the connection and closes its outbound channel. It is safe to
// call more than once; only the first call reports true.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	c, ok := r.conns[id]
	delete(r.conns, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	c.close()
	metrics.ConnectionsActive.Dec()
	return true
}

func (r *Registry) Get(id string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Broadcast sends msg to every authenticated connection with the given
// identity and returns how many accepted it. Sends never block, so a stalled
// peer only loses its own copy.
func (r *Registry) Broadcast(id model.Identity, msg string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	delivered := 0
	for _, c := range r.conns {
		if got, ok := c.Identity(); !ok || got != id {
			continue
		}
		if c.Send(msg) {
			delivered++
		}
	}
	return delivered
}

// CloseAll removes every connection. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]*Connection)
	r.mu.Unlock()

	for _, c := range conns {
		if c.close() {
			metrics.ConnectionsActive.Dec()
		}
	}
}
