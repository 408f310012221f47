// Package session owns live socket connections: the registry used for relay
// fan-out, the per-connection authentication state machine and the command
// router that runs once a connection is authenticated.
package session

import (
	"sync"

	"github.com/YannKr/tunesync/internal/model"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
	Closed
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Connection is one registered socket. Outbound text goes through a bounded
// channel drained by the transport's write loop.
type Connection struct {
	ID string

	mu       sync.RWMutex
	send     chan string
	state    State
	identity model.Identity
	admin    bool
}

func newConnection(id string, buffer int) *Connection {
	return &Connection{ID: id, send: make(chan string, buffer)}
}

// Outbound is closed once the connection leaves the registry.
func (c *Connection) Outbound() <-chan string {
	return c.send
}

func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Identity returns the identity set by a successful AUTH.
func (c *Connection) Identity() (model.Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity, c.state == Authenticated
}

func (c *Connection) IsAdmin() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.admin
}

// Send queues msg without blocking. It reports false when the outbound
// channel is full or already closed; the message is then dropped.
func (c *Connection) Send(msg string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == Closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// authenticate is the only Unauthenticated -> Authenticated transition.
func (c *Connection) authenticate(id model.Identity, admin bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Unauthenticated {
		return false
	}
	c.identity = id
	c.admin = admin
	c.state = Authenticated
	return true
}

func (c *Connection) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return false
	}
	c.state = Closed
	close(c.send)
	return true
}
