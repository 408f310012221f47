// Package admission gates authenticated traffic per identity: a BlockList of
// temporarily banned identities and a RateLimiter that feeds it.
package admission

import (
	"log/slog"
	"sync"

	"github.com/YannKr/tunesync/internal/model"
)

// BlockList maps banned identities to their remaining ban ticks.
// It is read on every inbound message, so it sits behind an RWMutex.
type BlockList struct {
	mu      sync.RWMutex
	entries map[model.Identity]int
}

func NewBlockList() *BlockList {
	return &BlockList{entries: make(map[model.Identity]int)}
}

func (b *BlockList) Contains(id model.Identity) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.entries[id]
	return ok
}

// Block inserts id with the given ban duration, or refreshes an existing
// entry to that duration. Non-positive durations are ignored.
func (b *BlockList) Block(id model.Identity, ticks int) {
	if ticks <= 0 {
		return
	}
	b.mu.Lock()
	b.entries[id] = ticks
	b.mu.Unlock()
}

// Remaining returns the ticks left on id's ban.
func (b *BlockList) Remaining(id model.Identity) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n, ok := b.entries[id]
	return n, ok
}

// Tick decrements every entry by one and drops the ones that reach zero.
// It returns the identities released on this tick.
func (b *BlockList) Tick() []model.Identity {
	b.mu.Lock()
	defer b.mu.Unlock()

	var released []model.Identity
	for id, n := range b.entries {
		n--
		if n <= 0 {
			delete(b.entries, id)
			released = append(released, id)
			continue
		}
		b.entries[id] = n
	}
	for _, id := range released {
		slog.Info("ban expired", "identity", id)
	}
	return released
}

func (b *BlockList) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
