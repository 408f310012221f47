package admission

import (
	"log/slog"
	"sync"

	"github.com/YannKr/tunesync/internal/model"
)

// Blocker is the narrow handle the RateLimiter uses to ban identities.
type Blocker interface {
	Block(id model.Identity, ticks int)
}

// RateLimiter keeps a bounded window of recently admitted identities. Each
// Cycle evicts the oldest entry and bans any identity still over threshold.
type RateLimiter struct {
	mu       sync.Mutex
	window   []model.Identity
	capacity int

	threshold int
	banTicks  int
	blocker   Blocker
}

func NewRateLimiter(capacity, threshold, banTicks int, blocker Blocker) *RateLimiter {
	return &RateLimiter{
		window:    make([]model.Identity, 0, capacity),
		capacity:  capacity,
		threshold: threshold,
		banTicks:  banTicks,
		blocker:   blocker,
	}
}

// Observe appends id to the window. A full window drops the observation;
// room is only made by Cycle.
func (r *RateLimiter) Observe(id model.Identity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.window) >= r.capacity {
		return false
	}
	r.window = append(r.window, id)
	return true
}

// Cycle pops the oldest observation, then bans every identity that appears
// more than threshold times in what remains. It returns the banned identities.
func (r *RateLimiter) Cycle() []model.Identity {
	over := r.evictAndCount()

	// the window lock is released before touching the block list
	for _, id := range over {
		r.blocker.Block(id, r.banTicks)
		slog.Warn("identity rate limited", "identity", id, "ban_ticks", r.banTicks)
	}
	return over
}

func (r *RateLimiter) evictAndCount() []model.Identity {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.window) > 0 {
		r.window[0] = 0
		r.window = r.window[1:]
	}

	counts := make(map[model.Identity]int, len(r.window))
	var over []model.Identity
	for _, id := range r.window {
		counts[id]++
		if counts[id] == r.threshold+1 {
			over = append(over, id)
		}
	}
	return over
}

func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.window)
}
