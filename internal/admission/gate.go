package admission

import "github.com/YannKr/tunesync/internal/model"

// Gate is the admission check run before every authenticated command.
// It takes the BlockList and RateLimiter locks one after the other, never both.
type Gate struct {
	Blocks  *BlockList
	Limiter *RateLimiter
}

func NewGate(blocks *BlockList, limiter *RateLimiter) *Gate {
	return &Gate{Blocks: blocks, Limiter: limiter}
}

// Admit reports whether a message from id may be processed. Blocked
// identities are refused without touching the rate window.
func (g *Gate) Admit(id model.Identity) bool {
	if g.Blocks.Contains(id) {
		return false
	}
	g.Limiter.Observe(id)
	return true
}
