package admission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YannKr/tunesync/internal/model"
)

func TestBlockListTicksDownToRemoval(t *testing.T) {
	b := NewBlockList()
	id := model.IdentityOf("noisy")
	b.Block(id, 3)

	for want := 2; want >= 1; want-- {
		assert.Empty(t, b.Tick())
		n, ok := b.Remaining(id)
		require.True(t, ok)
		assert.Equal(t, want, n)
	}

	assert.Equal(t, []model.Identity{id}, b.Tick())
	_, ok := b.Remaining(id)
	assert.False(t, ok)
	assert.False(t, b.Contains(id))
	assert.Empty(t, b.Tick(), "released entries never go negative")
}

func TestBlockRefreshesDuration(t *testing.T) {
	b := NewBlockList()
	id := model.IdentityOf("noisy")
	b.Block(id, 5)
	b.Tick()
	b.Block(id, 5)
	n, _ := b.Remaining(id)
	assert.Equal(t, 5, n)

	b.Block(model.IdentityOf("other"), 0)
	assert.Equal(t, 1, b.Len())
}

func TestObserveDropsWhenFull(t *testing.T) {
	r := NewRateLimiter(3, 10, 5, NewBlockList())
	for i := 0; i < 3; i++ {
		assert.True(t, r.Observe(model.Identity(i)))
	}
	assert.False(t, r.Observe(model.Identity(9)))
	assert.Equal(t, 3, r.Len())

	r.Cycle()
	assert.Equal(t, 2, r.Len())
	assert.True(t, r.Observe(model.Identity(9)))
}

func TestCycleOnEmptyWindow(t *testing.T) {
	r := NewRateLimiter(3, 1, 5, NewBlockList())
	assert.Empty(t, r.Cycle())
	assert.Equal(t, 0, r.Len())
}

func TestThresholdBreachBansForConfiguredTicks(t *testing.T) {
	const (
		window    = 200
		threshold = 50
		banTicks  = 60
	)
	blocks := NewBlockList()
	gate := NewGate(blocks, NewRateLimiter(window, threshold, banTicks, blocks))
	hot := model.IdentityOf("hot")
	calm := model.IdentityOf("calm")

	// one extra message survives the eviction at the head of the window
	for i := 0; i < threshold+2; i++ {
		require.True(t, gate.Admit(hot))
	}
	for i := 0; i < threshold; i++ {
		require.True(t, gate.Admit(calm))
	}

	assert.Equal(t, []model.Identity{hot}, gate.Limiter.Cycle())
	assert.False(t, blocks.Contains(calm))

	before := gate.Limiter.Len()
	for i := 0; i < banTicks; i++ {
		assert.False(t, gate.Admit(hot), "tick %d", i)
		blocks.Tick()
	}
	assert.Equal(t, before, gate.Limiter.Len(), "blocked messages never reach the window")
	assert.True(t, gate.Admit(hot))
}

func TestExactlyThresholdIsNotBanned(t *testing.T) {
	blocks := NewBlockList()
	r := NewRateLimiter(200, 50, 60, blocks)
	id := model.IdentityOf("edge")
	r.Observe(model.IdentityOf("first"))
	for i := 0; i < 50; i++ {
		r.Observe(id)
	}
	assert.Empty(t, r.Cycle())
	assert.False(t, blocks.Contains(id))
}

type recordingBlocker struct {
	calls map[model.Identity]int
}

func (b *recordingBlocker) Block(id model.Identity, ticks int) {
	b.calls[id] = ticks
}

func TestRateLimiterUsesBlockerHandle(t *testing.T) {
	rec := &recordingBlocker{calls: map[model.Identity]int{}}
	r := NewRateLimiter(10, 2, 7, rec)
	for i := 0; i < 5; i++ {
		r.Observe(42)
	}
	r.Cycle()
	assert.Equal(t, map[model.Identity]int{42: 7}, rec.calls)
}
