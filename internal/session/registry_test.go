package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YannKr/tunesync/internal/model"
)

func drain(c *Connection) []string {
	var out []string
	for {
		select {
		case msg, ok := <-c.Outbound():
			if !ok {
				return out
			}
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestBroadcastByIdentity(t *testing.T) {
	r := NewRegistry(4)
	sean, other := model.IdentityOf("sean"), model.IdentityOf("other")

	a, b, c, anon := r.Open(), r.Open(), r.Open(), r.Open()
	require.True(t, a.authenticate(sean, false))
	require.True(t, b.authenticate(sean, false))
	require.True(t, c.authenticate(other, false))

	assert.Equal(t, 2, r.Broadcast(sean, "PLAY"))
	assert.Equal(t, []string{"PLAY"}, drain(a))
	assert.Equal(t, []string{"PLAY"}, drain(b))
	assert.Empty(t, drain(c))
	assert.Empty(t, drain(anon), "unauthenticated connections have no identity")
}

func TestBroadcastSkipsFullChannel(t *testing.T) {
	r := NewRegistry(1)
	id := model.IdentityOf("sean")
	slow, fast := r.Open(), r.Open()
	slow.authenticate(id, false)
	fast.authenticate(id, false)

	require.True(t, slow.Send("pending"))
	assert.Equal(t, 1, r.Broadcast(id, "PAUSE"))
	assert.Equal(t, []string{"pending"}, drain(slow))
	assert.Equal(t, []string{"PAUSE"}, drain(fast))
}

func TestRemoveClosesOutbound(t *testing.T) {
	r := NewRegistry(2)
	c := r.Open()
	require.Equal(t, 1, r.Len())

	assert.True(t, r.Remove(c.ID))
	assert.False(t, r.Remove(c.ID))
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, Closed, c.State())
	assert.False(t, c.Send("late"), "sends after close are dropped")

	_, ok := <-c.Outbound()
	assert.False(t, ok)
	_, found := r.Get(c.ID)
	assert.False(t, found)
}

func TestAuthenticateOnlyOnce(t *testing.T) {
	c := newConnection("x", 1)
	assert.True(t, c.authenticate(1, true))
	assert.False(t, c.authenticate(2, false))
	id, ok := c.Identity()
	assert.True(t, ok)
	assert.Equal(t, model.Identity(1), id)
	assert.True(t, c.IsAdmin())
}

func TestCloseAll(t *testing.T) {
	r := NewRegistry(1)
	a, b := r.Open(), r.Open()
	r.CloseAll()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, Closed, a.State())
	assert.Equal(t, Closed, b.State())
}
