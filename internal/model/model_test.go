package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityOfIsDeterministic(t *testing.T) {
	assert.Equal(t, IdentityOf("sean"), IdentityOf("sean"))
	assert.NotEqual(t, IdentityOf("sean"), IdentityOf("Sean"))
}

func TestContentIDUsesAllDetails(t *testing.T) {
	base := ContentIDOf("Song", "Band", "20200101")
	assert.Equal(t, base, ContentIDOf("Song", "Band", "20200101"))
	assert.NotEqual(t, base, ContentIDOf("Song", "Band", "20200102"))
	assert.NotEqual(t, base, ContentIDOf("Song", "Other", "20200101"))
	// the separator keeps field boundaries distinct
	assert.NotEqual(t, ContentIDOf("ab", "c", "d"), ContentIDOf("a", "bc", "d"))
}

func TestParseContentID(t *testing.T) {
	id := ContentIDOf("Song", "Band", "20200101")
	parsed, err := ParseContentID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseContentID("not-a-hash")
	assert.Error(t, err)
	_, err = ParseContentID("-1")
	assert.Error(t, err)
}
