package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleVideo(t *testing.T) {
	out := []byte(`{"_type":"video","title":"Song","uploader":"Band","upload_date":"20200101",
		"url":"https://cdn.example/a.webm","artist":"Band","album":"LP","filesize":2048}`)
	track, err := parseYTDLP(out)
	require.NoError(t, err)
	assert.Equal(t, "Song", track.Title)
	assert.Equal(t, "Band", track.Uploader)
	assert.Equal(t, "20200101", track.UploadDate)
	assert.Equal(t, "https://cdn.example/a.webm", track.SourceURL)
	assert.Equal(t, "LP", track.Album)
	assert.Equal(t, int64(2048), track.SizeBytes)
}

func TestParseFallsBackToApproxSize(t *testing.T) {
	track, err := parseYTDLP([]byte(`{"title":"Song","filesize_approx":4096}`))
	require.NoError(t, err)
	assert.Equal(t, int64(4096), track.SizeBytes)
}

func TestParseRejectsPlaylists(t *testing.T) {
	_, err := parseYTDLP([]byte(`{"_type":"playlist","title":"Mix","entries":[{},{}]}`))
	assert.ErrorIs(t, err, ErrMultiItem)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := parseYTDLP([]byte(`not json`))
	assert.Error(t, err)
}

// writeScript installs a fake executable standing in for an external tool.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestResolveRunsBinary(t *testing.T) {
	bin := writeScript(t, `echo '{"_type":"video","title":"Song","uploader":"Band","upload_date":"20200101"}'`)
	y := &YTDLP{Bin: bin, Retries: 3}
	track, err := y.Resolve(context.Background(), "https://example/track")
	require.NoError(t, err)
	assert.Equal(t, "Song", track.Title)
}

func TestResolveSurfacesExitStatus(t *testing.T) {
	y := &YTDLP{Bin: writeScript(t, "exit 1")}
	_, err := y.Resolve(context.Background(), "https://example/track")
	assert.Error(t, err)
}

func TestFetchReportsFailure(t *testing.T) {
	ok := &Aria2{Bin: writeScript(t, "exit 0")}
	assert.NoError(t, ok.Fetch(context.Background(), "https://cdn.example/a", t.TempDir(), "1"))

	bad := &Aria2{Bin: writeScript(t, "echo boom >&2; exit 3")}
	err := bad.Fetch(context.Background(), "https://cdn.example/a", t.TempDir(), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
