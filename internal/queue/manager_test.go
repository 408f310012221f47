package queue

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YannKr/tunesync/internal/media"
	"github.com/YannKr/tunesync/internal/model"
)

type fakeResolver struct {
	mu     sync.Mutex
	tracks map[string]*media.Track
	err    error
	calls  []string
}

func (f *fakeResolver) Resolve(_ context.Context, url string) (*media.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tracks[url]
	if !ok {
		return nil, fmt.Errorf("no such url")
	}
	return t, nil
}

type fetchCall struct {
	source, dir, name string
}

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []fetchCall
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeFetcher) Fetch(_ context.Context, source, dir, name string) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{source, dir, name})
	return f.err
}

type fakeCatalog struct {
	mu    sync.Mutex
	songs []model.Song
}

func (c *fakeCatalog) InsertSong(_ context.Context, s *model.Song) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.songs = append(c.songs, *s)
	return nil
}

func track(title string, size int64) *media.Track {
	return &media.Track{
		Title: title, Uploader: "Band", UploadDate: "20200101",
		SourceURL: "https://cdn.example/" + title, SizeBytes: size,
	}
}

func newTestManager(t *testing.T, limits Limits) (*Manager, *fakeResolver, *fakeFetcher, *fakeCatalog) {
	t.Helper()
	r := &fakeResolver{tracks: map[string]*media.Track{}}
	f := &fakeFetcher{}
	c := &fakeCatalog{}
	if limits.Capacity == 0 {
		limits.Capacity = 50
	}
	return NewManager(r, f, c, filepath.Join(t.TempDir(), "cache"), limits), r, f, c
}

func TestEnqueueCapacity(t *testing.T) {
	m, _, _, _ := newTestManager(t, Limits{Capacity: 50})
	for i := 0; i < 50; i++ {
		require.NoError(t, m.Enqueue(fmt.Sprintf("https://example/%d", i)))
	}
	assert.ErrorIs(t, m.Enqueue("https://example/overflow"), ErrQueueLimit)
	assert.Equal(t, 50, m.Len())
	assert.Equal(t, "https://example/0", m.Pending()[0])
}

func TestCycleEmptyQueue(t *testing.T) {
	m, r, _, _ := newTestManager(t, Limits{})
	out, err := m.Cycle(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, out)
	assert.Empty(t, r.calls)
}

func TestCycleDownloadsOneTrack(t *testing.T) {
	m, r, f, c := newTestManager(t, Limits{MaxFileSizeKB: 10})
	r.tracks["https://example/track"] = track("Song", 4096)
	r.tracks["https://example/second"] = track("Other", 10)
	require.NoError(t, m.Enqueue("https://example/track"))
	require.NoError(t, m.Enqueue("https://example/second"))

	out, err := m.Cycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, out.Song)

	want := model.ContentIDOf("Song", "Band", "20200101")
	assert.Equal(t, want, out.Song.ID)
	require.Len(t, f.calls, 1)
	assert.Equal(t, fetchCall{"https://cdn.example/Song", m.cacheDir, want.String()}, f.calls[0])
	assert.DirExists(t, m.cacheDir)

	require.Len(t, c.songs, 1)
	assert.True(t, c.songs[0].Downloaded)
	assert.Equal(t, "Song", c.songs[0].Title)

	assert.Equal(t, []string{"https://example/second"}, m.Pending(), "only the head is consumed")
	calls, kb := m.Usage()
	assert.Equal(t, int64(1), calls)
	assert.Equal(t, int64(4), kb)
}

func TestCycleRejections(t *testing.T) {
	tests := []struct {
		name    string
		track   *media.Track
		resErr  error
		fetch   error
		wantErr error
		fetched bool
	}{
		{name: "playlist", resErr: fmt.Errorf("wrap: %w", media.ErrMultiItem), wantErr: ErrNotSingleVideo},
		{name: "resolver failure", resErr: errors.New("exit 1"), wantErr: ErrInvalidSong},
		{name: "no title", track: track("", 1), wantErr: ErrInvalidSong},
		{name: "too large", track: track("Big", 11*1024), wantErr: ErrMaxFileSize},
		{name: "fetch fails", track: track("Song", 1), fetch: errors.New("exit 3"), wantErr: ErrFailedToDownload, fetched: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, r, f, c := newTestManager(t, Limits{MaxFileSizeKB: 10})
			r.err = tt.resErr
			r.tracks["https://example/x"] = tt.track
			f.err = tt.fetch
			require.NoError(t, m.Enqueue("https://example/x"))

			out, err := m.Cycle(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
			require.NotNil(t, out)
			assert.Equal(t, "https://example/x", out.URL)
			assert.Empty(t, c.songs, "rejected jobs never reach the catalog")
			assert.Equal(t, tt.fetched, len(f.calls) == 1)
			assert.Zero(t, m.Len(), "the job is not re-queued")
		})
	}
}

func TestCallQuotaAbortsWithoutPopping(t *testing.T) {
	m, r, _, _ := newTestManager(t, Limits{HourlyCallMax: 1})
	r.tracks["https://example/a"] = track("A", 1)
	r.tracks["https://example/b"] = track("B", 1)
	require.NoError(t, m.Enqueue("https://example/a"))
	require.NoError(t, m.Enqueue("https://example/b"))

	_, err := m.Cycle(context.Background())
	require.NoError(t, err)

	_, err = m.Cycle(context.Background())
	assert.ErrorIs(t, err, ErrCallQuota)
	assert.Equal(t, []string{"https://example/b"}, m.Pending())

	m.ResetQuotas()
	_, err = m.Cycle(context.Background())
	assert.NoError(t, err)
}

func TestBandwidthQuota(t *testing.T) {
	m, r, _, _ := newTestManager(t, Limits{HourlyBandwidthKB: 1})
	r.tracks["https://example/a"] = track("A", 4096)
	require.NoError(t, m.Enqueue("https://example/a"))
	require.NoError(t, m.Enqueue("https://example/b"))

	_, err := m.Cycle(context.Background())
	require.NoError(t, err)
	_, err = m.Cycle(context.Background())
	assert.ErrorIs(t, err, ErrBandwidthQuota)
	assert.Equal(t, 1, m.Len())
}

func TestOnlyOneFetchInFlight(t *testing.T) {
	m, r, f, _ := newTestManager(t, Limits{})
	f.block = make(chan struct{})
	f.started = make(chan struct{}, 1)
	r.tracks["https://example/a"] = track("A", 1)
	r.tracks["https://example/b"] = track("B", 1)
	require.NoError(t, m.Enqueue("https://example/a"))
	require.NoError(t, m.Enqueue("https://example/b"))

	done := make(chan error, 1)
	go func() {
		_, err := m.Cycle(context.Background())
		done <- err
	}()

	select {
	case <-f.started:
	case <-time.After(time.Second):
		t.Fatal("first fetch never started")
	}

	_, err := m.Cycle(context.Background())
	assert.ErrorIs(t, err, ErrFetchInFlight)
	require.NoError(t, m.Enqueue("https://example/c"), "enqueue is not blocked by a running fetch")

	close(f.block)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"https://example/b", "https://example/c"}, m.Pending())
}

func TestTickLogsAndContinues(t *testing.T) {
	m, r, _, _ := newTestManager(t, Limits{})
	r.err = errors.New("boom")
	require.NoError(t, m.Enqueue("https://example/a"))
	m.Tick(context.Background())
	m.Tick(context.Background())
	assert.Zero(t, m.Len())
}

type fixedSpace bool

func (s fixedSpace) HasRoom(int64) bool { return bool(s) }

func TestDiskGuardRejectsBeforeFetch(t *testing.T) {
	m, r, f, c := newTestManager(t, Limits{})
	m.GuardSpace(fixedSpace(false))
	r.tracks["https://example/a"] = track("A", 1)
	require.NoError(t, m.Enqueue("https://example/a"))

	_, err := m.Cycle(context.Background())
	assert.ErrorIs(t, err, ErrDiskFull)
	assert.Empty(t, f.calls)
	assert.Empty(t, c.songs)
	assert.Equal(t, "disk_full", resultLabel(err))
}
