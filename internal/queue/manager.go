// Package queue holds pending track URLs and feeds them, one per cycle,
// through the resolver and downloader into the catalog.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/YannKr/tunesync/internal/media"
	"github.com/YannKr/tunesync/internal/metrics"
	"github.com/YannKr/tunesync/internal/model"
)

var (
	ErrQueueLimit       = errors.New("queue limit reached")
	ErrCallQuota        = errors.New("resolver call quota reached")
	ErrBandwidthQuota   = errors.New("bandwidth quota reached")
	ErrNotSingleVideo   = errors.New("expected a single track, not a playlist")
	ErrInvalidSong      = errors.New("resolved song is invalid")
	ErrMaxFileSize      = errors.New("max file size limit reached")
	ErrFailedToDownload = errors.New("failed to download")
	ErrFetchInFlight    = errors.New("a fetch is already in flight")
	ErrDiskFull         = errors.New("not enough free disk space")
)

type Resolver interface {
	Resolve(ctx context.Context, url string) (*media.Track, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, sourceURL, destDir, destName string) error
}

type Catalog interface {
	InsertSong(ctx context.Context, s *model.Song) error
}

// Space reports whether the cache filesystem can take need more bytes.
type Space interface {
	HasRoom(need int64) bool
}

// Limits bounds the queue. Zero quota values mean unlimited.
type Limits struct {
	Capacity          int
	MaxFileSizeKB     int64
	HourlyCallMax     int64
	HourlyBandwidthKB int64
}

// Outcome reports what a Cycle did with the URL it popped.
type Outcome struct {
	URL  string
	Song *model.Song
}

type Manager struct {
	resolver Resolver
	fetcher  Fetcher
	catalog  Catalog
	cacheDir string
	limits   Limits
	space    Space

	mu          sync.Mutex
	pending     []string
	calls       int64
	bandwidthKB int64

	// held for the whole resolve+fetch so only one job is ever in flight,
	// without holding mu across external processes
	inFlight *semaphore.Weighted
}

func NewManager(resolver Resolver, fetcher Fetcher, catalog Catalog, cacheDir string, limits Limits) *Manager {
	return &Manager{
		resolver: resolver,
		fetcher:  fetcher,
		catalog:  catalog,
		cacheDir: cacheDir,
		limits:   limits,
		inFlight: semaphore.NewWeighted(1),
	}
}

// GuardSpace makes Cycle refuse tracks that would not fit on disk.
func (m *Manager) GuardSpace(s Space) {
	m.space = s
}

// Enqueue appends url to the pending list, or fails with ErrQueueLimit.
func (m *Manager) Enqueue(url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) >= m.limits.Capacity {
		return ErrQueueLimit
	}
	m.pending = append(m.pending, url)
	metrics.QueuePending.Set(float64(len(m.pending)))
	return nil
}

// Pending returns a copy of the queued URLs, oldest first.
func (m *Manager) Pending() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.pending))
	copy(out, m.pending)
	return out
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Usage returns the quota counters.
func (m *Manager) Usage() (calls, bandwidthKB int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls, m.bandwidthKB
}

// ResetQuotas zeroes the call and bandwidth counters.
func (m *Manager) ResetQuotas() {
	m.mu.Lock()
	m.calls, m.bandwidthKB = 0, 0
	m.mu.Unlock()
	slog.Info("download quotas reset")
}

// Cycle processes at most one pending URL. The URL is removed from the queue
// whatever the outcome and is never re-queued. A nil Outcome with a nil error
// means there was nothing to do.
func (m *Manager) Cycle(ctx context.Context) (*Outcome, error) {
	if !m.inFlight.TryAcquire(1) {
		return nil, ErrFetchInFlight
	}
	defer m.inFlight.Release(1)

	url, err := m.next()
	if err != nil || url == "" {
		return nil, err
	}
	out := &Outcome{URL: url}

	// a started job runs to completion even if shutdown begins
	ctx = context.WithoutCancel(ctx)

	track, err := m.resolver.Resolve(ctx, url)
	if errors.Is(err, media.ErrMultiItem) {
		return out, fmt.Errorf("%w: %s", ErrNotSingleVideo, url)
	}
	if err != nil {
		return out, fmt.Errorf("%w: resolve %s: %v", ErrInvalidSong, url, err)
	}
	if track.Title == "" {
		return out, fmt.Errorf("%w: %s has no title", ErrInvalidSong, url)
	}

	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if limit := m.limits.MaxFileSizeKB; limit > 0 && track.SizeBytes > limit*1024 {
		return out, fmt.Errorf("%w: %s is %d bytes", ErrMaxFileSize, url, track.SizeBytes)
	}
	if m.space != nil && !m.space.HasRoom(track.SizeBytes) {
		return out, fmt.Errorf("%w: %s needs %d bytes", ErrDiskFull, url, track.SizeBytes)
	}

	song := &model.Song{
		ID:          model.ContentIDOf(track.Title, track.Uploader, track.UploadDate),
		Title:       track.Title,
		Uploader:    track.Uploader,
		UploadDate:  track.UploadDate,
		URL:         track.SourceURL,
		Genre:       track.Genre,
		Thumbnail:   track.Thumbnail,
		Album:       track.Album,
		AlbumArtist: track.AlbumArtist,
		Artist:      track.Artist,
		Creator:     track.Creator,
		FileSize:    track.SizeBytes,
	}
	out.Song = song

	if err := os.MkdirAll(m.cacheDir, 0755); err != nil {
		return out, fmt.Errorf("%w: create cache dir: %v", ErrFailedToDownload, err)
	}

	slog.Info("downloading song", "url", url, "id", song.ID, "title", song.Title)
	if err := m.fetcher.Fetch(ctx, track.SourceURL, m.cacheDir, song.ID.String()); err != nil {
		return out, fmt.Errorf("%w: %s: %v", ErrFailedToDownload, url, err)
	}

	m.mu.Lock()
	m.bandwidthKB += (track.SizeBytes + 1023) / 1024
	m.mu.Unlock()

	song.Downloaded = true
	if err := m.catalog.InsertSong(ctx, song); err != nil {
		return out, fmt.Errorf("insert song %s: %w", song.ID, err)
	}
	slog.Info("downloaded song", "id", song.ID, "title", song.Title)
	return out, nil
}

// next checks the quotas and pops the head of the queue.
func (m *Manager) next() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit := m.limits.HourlyBandwidthKB; limit > 0 && m.bandwidthKB > limit {
		return "", ErrBandwidthQuota
	}
	if limit := m.limits.HourlyCallMax; limit > 0 && m.calls >= limit {
		return "", ErrCallQuota
	}
	if len(m.pending) == 0 {
		return "", nil
	}
	url := m.pending[0]
	m.pending[0] = ""
	m.pending = m.pending[1:]
	return url, nil
}

// Tick runs one Cycle and logs its result. It is the body of the periodic
// download task; failures are never reported back to the requesting session.
func (m *Manager) Tick(ctx context.Context) {
	out, err := m.Cycle(ctx)
	metrics.QueuePending.Set(float64(m.Len()))
	switch {
	case errors.Is(err, ErrFetchInFlight):
		slog.Debug("download cycle skipped", "reason", err)
	case errors.Is(err, ErrCallQuota), errors.Is(err, ErrBandwidthQuota):
		metrics.Downloads.WithLabelValues("quota").Inc()
		slog.Warn("download cycle aborted", "error", err)
	case err != nil:
		metrics.Downloads.WithLabelValues(resultLabel(err)).Inc()
		slog.Error("download failed", "url", out.URL, "error", err)
	case out != nil:
		metrics.Downloads.WithLabelValues("ok").Inc()
	}
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrNotSingleVideo):
		return "not_single"
	case errors.Is(err, ErrInvalidSong):
		return "invalid"
	case errors.Is(err, ErrMaxFileSize):
		return "too_large"
	case errors.Is(err, ErrFailedToDownload):
		return "fetch_failed"
	case errors.Is(err, ErrDiskFull):
		return "disk_full"
	default:
		return "error"
	}
}
