// Package diskstat tracks free space on the filesystem holding the track
// cache so downloads can be refused before the disk fills up.
package diskstat

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/YannKr/tunesync/internal/metrics"
)

// Stats is a point-in-time snapshot of disk usage.
type Stats struct {
	TotalBytes uint64
	FreeBytes  uint64
	CacheBytes uint64 // bytes under the cache dir
	CapturedAt time.Time
}

// PctFree returns the percentage of disk space that is free (0–100).
func (s Stats) PctFree() float64 {
	if s.TotalBytes == 0 {
		return 100
	}
	return float64(s.FreeBytes) / float64(s.TotalBytes) * 100
}

// Cache holds the latest Stats for a directory. Refresh is driven by the
// caller, normally a scheduler task.
type Cache struct {
	mu       sync.RWMutex
	stats    Stats
	dir      string
	minFree  uint64
	statfs   func(path string) (total, free uint64, err error)
	hasStats bool
}

// New creates a Cache for dir that keeps at least minFree bytes free.
func New(dir string, minFree uint64) *Cache {
	return &Cache{dir: dir, minFree: minFree, statfs: statFS}
}

// Get returns the latest cached stats.
func (c *Cache) Get() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// HasRoom reports whether need more bytes fit while keeping the configured
// reserve. Before the first successful refresh it always allows.
func (c *Cache) HasRoom(need int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.hasStats || c.minFree == 0 {
		return true
	}
	if need < 0 {
		need = 0
	}
	return c.stats.FreeBytes >= c.minFree+uint64(need)
}

// Refresh re-reads the filesystem. Failures keep the previous values.
func (c *Cache) Refresh() {
	total, free, err := c.statfs(c.dir)
	if err != nil {
		slog.Debug("disk stats unavailable", "dir", c.dir, "error", err)
		return
	}
	s := Stats{
		TotalBytes: total,
		FreeBytes:  free,
		CacheBytes: dirSize(c.dir),
		CapturedAt: time.Now(),
	}
	c.mu.Lock()
	c.stats = s
	c.hasStats = true
	c.mu.Unlock()

	metrics.DiskFreeBytes.Set(float64(s.FreeBytes))
	metrics.CacheBytes.Set(float64(s.CacheBytes))
}

func statFS(path string) (total, free uint64, err error) {
	var stat syscall.Statfs_t
	if err = syscall.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	bsize := uint64(stat.Bsize)
	return bsize * stat.Blocks, bsize * stat.Bavail, nil
}

func dirSize(dir string) (total uint64) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += uint64(info.Size())
		}
		return nil
	})
	return
}
