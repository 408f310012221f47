package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", "/srv/tunes")
	t.Setenv("INSTANCE_KEY", "songs")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "/srv/tunes/cache", cfg.CacheDir)
	assert.Equal(t, "songs", cfg.InstanceKey)
	assert.Equal(t, 50, cfg.QueueCapacity)
	assert.Equal(t, 200, cfg.RateWindow)
	assert.Equal(t, 50, cfg.RateThreshold)
	assert.Equal(t, 10*time.Second, cfg.RateCycle)
	assert.Equal(t, 60, cfg.BanTicks)
	assert.Equal(t, time.Second, cfg.BanTick)
	assert.Equal(t, 10*time.Second, cfg.QueueCooldown)
	assert.Equal(t, time.Duration(0), cfg.QuotaReset)
	assert.Equal(t, int64(256), cfg.MinFreeDiskMB)
	assert.Equal(t, time.Minute, cfg.DiskStatsInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("QUEUE_CAPACITY", "5")
	t.Setenv("RATE_CYCLE_MS", "250")
	t.Setenv("UPGRADE_RATE_PER_MIN", "1.5")
	t.Setenv("MAX_FILE_SIZE_KB", "not-a-number")

	cfg := Load()
	assert.Equal(t, 5, cfg.QueueCapacity)
	assert.Equal(t, 250*time.Millisecond, cfg.RateCycle)
	assert.InDelta(t, 1.5, cfg.UpgradePerMin, 1e-9)
	assert.Equal(t, int64(10*1024), cfg.MaxFileSizeKB)
}
