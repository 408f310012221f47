package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr  string
	DataDir     string
	CacheDir    string
	InstanceKey string
	AdminKey    string
	LogLevel    string

	QueueCooldown     time.Duration
	QueueCapacity     int
	MaxFileSizeKB     int64
	HourlyCallMax     int64
	HourlyBandwidthKB int64
	QuotaReset        time.Duration

	RateWindow    int
	RateThreshold int
	RateCycle     time.Duration
	BanTicks      int
	BanTick       time.Duration

	ResolverBin    string
	FetcherBin     string
	ResolveTimeout time.Duration
	ResolveRetries int

	UpgradePerMin float64
	UpgradeBurst  int
	SendBuffer    int

	MinFreeDiskMB     int64
	DiskStatsInterval time.Duration

	DBConnectAttempts int
}

func Load() *Config {
	dataDir := envOr("DATA_DIR", "./data")
	return &Config{
		ListenAddr:  envOr("LISTEN_ADDR", ":8080"),
		DataDir:     dataDir,
		CacheDir:    envOr("CACHE_DIR", filepath.Join(dataDir, "cache")),
		InstanceKey: os.Getenv("INSTANCE_KEY"),
		AdminKey:    os.Getenv("ADMIN_KEY"),
		LogLevel:    envOr("LOG_LEVEL", "info"),

		QueueCooldown:     time.Duration(envIntOr("QUEUE_COOLDOWN_SECS", 10)) * time.Second,
		QueueCapacity:     envIntOr("QUEUE_CAPACITY", 50),
		MaxFileSizeKB:     envInt64Or("MAX_FILE_SIZE_KB", 10*1024),
		HourlyCallMax:     envInt64Or("HOURLY_CALL_MAX", 0),
		HourlyBandwidthKB: envInt64Or("HOURLY_BANDWIDTH_MAX_KB", 0),
		QuotaReset:        time.Duration(envIntOr("QUOTA_RESET_MINS", 0)) * time.Minute,

		RateWindow:    envIntOr("RATE_WINDOW", 200),
		RateThreshold: envIntOr("RATE_THRESHOLD", 50),
		RateCycle:     time.Duration(envIntOr("RATE_CYCLE_MS", 10000)) * time.Millisecond,
		BanTicks:      envIntOr("BAN_TICKS", 60),
		BanTick:       time.Duration(envIntOr("BAN_TICK_MS", 1000)) * time.Millisecond,

		ResolverBin:    envOr("RESOLVER_BIN", "yt-dlp"),
		FetcherBin:     envOr("FETCHER_BIN", "aria2c"),
		ResolveTimeout: time.Duration(envIntOr("RESOLVE_TIMEOUT_SECS", 30)) * time.Second,
		ResolveRetries: envIntOr("RESOLVE_RETRIES", 3),

		UpgradePerMin: envFloatOr("UPGRADE_RATE_PER_MIN", 30),
		UpgradeBurst:  envIntOr("UPGRADE_BURST", 10),
		SendBuffer:    envIntOr("SEND_BUFFER", 64),

		MinFreeDiskMB:     envInt64Or("MIN_FREE_DISK_MB", 256),
		DiskStatsInterval: time.Duration(envIntOr("DISK_STATS_SECS", 60)) * time.Second,

		DBConnectAttempts: envIntOr("DB_CONNECT_ATTEMPTS", 5),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64Or(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return fallback
}
