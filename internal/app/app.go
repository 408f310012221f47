package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	tunesync "github.com/YannKr/tunesync"
	"github.com/YannKr/tunesync/internal/admission"
	"github.com/YannKr/tunesync/internal/config"
	"github.com/YannKr/tunesync/internal/db"
	"github.com/YannKr/tunesync/internal/diskstat"
	"github.com/YannKr/tunesync/internal/handler"
	"github.com/YannKr/tunesync/internal/media"
	"github.com/YannKr/tunesync/internal/metrics"
	"github.com/YannKr/tunesync/internal/queue"
	"github.com/YannKr/tunesync/internal/scheduler"
	"github.com/YannKr/tunesync/internal/session"
)

const shutdownTimeout = 10 * time.Second

// App is the application context. It is built once at startup and handed to
// every background task and handler; nothing below it is a global.
type App struct {
	Cfg *config.Config
	DB  *sql.DB

	Store     *db.Store
	Blocks    *admission.BlockList
	Limiter   *admission.RateLimiter
	Queue     *queue.Manager
	Disk      *diskstat.Cache
	Registry  *session.Registry
	Sessions  *session.Dispatcher
	Scheduler *scheduler.Scheduler
}

// New opens the store and wires every component. Failing to reach the store
// after the configured attempts is the one fatal startup error.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.InstanceKey == "" {
		return nil, errors.New("INSTANCE_KEY is required")
	}

	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	database, err := db.Open(ctx, cfg.DataDir, cfg.DBConnectAttempts)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, database, tunesync.MigrationFS); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	slog.Info("database ready")

	store := db.NewStore(database)

	blocks := admission.NewBlockList()
	limiter := admission.NewRateLimiter(cfg.RateWindow, cfg.RateThreshold, cfg.BanTicks, blocks)

	resolver := &media.YTDLP{Bin: cfg.ResolverBin, Timeout: cfg.ResolveTimeout, Retries: cfg.ResolveRetries}
	fetcher := &media.Aria2{Bin: cfg.FetcherBin}
	mgr := queue.NewManager(resolver, fetcher, store, cfg.CacheDir, queue.Limits{
		Capacity:          cfg.QueueCapacity,
		MaxFileSizeKB:     cfg.MaxFileSizeKB,
		HourlyCallMax:     cfg.HourlyCallMax,
		HourlyBandwidthKB: cfg.HourlyBandwidthKB,
	})
	disk := diskstat.New(cfg.CacheDir, uint64(max(cfg.MinFreeDiskMB, 0))<<20)
	disk.Refresh()
	mgr.GuardSpace(disk)

	registry := session.NewRegistry(cfg.SendBuffer)
	sessions := session.NewDispatcher(store, mgr, admission.NewGate(blocks, limiter), registry, session.Secrets{
		InstanceKey: cfg.InstanceKey,
		AdminKey:    cfg.AdminKey,
	})

	a := &App{
		Cfg:       cfg,
		DB:        database,
		Store:     store,
		Blocks:    blocks,
		Limiter:   limiter,
		Queue:     mgr,
		Disk:      disk,
		Registry:  registry,
		Sessions:  sessions,
		Scheduler: scheduler.New(nil),
	}
	for _, t := range a.tasks() {
		a.Scheduler.Add(t)
	}
	return a, nil
}

// tasks are the fixed-period background jobs. A zero interval disables one.
func (a *App) tasks() []scheduler.Task {
	return []scheduler.Task{
		{Name: "download-queue", Interval: a.Cfg.QueueCooldown, Run: a.Queue.Tick},
		{Name: "rate-limit-cycle", Interval: a.Cfg.RateCycle, Run: a.cycleRateLimiter},
		{Name: "ban-tick", Interval: a.Cfg.BanTick, Run: a.tickBans},
		{Name: "quota-reset", Interval: a.Cfg.QuotaReset, Run: func(context.Context) { a.Queue.ResetQuotas() }},
		{Name: "disk-stats", Interval: a.Cfg.DiskStatsInterval, Run: func(context.Context) { a.Disk.Refresh() }},
	}
}

func (a *App) cycleRateLimiter(context.Context) {
	if banned := a.Limiter.Cycle(); len(banned) > 0 {
		metrics.BlockedIdentities.Set(float64(a.Blocks.Len()))
	}
}

func (a *App) tickBans(context.Context) {
	a.Blocks.Tick()
	metrics.BlockedIdentities.Set(float64(a.Blocks.Len()))
}

// Close releases what New acquired.
func (a *App) Close() error {
	a.Registry.CloseAll()
	return a.DB.Close()
}

func Run(ctx context.Context, cfg *config.Config) (err error) {
	a, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, a.Close())
	}()

	a.Scheduler.Start(ctx)
	defer a.Scheduler.Stop()

	// Per-IP throttle on websocket upgrades
	upgradeRL := handler.NewRateLimiter(cfg.UpgradePerMin, cfg.UpgradeBurst)
	defer upgradeRL.Stop()

	h := handler.New(cfg, a.Sessions)
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: h.Routes(upgradeRL),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
