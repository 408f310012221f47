// Package scheduler runs fixed-period background tasks until shutdown.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Task is one periodic job. Run is called once per Interval, never concurrently
// with itself.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

type Scheduler struct {
	clock  clock.Clock
	tasks  []Task
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{clock: clk}
}

// Add registers a task. Tasks with a non-positive interval are skipped.
func (s *Scheduler) Add(t Task) {
	if t.Interval <= 0 {
		slog.Info("periodic task disabled", "task", t.Name)
		return
	}
	s.tasks = append(s.tasks, t)
}

// Start launches every registered task. Tickers are created before Start
// returns, so a mock clock can be advanced right away.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, t := range s.tasks {
		ticker := s.clock.Ticker(t.Interval)
		s.wg.Add(1)
		go s.loop(ctx, t, ticker)
		slog.Info("periodic task started", "task", t.Name, "interval", t.Interval)
	}
}

// Stop cancels all tasks and waits for any in-progress run to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	slog.Info("periodic tasks stopped")
}

func (s *Scheduler) loop(ctx context.Context, t Task, ticker *clock.Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Run(ctx)
		}
	}
}
