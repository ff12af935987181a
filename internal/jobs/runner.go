// Package jobs runs the background sweeps on fixed intervals inside the API
// process: budget completion and the two aggregate reconcilers.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
)

// Task is one periodic job. Run must be safe to call again after a failure;
// every sweep in this module is idempotent.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type Runner struct {
	log   *slog.Logger
	tasks []Task
	wg    sync.WaitGroup
}

func NewRunner(log *slog.Logger) *Runner {
	return &Runner{log: logger.OrDefault(log).With("component", "jobs")}
}

// Add registers a task. Tasks with a non-positive interval are skipped.
func (r *Runner) Add(t Task) {
	if t.Interval <= 0 || t.Run == nil {
		r.log.Info("job disabled", "job", t.Name)
		return
	}
	r.tasks = append(r.tasks, t)
}

// Start runs each task once right away, then on its ticker, until ctx is done.
// A task never overlaps with itself.
func (r *Runner) Start(ctx context.Context) {
	for _, t := range r.tasks {
		r.wg.Add(1)
		go r.loop(ctx, t)
	}
}

// Wait blocks until every task loop has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, t Task) {
	defer r.wg.Done()
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	r.log.Info("job started", "job", t.Name, "interval", t.Interval.String())
	r.runOnce(ctx, t)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("job stopped", "job", t.Name)
			return
		case <-ticker.C:
			r.runOnce(ctx, t)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, t Task) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("job panicked", "job", t.Name, "panic", p)
		}
	}()
	if err := t.Run(ctx); err != nil && ctx.Err() == nil {
		r.log.Error("job failed", "job", t.Name, "err", err, "duration", time.Since(start).String())
		return
	}
	r.log.Debug("job finished", "job", t.Name, "duration", time.Since(start).String())
}

// RunAll runs every task once in order, for one-shot maintenance commands.
func RunAll(ctx context.Context, log *slog.Logger, tasks ...Task) error {
	log = logger.OrDefault(log).With("component", "jobs")
	var errs []error
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		if err := t.Run(ctx); err != nil {
			log.Error("job failed", "job", t.Name, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
			continue
		}
		log.Info("job finished", "job", t.Name, "duration", time.Since(start).String())
	}
	return errors.Join(errs...)
}
