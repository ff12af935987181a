package jobs_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ishantswami13-crypto/vantro-khata/internal/jobs"
	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
)

func TestRunnerRunsImmediatelyAndStops(t *testing.T) {
	var ok, failing, panicking atomic.Int32
	r := jobs.NewRunner(logger.Discard())
	r.Add(jobs.Task{Name: "ok", Interval: 10 * time.Millisecond, Run: func(context.Context) error {
		ok.Add(1)
		return nil
	}})
	r.Add(jobs.Task{Name: "failing", Interval: 10 * time.Millisecond, Run: func(context.Context) error {
		failing.Add(1)
		return errors.New("boom")
	}})
	r.Add(jobs.Task{Name: "panicking", Interval: 10 * time.Millisecond, Run: func(context.Context) error {
		panicking.Add(1)
		panic("bad")
	}})
	r.Add(jobs.Task{Name: "disabled", Interval: 0, Run: func(context.Context) error {
		t.Error("disabled job ran")
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	assert.Eventually(t, func() bool {
		return ok.Load() >= 3 && failing.Load() >= 3 && panicking.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	done := make(chan struct{})
	go func() {
		r.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunAllContinuesPastFailures(t *testing.T) {
	var order []string
	err := jobs.RunAll(context.Background(), logger.Discard(),
		jobs.Task{Name: "a", Run: func(context.Context) error { order = append(order, "a"); return errors.New("a broke") }},
		jobs.Task{Name: "b", Run: func(context.Context) error { order = append(order, "b"); return nil }},
	)
	assert.ErrorContains(t, err, "a broke")
	assert.Equal(t, []string{"a", "b"}, order)
}
