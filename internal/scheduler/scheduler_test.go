package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingCompleter struct {
	calls atomic.Int32
	after atomic.Int64
	err   error
}

func (c *countingCompleter) CompleteElapsed(_ context.Context, after time.Duration) (int, error) {
	c.calls.Add(1)
	c.after.Store(int64(after))
	return 1, c.err
}

func TestRunSweepsUntilCancelled(t *testing.T) {
	t.Parallel()

	c := &countingCompleter{}
	s := &Scheduler{Engine: c, Interval: 5 * time.Millisecond, After: 2 * time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return c.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, int64(2*time.Hour), c.after.Load())
}

func TestSweepErrorDoesNotStopLoop(t *testing.T) {
	t.Parallel()

	c := &countingCompleter{err: errors.New("store offline")}
	s := &Scheduler{Engine: c, Interval: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	assert.Eventually(t, func() bool { return c.calls.Load() >= 2 }, time.Second, time.Millisecond)
}
