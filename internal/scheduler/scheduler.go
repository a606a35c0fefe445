package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Completer moves confirmed reservations that started long enough ago to
// completed.
type Completer interface {
	CompleteElapsed(ctx context.Context, after time.Duration) (int, error)
}

// Scheduler periodically sweeps finished reservations to completed.
type Scheduler struct {
	Engine   Completer
	Interval time.Duration
	// After is how long past its start a reservation counts as honoured.
	After time.Duration
	Log   *zap.Logger

	mu sync.Mutex
}

func (s *Scheduler) Run(ctx context.Context) error {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	// kick immediately
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	// A slow sweep must not overlap the next one.
	if !s.mu.TryLock() {
		return
	}
	defer s.mu.Unlock()

	n, err := s.Engine.CompleteElapsed(ctx, s.After)
	if err != nil {
		s.Log.Error("completion sweep failed", zap.Error(err), zap.Int("completed", n))
		return
	}
	if n > 0 {
		s.Log.Info("completion sweep", zap.Int("completed", n))
	}
}
