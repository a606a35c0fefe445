package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/tablebook/internal/db"
)

// AdvisoryLocker serialises booking keys across processes that share one
// database. Each held key pins a pooled connection because advisory locks
// belong to the session that took them.
type AdvisoryLocker struct {
	db  *db.DB
	log *zap.Logger
}

func NewAdvisoryLocker(d *db.DB, log *zap.Logger) *AdvisoryLocker {
	if log == nil {
		log = zap.NewNop()
	}
	return &AdvisoryLocker{db: d, log: log}
}

func (l *AdvisoryLocker) Lock(ctx context.Context, key string) (func(), error) {
	conn, err := l.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire conn: %w", err)
	}
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtext($1))`, key); err != nil {
		conn.Release()
		return nil, fmt.Errorf("advisory lock %s: %w", key, err)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock(hashtext($1))`, key); err != nil {
			// Closing the session drops the lock with it.
			l.log.Warn("advisory unlock failed", zap.String("key", key), zap.Error(err))
			_ = conn.Conn().Close(ctx)
		}
		conn.Release()
	}, nil
}
