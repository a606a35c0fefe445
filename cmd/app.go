package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/example/tablebook/internal/auth"
	"github.com/example/tablebook/internal/booking"
	"github.com/example/tablebook/internal/catalog"
	"github.com/example/tablebook/internal/clock"
	"github.com/example/tablebook/internal/config"
	"github.com/example/tablebook/internal/db"
	"github.com/example/tablebook/internal/lock"
	"github.com/example/tablebook/internal/logging"
	"github.com/example/tablebook/internal/migrate"
	"github.com/example/tablebook/internal/storage/memory"
	"github.com/example/tablebook/internal/storage/postgres"
	"github.com/example/tablebook/internal/storage/sqlite"
)

// store is what every storage driver provides to the commands.
type store interface {
	booking.Store
	catalog.Writer
}

// app is the wired dependency graph shared by all commands.
type app struct {
	cfg       config.Config
	log       *zap.Logger
	store     store
	customers auth.CustomerRepo
	engine    *booking.Engine
	db        *db.DB

	closers []func()
}

type appOptions struct {
	migrate bool
}

func openApp(ctx context.Context, opts appOptions) (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log}
	a.closers = append(a.closers, func() { _ = log.Sync() })

	if err := a.openStore(ctx, opts); err != nil {
		a.close()
		return nil, err
	}
	locker, err := a.openLocker(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	a.engine, err = booking.New(a.store,
		booking.WithLocker(locker),
		booking.WithClock(clock.NewSystem()),
		booking.WithLocation(cfg.Location),
		booking.WithSlotInterval(cfg.SlotInterval),
		booking.WithPartySizeBounds(cfg.MinPartySize, cfg.MaxPartySize),
		booking.WithLogger(log.Named("booking")),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	if cfg.CatalogFile != "" {
		rs, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			a.close()
			return nil, err
		}
		n, err := catalog.Import(ctx, a.store, rs)
		if err != nil {
			a.close()
			return nil, err
		}
		log.Info("catalog seeded", zap.String("file", cfg.CatalogFile), zap.Int("restaurants", n))
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context, opts appOptions) error {
	switch a.cfg.StorageDriver {
	case "memory":
		m := memory.New()
		a.store, a.customers = m, m
	case "sqlite":
		s, err := sqlite.Open(a.cfg.SQLitePath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = s.Close() })
		a.store, a.customers = s, s
	case "postgres":
		d, err := db.Open(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, d.Close)
		if err := d.Ping(ctx); err != nil {
			return fmt.Errorf("db ping: %w", err)
		}
		if opts.migrate {
			applied, err := migrate.Up(ctx, d)
			if err != nil {
				return err
			}
			if len(applied) > 0 {
				a.log.Info("migrations applied", zap.Strings("versions", applied))
			}
		}
		a.db = d
		a.store, a.customers = postgres.NewStore(d), postgres.NewCustomerRepo(d)
	default:
		return fmt.Errorf("unknown storage driver %q", a.cfg.StorageDriver)
	}
	return nil
}

func (a *app) openLocker(ctx context.Context) (booking.Locker, error) {
	switch a.cfg.LockDriver {
	case "local":
		return lock.NewLocal(), nil
	case "redis":
		client, err := lock.Dial(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return lock.NewRedis(client, a.cfg.LockTTL, a.log.Named("lock")), nil
	case "postgres":
		if a.db == nil {
			return nil, fmt.Errorf("LOCK_DRIVER=postgres needs STORAGE_DRIVER=postgres")
		}
		return postgres.NewAdvisoryLocker(a.db, a.log.Named("lock")), nil
	default:
		return nil, fmt.Errorf("unknown lock driver %q", a.cfg.LockDriver)
	}
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
