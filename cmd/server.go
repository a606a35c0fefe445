package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/tablebook/internal/auth"
	"github.com/example/tablebook/internal/scheduler"
	"github.com/example/tablebook/internal/tools"
	"github.com/example/tablebook/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API + completion scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := openApp(ctx, appOptions{migrate: migrateUp})
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.cfg.RequireCookieKeys(); err != nil {
				return err
			}

			authStore := auth.NewStore(a.customers, a.cfg.CookieHashKey, a.cfg.CookieBlockKey)

			s := &scheduler.Scheduler{
				Engine:   a.engine,
				Interval: a.cfg.PollInterval,
				After:    a.cfg.CompleteAfter,
				Log:      a.log.Named("scheduler"),
			}
			ws := &web.Server{
				Auth:       authStore,
				Engine:     a.engine,
				Tools:      tools.New(a.engine, a.cfg.MaxSearchResults, a.log.Named("tools")),
				Log:        a.log.Named("http"),
				MaxResults: a.cfg.MaxSearchResults,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return s.Run(gctx) })
			g.Go(func() error { return web.Start(gctx, a.cfg.ListenAddr, ws.Routes(), a.log) })

			err = g.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup (postgres)")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
