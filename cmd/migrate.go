package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/tablebook/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	var status bool

	c := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations (postgres)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			if a.db == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "storage driver %q manages its own schema\n", a.cfg.StorageDriver)
				return nil
			}
			if status {
				pending, err := migrate.Pending(ctx, a.db)
				if err != nil {
					return err
				}
				for _, v := range pending {
					fmt.Fprintf(cmd.OutOrStdout(), "pending %s\n", v)
				}
				return nil
			}
			applied, err := migrate.Up(ctx, a.db)
			if err != nil {
				return err
			}
			for _, v := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", v)
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			}
			return nil
		},
	}
	c.Flags().BoolVar(&status, "status", false, "list pending migrations without applying them")
	return c
}
