package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/tablebook/internal/catalog"
)

func newRestaurantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restaurant",
		Short: "Manage the restaurant catalog",
	}
	cmd.AddCommand(newRestaurantImportCmd())
	cmd.AddCommand(newRestaurantListCmd())
	return cmd
}

func newRestaurantImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <catalog.json>",
		Short: "Load restaurants from a JSON catalog, replacing ones with the same id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := catalog.LoadFile(args[0])
			if err != nil {
				return err
			}
			ctx := context.Background()
			a, err := openApp(ctx, appOptions{migrate: true})
			if err != nil {
				return err
			}
			defer a.close()

			n, err := catalog.Import(ctx, a.store, rs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d restaurants\n", n)
			return nil
		},
	}
}

func newRestaurantListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every restaurant in catalog order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			rs, err := a.store.ListRestaurants(ctx)
			if err != nil {
				return err
			}
			for _, r := range rs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\t%d\t%d seats\n",
					r.ID, r.Name, r.Cuisine, r.Location, r.PriceRange, r.TotalSeats())
			}
			return nil
		},
	}
}
