package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/tablebook/internal/booking"
)

func newSearchCmd() *cobra.Command {
	var (
		c              booking.Criteria
		price, seating int
		limit          int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Find restaurants by cuisine, location, price and party size",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			if cmd.Flags().Changed("price-range") {
				c.MaxPrice = &price
			}
			if cmd.Flags().Changed("seating") {
				c.MinSeating = &seating
			}
			c.Limit = a.cfg.MaxSearchResults
			if cmd.Flags().Changed("limit") {
				c.Limit = limit
			}
			rs, err := a.engine.Search(ctx, c)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rs)
		},
	}
	cmd.Flags().StringVar(&c.Cuisine, "cuisine", "", "cuisine, case-insensitive")
	cmd.Flags().StringVar(&c.Location, "location", "", "location substring, case-insensitive")
	cmd.Flags().IntVar(&price, "price-range", 0, "maximum price range (1-4)")
	cmd.Flags().IntVar(&seating, "seating", 0, "party size the largest table must seat")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results (0 = no limit; default MAX_SEARCH_RESULTS)")
	return cmd
}
