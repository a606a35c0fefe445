package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAvailabilityCmd() *cobra.Command {
	var (
		date, clockTime string
		party           int
	)

	cmd := &cobra.Command{
		Use:   "availability <restaurant-id>",
		Short: "List open slots within an hour of the requested time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			slots, err := a.engine.Availability(ctx, args[0], date, clockTime, party)
			if err != nil {
				return err
			}
			if len(slots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no availability")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(slots, " "))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&clockTime, "time", "", "time (HH:MM)")
	cmd.Flags().IntVar(&party, "party", 2, "party size")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("time")
	return cmd
}
