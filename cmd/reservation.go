package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/tablebook/internal/booking"
)

func newReservationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reservation",
		Aliases: []string{"res"},
		Short:   "Book, change and cancel reservations",
	}
	cmd.AddCommand(newReservationBookCmd())
	cmd.AddCommand(newReservationModifyCmd())
	cmd.AddCommand(newReservationCancelCmd())
	cmd.AddCommand(newReservationListCmd())
	cmd.AddCommand(newReservationShowCmd())
	return cmd
}

func newReservationBookCmd() *cobra.Command {
	var req booking.BookRequest

	c := &cobra.Command{
		Use:   "book <restaurant-id>",
		Short: "Book a table, suggesting the closest open slot if the time is taken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			req.RestaurantID = args[0]
			res, err := a.engine.Book(ctx, req)
			if err != nil {
				return err
			}
			if res == nil {
				return unavailable(ctx, cmd, a, req.RestaurantID, req.Date, req.Time, req.PartySize)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	c.Flags().StringVar(&req.Date, "date", "", "date (YYYY-MM-DD)")
	c.Flags().StringVar(&req.Time, "time", "", "time (HH:MM)")
	c.Flags().IntVar(&req.PartySize, "party", 2, "party size")
	c.Flags().StringVar(&req.CustomerID, "customer", "", "customer id (default \"unknown\")")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("time")
	return c
}

func newReservationModifyCmd() *cobra.Command {
	var (
		date, clockTime string
		party           int
	)

	c := &cobra.Command{
		Use:   "modify <reservation-id>",
		Short: "Move or resize a confirmed reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			current, err := a.engine.Reservation(ctx, args[0])
			if err != nil {
				return err
			}
			var req booking.ModifyRequest
			if cmd.Flags().Changed("date") {
				req.Date = &date
			} else {
				date = current.Date
			}
			if cmd.Flags().Changed("time") {
				req.Time = &clockTime
			} else {
				clockTime = current.Time
			}
			if cmd.Flags().Changed("party") {
				req.PartySize = &party
			} else {
				party = current.PartySize
			}

			res, err := a.engine.Modify(ctx, args[0], req)
			if err != nil {
				return err
			}
			if res == nil {
				return unavailable(ctx, cmd, a, current.RestaurantID, date, clockTime, party)
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	c.Flags().StringVar(&date, "date", "", "new date (YYYY-MM-DD)")
	c.Flags().StringVar(&clockTime, "time", "", "new time (HH:MM)")
	c.Flags().IntVar(&party, "party", 0, "new party size")
	return c
}

func newReservationCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <reservation-id>",
		Short: "Cancel a reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			ok, err := a.engine.Cancel(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("reservation %s could not be cancelled", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cancelled %s\n", args[0])
			return nil
		},
	}
}

func newReservationListCmd() *cobra.Command {
	var customerID string

	c := &cobra.Command{
		Use:   "list",
		Short: "List a customer's reservations by date and time",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			rs, err := a.engine.CustomerReservations(ctx, customerID)
			if err != nil {
				return err
			}
			for _, r := range rs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s %s\tparty=%d\t%s\n",
					r.ID, r.RestaurantID, r.Date, r.Time, r.PartySize, r.Status)
			}
			return nil
		},
	}
	c.Flags().StringVar(&customerID, "customer", "", "customer id")
	_ = c.MarkFlagRequired("customer")
	return c
}

func newReservationShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <reservation-id>",
		Short: "Print one reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.close()

			r, err := a.engine.Reservation(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), r)
		},
	}
}

func unavailable(ctx context.Context, cmd *cobra.Command, a *app, restaurantID, date, clockTime string, party int) error {
	suggested, ok, err := a.engine.Suggest(ctx, restaurantID, date, clockTime, party)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%s %s is not available for %d; closest open slot is %s", date, clockTime, party, suggested)
	}
	return fmt.Errorf("%s %s is not available for %d and nothing is open within an hour", date, clockTime, party)
}
