package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/tablebook/internal/auth"
)

func newCustomerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customer",
		Short: "Manage customer accounts",
	}
	cmd.AddCommand(newCustomerAddCmd())
	return cmd
}

func newCustomerAddCmd() *cobra.Command {
	var name, email, phone, password string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a customer who can log in to the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, appOptions{migrate: true})
			if err != nil {
				return err
			}
			defer a.close()

			// Registration never touches cookies, so no keys are needed here.
			store := auth.NewStore(a.customers, nil, nil)
			cust, err := store.Register(ctx, name, email, phone, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created customer %s (%s)\n", cust.ID, cust.Email)
			return nil
		},
	}

	c.Flags().StringVar(&name, "name", "", "display name")
	c.Flags().StringVar(&email, "email", "", "email (login)")
	c.Flags().StringVar(&phone, "phone", "", "phone number")
	c.Flags().StringVar(&password, "password", "", "password (8+ characters)")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}
