package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/marina-booking/internal/auth"
	"github.com/example/marina-booking/internal/config"
	"github.com/example/marina-booking/internal/db"
	"github.com/example/marina-booking/internal/postgres"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserAddCmd())
	return cmd
}

func newUserAddCmd() *cobra.Command {
	var u auth.User
	var password string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add an account (email/password plus vessel details)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := postgres.Migrate(ctx, d); err != nil {
				return err
			}

			u.PasswordHash, err = auth.HashPassword(password)
			if err != nil {
				return err
			}
			id, err := postgres.NewUserRepo(d).Create(ctx, u)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "created user %d (%s)\n", id, u.Email)
			return nil
		},
	}

	c.Flags().StringVar(&u.Email, "email", "", "email (login name)")
	c.Flags().StringVar(&password, "password", "", "password")
	c.Flags().StringVar(&u.FirstName, "first-name", "", "first name")
	c.Flags().StringVar(&u.LastName, "last-name", "", "last name")
	c.Flags().StringVar(&u.Phone, "phone", "", "phone number")
	c.Flags().StringVar(&u.Company, "company", "", "company")
	c.Flags().StringVar(&u.VesselName, "vessel", "", "vessel name")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}
