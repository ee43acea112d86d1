package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/example/marina-booking/internal/config"
	"github.com/example/marina-booking/internal/db"
	"github.com/example/marina-booking/internal/postgres"
)

func newSlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Provision berths and pricing rules",
	}
	cmd.AddCommand(newSlotAddCmd())
	cmd.AddCommand(newSlotRuleCmd())
	cmd.AddCommand(newSlotListCmd())
	return cmd
}

func openStore(ctx context.Context) (*db.DB, *postgres.Store, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, nil, err
	}
	d, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, d); err != nil {
		d.Close()
		return nil, nil, err
	}
	return d, postgres.NewStore(d), nil
}

func newSlotAddCmd() *cobra.Command {
	var name, rate string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a berth with its base hourly rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			hourlyRate, err := decimal.NewFromString(rate)
			if err != nil {
				return fmt.Errorf("invalid --rate: %w", err)
			}
			if hourlyRate.IsNegative() {
				return fmt.Errorf("--rate must be >= 0")
			}

			ctx := context.Background()
			d, store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			id, err := store.CreateSlot(ctx, name, hourlyRate)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "created slot %d (%s, $%s/hr)\n", id, name, hourlyRate.StringFixed(2))
			return nil
		},
	}

	c.Flags().StringVar(&name, "name", "", "display name, e.g. \"Berth A1\"")
	c.Flags().StringVar(&rate, "rate", "", "base hourly rate, e.g. 50.00")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("rate")
	return c
}

func newSlotRuleCmd() *cobra.Command {
	var slotID int64
	var hour, day int
	var multiplier string

	c := &cobra.Command{
		Use:   "rule",
		Short: "Add a pricing rule for (slot, hour, day-of-week)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if hour < 0 || hour > 23 {
				return fmt.Errorf("--hour must be 0-23")
			}
			if day < 0 || day > 6 {
				return fmt.Errorf("--day must be 0-6 (Sunday=0)")
			}
			mult, err := decimal.NewFromString(multiplier)
			if err != nil {
				return fmt.Errorf("invalid --multiplier: %w", err)
			}
			if !mult.IsPositive() {
				return fmt.Errorf("--multiplier must be > 0")
			}

			ctx := context.Background()
			d, store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			id, err := store.CreateRule(ctx, slotID, hour, day, mult)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "created rule %d (slot=%d hour=%d day=%d x%s)\n", id, slotID, hour, day, mult)
			return nil
		},
	}

	c.Flags().Int64Var(&slotID, "slot", 0, "slot id")
	c.Flags().IntVar(&hour, "hour", 0, "hour of day, 0-23")
	c.Flags().IntVar(&day, "day", 0, "day of week, 0-6 (Sunday=0)")
	c.Flags().StringVar(&multiplier, "multiplier", "", "price multiplier, e.g. 1.5")
	_ = c.MarkFlagRequired("slot")
	_ = c.MarkFlagRequired("multiplier")
	return c
}

func newSlotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List berths",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer d.Close()

			slots, err := store.AllSlots(ctx)
			if err != nil {
				return err
			}
			for _, s := range slots {
				fmt.Fprintf(os.Stdout, "%d\t%s\t$%s/hr\n", s.ID, s.Name, s.HourlyRate.StringFixed(2))
			}
			return nil
		},
	}
}
