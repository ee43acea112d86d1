package cmd

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/example/marina-booking/internal/auth"
	"github.com/example/marina-booking/internal/booking"
	"github.com/example/marina-booking/internal/config"
	"github.com/example/marina-booking/internal/db"
	"github.com/example/marina-booking/internal/notify"
	"github.com/example/marina-booking/internal/postgres"
	"github.com/example/marina-booking/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool
	var dev bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the booking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dev {
				ensureDevEnv()
			}
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var (
				ledger booking.Ledger
				users  auth.UserStore
			)
			if dev {
				ledger, users = devFixtures()
				log.Printf("dev mode: in-memory ledger, ephemeral keys, log-only notifications")
			} else {
				d, err := db.Open(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer d.Close()
				if err := d.Ping(ctx); err != nil {
					return fmt.Errorf("db ping: %w", err)
				}
				if migrateUp {
					if err := postgres.Migrate(ctx, d); err != nil {
						return err
					}
				}
				ledger = postgres.NewStore(d)
				users = postgres.NewUserRepo(d)
			}

			var notifier booking.Notifier = notify.LogNotifier{}
			if !dev && cfg.SMTPHost != "" {
				notifier = &notify.Mailer{
					Host:     cfg.SMTPHost,
					Port:     cfg.SMTPPort,
					Username: cfg.SMTPUser,
					Password: cfg.SMTPPass,
					From:     cfg.MailFrom,
				}
			}

			authStore := auth.NewStore(users, cfg.JWTSecret, cfg.CookieHashKey, cfg.CookieBlockKey)
			svc := booking.NewService(ledger, notifier)

			ws := &web.Server{Auth: authStore, Bookings: svc, AllowedOrigins: cfg.AllowedOrigins}
			return web.Start(ctx, cfg.ListenAddr, ws.Routes())
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")
	cmd.Flags().BoolVar(&dev, "dev", false, "run without Postgres: in-memory store with a few seeded berths")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}

func devFixtures() (*booking.MemoryLedger, *auth.MemoryUsers) {
	ledger := booking.NewMemoryLedger()
	a1 := ledger.AddSlot("Berth A1", decimal.NewFromInt(50))
	ledger.AddSlot("Berth A2", decimal.NewFromInt(50))
	ledger.AddSlot("Berth B1", decimal.NewFromInt(80))
	// weekday morning surcharge on A1 as sample data
	for dow := 1; dow <= 5; dow++ {
		ledger.AddRule(a1.ID, 9, dow, decimal.NewFromFloat(1.5))
	}
	return ledger, auth.NewMemoryUsers()
}

// ensureDevEnv fills in throwaway secrets so --dev starts without any
// environment setup. Values change on every start; sessions do not
// survive a restart.
func ensureDevEnv() {
	for _, k := range []string{"JWT_SECRET", "COOKIE_HASH_KEY", "COOKIE_BLOCK_KEY"} {
		if os.Getenv(k) != "" {
			continue
		}
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			continue
		}
		_ = os.Setenv(k, base64.StdEncoding.EncodeToString(b))
	}
}
