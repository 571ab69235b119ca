package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/martinvega/vinoteca/internal/app"
	billingQueries "github.com/martinvega/vinoteca/internal/billing/application/queries"
	"github.com/martinvega/vinoteca/internal/shared/infrastructure/migrations"
	"github.com/martinvega/vinoteca/pkg/config"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	root := &cobra.Command{
		Use:   "vinoteca",
		Short: "Wine club storefront backend",
	}
	root.AddCommand(serveCmd(), plansCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the storefront API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := newLogger(cfg)
			slog.SetDefault(logger)

			container, err := app.NewContainer(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			if err := migrations.RunPostgresMigrations(ctx, container.DB); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			container.OutboxProcessor.Start(ctx)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("API server starting", "addr", cfg.HTTPAddr)
				if err := container.Server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("server error: %w", err)
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := container.Server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("server shutdown error", "error", err)
			}
			return nil
		},
	}
}

func plansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List the club plans visible on the storefront",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := newLogger(cfg)

			container, err := app.NewContainer(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize container: %w", err)
			}
			defer container.Close()

			plans, err := container.ListPlansHandler.Handle(ctx, billingQueries.ListPlansQuery{})
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}

			if len(plans) == 0 {
				fmt.Println("No plans found.")
				return nil
			}

			fmt.Printf("Plans (%d):\n", len(plans))
			fmt.Println(strings.Repeat("-", 60))
			for _, p := range plans {
				fmt.Printf("%s: %s (%d wines per delivery)\n", p.Club, p.Name, p.WinesPerDelivery)
				fmt.Printf("   ID: %s\n", p.ID.String()[:8])
				for _, price := range []struct {
					label string
					cents int64
				}{
					{"weekly", p.PriceWeeklyCents},
					{"biweekly", p.PriceBiweeklyCents},
					{"monthly", p.PriceMonthlyCents},
					{"quarterly", p.PriceQuarterlyCents},
				} {
					if price.cents > 0 {
						fmt.Printf("   %-10s $%d.%02d\n", price.label, price.cents/100, price.cents%100)
					}
				}
				fmt.Println()
			}
			return nil
		},
	}
}
