package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-backend/config"
	"hostel-backend/services"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "hostel-backend",
		Short:        "Hostel management API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		seedCmd(),
		automationCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and opens the database for every subcommand.
func bootstrap() (config.App, *zap.Logger, *gorm.DB, error) {
	app := config.Load()
	log, err := config.InitLogger(app)
	if err != nil {
		return app, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := config.ConnectDatabase(app, log)
	if err != nil {
		return app, log, nil, fmt.Errorf("database connect failed: %w", err)
	}
	return app, log, db, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, notification worker and automation schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if err := config.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := config.SeedDatabase(db, log, cmd.ErrOrStderr()); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			return serve(app, log, db)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update all tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if err := config.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations applied")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Ensure the default admin account exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return config.SeedDatabase(db, log, cmd.ErrOrStderr())
		},
	}
}

func automationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "automation",
		Short: "Scheduled housekeeping tasks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "sync",
		Short: "Log any cleaning or laundry runs that are due",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			logs, err := services.NewAutomationService(db, log).Sync(ctx, time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("%d automation tasks logged\n", len(logs))
			return nil
		},
	})
	return cmd
}
