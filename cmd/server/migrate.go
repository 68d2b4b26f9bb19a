package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/estatehub/service-scheduling/internal/config"
	"github.com/estatehub/service-scheduling/internal/platform/database"
	"github.com/estatehub/service-scheduling/internal/platform/logger"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back SQL migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return runMigrate(func(url, dir string, log *zap.Logger) error {
				return database.RunMigrations(url, dir, log)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations (default one step)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}
			return runMigrate(func(url, dir string, log *zap.Logger) error {
				return database.RollbackMigrations(url, dir, steps, log)
			})
		},
	})
	return cmd
}

func runMigrate(apply func(url, dir string, log *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	return apply(postgresConfig(cfg).DatabaseURL(), cfg.MigrationsDir, log)
}
