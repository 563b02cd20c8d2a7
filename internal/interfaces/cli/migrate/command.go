package migrate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veyra-hq/veyra/internal/infrastructure/config"
	"github.com/veyra-hq/veyra/internal/infrastructure/database"
	"github.com/veyra-hq/veyra/internal/infrastructure/persistence/migrations"
	"github.com/veyra-hq/veyra/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Manage database migrations including applying, rolling back, and checking status.`,
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	cmd.AddCommand(
		newUpCommand(),
		newDownCommand(),
		newStatusCommand(),
	)

	return cmd
}

func newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Run all pending migrations",
		Long:  `Apply all pending database migrations to bring the schema up to date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := initEnv()
			if err != nil {
				return err
			}
			defer database.Close()
			return runner.Up(database.Get())
		},
	}
}

func newDownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Rollback the most recent migration",
		Long:  `Rollback the most recently applied database migration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := initEnv()
			if err != nil {
				return err
			}
			defer database.Close()
			return runner.Down(database.Get())
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Long:  `Display the applied and pending database migrations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := initEnv()
			if err != nil {
				return err
			}
			defer database.Close()
			return runner.Status(database.Get())
		},
	}
}

func initEnv() (*migrations.Runner, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return migrations.NewRunner(logger.NewLogger()), nil
}
