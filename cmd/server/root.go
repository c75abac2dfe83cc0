package main

import (
	"context"
	"fmt"

	"floorida/internal/config"
	"floorida/internal/db"
	"floorida/migrations"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Floorida schedule and progression API",
	Long: `Floorida turns goals into schedules of dated floors and rewards
users with coins and levels when they complete them.

COMMANDS:

  $ server serve             # Run the HTTP API
  $ server serve --migrate   # Apply pending migrations, then serve
  $ server migrate           # Apply pending migrations and exit

CONFIGURATION:

  DATABASE_URL and JWT_SECRET are required. Set FLOORIDA_CONFIG to a YAML
  file to load defaults from it; environment variables win over the file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		return nil
	},
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	applied, err := db.RunMigrations(ctx, pool, migrations.FS)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if len(applied) == 0 {
		color.Yellow("Schema up to date")
		return nil
	}
	for _, v := range applied {
		color.Green("Applied %s", v)
	}
	return nil
}
