package main

import (
	"github.com/spf13/cobra"

	"floorida/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := db.NewPool(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		return migrate(cmd.Context(), pool)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
