package cmd

import (
	"context"

	"github.com/jjenkins/camara/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Migration failed")
		}
		log.Info().Msg("Schema is up to date")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
