package cmd

import (
	"os"

	"github.com/jjenkins/camara/internal/config"
	"github.com/jjenkins/camara/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfg config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "camara",
	Short: "Analytics API over the Chamber of Deputies open data",
	Long: `camara imports legislators, parties, expenses, voting sessions, bills and
votes from the Brazilian Chamber of Deputies open-data API into PostgreSQL
and serves rankings and cross-tab analyses over them as a JSON API.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log = logger.New(cfg.LogLevel, cfg.LogFormat)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cfg = config.FromEnv()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL connection string (env DATABASE_URL)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error (env LOG_LEVEL)")
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: console or json (env LOG_FORMAT)")
}
