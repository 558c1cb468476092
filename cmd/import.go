package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jjenkins/camara/internal/metrics"
	"github.com/jjenkins/camara/internal/service"
	"github.com/jjenkins/camara/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	importYear        int
	importLegislature int
	importFrom        string
	importTo          string
	importWorkers     int
	importRate        float64
	importAPIURL      string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import data from the Chamber of Deputies open-data API",
	Long: `Import downloads parties, legislators and their offices, expenses, voting
sessions, bills and votes from the open-data API and stores them in
PostgreSQL. Re-running an import updates existing records in place.

Examples:
  # Import the 57th legislature with 2024 expenses and sessions
  camara import

  # Import expenses for 2023 and only the first quarter's sessions
  camara import --year 2023 --from 2023-01-01 --to 2023-03-31

  # Use more concurrent fetches against a local mirror
  camara import --workers 8 --api-url http://localhost:9000/api/v2`,
	Run: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().IntVarP(&importYear, "year", "y", 2024, "Year to import expenses and sessions for")
	importCmd.Flags().IntVarP(&importLegislature, "legislature", "l", 57, "Legislature to import parties and legislators from")
	importCmd.Flags().StringVar(&importFrom, "from", "", "First session date (YYYY-MM-DD, default start of --year)")
	importCmd.Flags().StringVar(&importTo, "to", "", "Last session date (YYYY-MM-DD, default end of --year)")
	importCmd.Flags().IntVarP(&importWorkers, "workers", "w", 0, "Concurrent fetches (default $IMPORT_WORKERS or 4)")
	importCmd.Flags().Float64Var(&importRate, "rate", 5, "Maximum requests per second to the open-data API")
	importCmd.Flags().StringVar(&importAPIURL, "api-url", "", "Open-data API base URL (default $CAMARA_API_URL)")
}

func runImport(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if importWorkers <= 0 {
		importWorkers = cfg.ImportWorkers
	}
	if importAPIURL == "" {
		importAPIURL = cfg.CamaraAPIURL
	}

	m := metrics.New(prometheus.NewRegistry())

	log.Info().Msg("Connecting to database")
	db, err := store.Open(ctx, cfg.DatabaseURL, store.WithObserver(m))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	client := service.NewCamaraClient(importAPIURL, importRate)
	importer := service.NewImporter(client, store.NewIngestStore(db), service.NewSummaryService(db), log, importWorkers).
		WithRecorder(m)

	log.Info().
		Int("year", importYear).
		Int("legislature", importLegislature).
		Int("workers", importWorkers).
		Msg("Starting import")

	stats, err := importer.Import(ctx, service.Options{
		Legislature: importLegislature,
		Year:        importYear,
		From:        importFrom,
		To:          importTo,
	})
	if stats != nil {
		importer.PrintSummary(stats)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			log.Warn().Msg("Import cancelled")
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Import failed")
	}

	if stats.HasFailures() {
		os.Exit(1)
	}
}
