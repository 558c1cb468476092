package cmd

import (
	"context"

	"github.com/jjenkins/camara/internal/service"
	"github.com/jjenkins/camara/internal/store"
	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Recompute the summary metrics shown on the home page",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		s, err := service.NewSummaryService(db).CalculateAndStore(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to calculate summary metrics")
		}

		log.Info().
			Int("parties", s.TotalParties).
			Int("legislators", s.TotalLegislators).
			Int("sessions", s.TotalSessions).
			Int("votes", s.TotalVotes).
			Int("bills", s.TotalBills).
			Float64("total_spent", s.TotalSpent).
			Str("top_spender", s.TopSpender).
			Str("largest_party", s.LargestParty).
			Msg("Summary metrics stored")
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}
