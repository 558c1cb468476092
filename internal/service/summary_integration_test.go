//go:build integration

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/jjenkins/camara/internal/model"
	"github.com/jjenkins/camara/internal/store"
	"github.com/jjenkins/camara/internal/testutil/containers"
)

type SummarySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	db       *store.DB
	ingest   *store.IngestStore
	summary  *SummaryService
}

func TestSummarySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SummarySuite))
}

func (s *SummarySuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.db = store.New(s.postgres.DB)
	s.Require().NoError(s.db.Migrate(context.Background()))
	s.ingest = store.NewIngestStore(s.db)
	s.summary = NewSummaryService(s.db)
}

func (s *SummarySuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"votes", "bill_voting_sessions", "bills", "voting_sessions",
		"expenses", "offices", "legislators", "parties", "summary_metrics")
	s.Require().NoError(err)
}

func (s *SummarySuite) TestCalculateAndStoreOnEmptyDatabase() {
	summary, err := s.summary.CalculateAndStore(context.Background())
	s.Require().NoError(err)
	s.Equal(0, summary.TotalLegislators)
	s.Equal("", summary.TopSpender)

	latest, err := s.summary.GetLatestMetrics(context.Background())
	s.Require().NoError(err)
	s.Equal("0", latest["total_legislators"])
}

func (s *SummarySuite) TestCalculateAndStore() {
	ctx := context.Background()
	p := &model.Party{ExternalID: 1, Acronym: "PL", Name: "Partido Liberal"}
	s.Require().NoError(s.ingest.SaveParty(ctx, p))

	for i, amount := range []float64{1500.50, 300} {
		l := &model.Legislator{ExternalID: 10 + i, DisplayName: []string{"Fulano", "Beltrano"}[i], PartyAcronym: "PL", PartyID: &p.ID, State: "SP"}
		s.Require().NoError(s.ingest.SaveLegislator(ctx, l))
		s.Require().NoError(s.ingest.ReplaceExpenses(ctx, l.ID, 2024, []model.Expense{{Year: 2024, Month: 1, Category: "COMBUSTÍVEIS", NetAmount: amount}}))
	}

	summary, err := s.summary.CalculateAndStore(ctx)
	s.Require().NoError(err)
	s.Equal(2, summary.TotalLegislators)
	s.Equal(2024, summary.LatestYear)
	s.Equal("Fulano", summary.TopSpender)
	s.Equal("PL", summary.LargestParty)

	latest, err := s.summary.GetLatestMetrics(ctx)
	s.Require().NoError(err)
	s.Equal("1800.50", latest["total_spent"])
	s.Equal("Fulano", latest["top_spender"])
}
