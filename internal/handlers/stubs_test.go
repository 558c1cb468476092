package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/camara/internal/apperr"
	"github.com/jjenkins/camara/internal/model"
	"github.com/jjenkins/camara/internal/pagination"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Stubs embed the interface they satisfy so that calling an operation a test
// did not set up panics instead of silently succeeding.

type stubLegislators struct {
	LegislatorQueries
	filter  model.LegislatorFilter
	params  pagination.Params
	year    int
	acronym string
	err     error
}

func (s *stubLegislators) GetByID(_ context.Context, id int) (*model.Legislator, error) {
	if s.err != nil {
		return nil, s.err
	}
	if id != 7 {
		return nil, apperr.NotFound("legislator with id %d not found", id)
	}
	return &model.Legislator{ID: 7, DisplayName: "Fulano", PartyAcronym: "PL", State: "SP"}, nil
}

func (s *stubLegislators) List(_ context.Context, f model.LegislatorFilter, p pagination.Params) (pagination.Page[model.Legislator], error) {
	s.filter, s.params = f, p
	if s.err != nil {
		return pagination.Page[model.Legislator]{}, s.err
	}
	return pagination.New([]model.Legislator{{ID: 1, DisplayName: "A"}}, 1, p), nil
}

func (s *stubLegislators) ListByParty(_ context.Context, acronym string, p pagination.Params) (pagination.Page[model.Legislator], error) {
	s.acronym, s.params = acronym, p
	return pagination.New[model.Legislator](nil, 0, p), nil
}

func (s *stubLegislators) Summary(_ context.Context, id, year int) (*model.LegislatorSummary, error) {
	s.year = year
	return &model.LegislatorSummary{ID: id, Year: year}, nil
}

type stubVotes struct {
	VoteQueries
	id     int
	params pagination.Params
}

func (s *stubVotes) ByLegislator(_ context.Context, id int, p pagination.Params) (pagination.Page[model.Vote], error) {
	s.id, s.params = id, p
	return pagination.New[model.Vote](nil, 0, p), nil
}

func (s *stubVotes) ByBill(_ context.Context, id int, p pagination.Params) (pagination.Page[model.Vote], error) {
	s.id, s.params = id, p
	return pagination.New[model.Vote](nil, 0, p), nil
}

type stubBills struct {
	BillQueries
	id int
}

func (s *stubBills) Sessions(_ context.Context, id int) ([]model.VotingSession, error) {
	s.id = id
	return []model.VotingSession{}, nil
}

type stubRankings struct {
	RankingQueries
	year     int
	yearPtr  *int
	voteType model.VoteType
	limit    int
	params   pagination.Params
}

func (s *stubRankings) ExpenseRanking(_ context.Context, year int, p pagination.Params) (pagination.Page[model.LegislatorExpenseRank], error) {
	s.year, s.params = year, p
	return pagination.New[model.LegislatorExpenseRank](nil, 0, p), nil
}

func (s *stubRankings) PartyExpenseRanking(_ context.Context, year int) ([]model.PartyExpenseRank, error) {
	s.year = year
	return []model.PartyExpenseRank{}, nil
}

func (s *stubRankings) VoteTypeRanking(_ context.Context, vt model.VoteType, year *int, p pagination.Params) (pagination.Page[model.VoteTypeRank], error) {
	s.voteType, s.yearPtr, s.params = vt, year, p
	return pagination.New[model.VoteTypeRank](nil, 0, p), nil
}

func (s *stubRankings) AlignmentRanking(_ context.Context, year *int) ([]model.AlignmentRank, error) {
	s.yearPtr = year
	return []model.AlignmentRank{{PartyAcronym: "PL", AlignedVotes: 7, DecisiveVotes: 10, AlignmentPercentage: 70}}, nil
}

func (s *stubRankings) MostVotedBills(_ context.Context, limit int) ([]model.MostVotedBill, error) {
	s.limit = limit
	return []model.MostVotedBill{}, nil
}

type stubCrossTab struct {
	CrossTabQueries
	acronym   string
	sessionID int
	floor     string
	building  string
	year      int
	state     string
}

func (s *stubCrossTab) PartyCohesion(_ context.Context, acronym string, sessionID int) (*model.PartyCohesion, error) {
	s.acronym, s.sessionID = acronym, sessionID
	return &model.PartyCohesion{PartyAcronym: acronym, SessionID: sessionID, Distribution: []model.VoteShare{}}, nil
}

func (s *stubCrossTab) PartyCompositionByFloor(_ context.Context, floor, building string) ([]model.FloorPartyComposition, error) {
	s.floor, s.building = floor, building
	return nil, apperr.NotFound("no legislators found on floor '%s'", floor)
}

func (s *stubCrossTab) FloorProfile(_ context.Context, floor string, year int, building string) (*model.FloorProfile, error) {
	s.floor, s.year, s.building = floor, year, building
	return &model.FloorProfile{Floor: floor, Year: year, BuildingFilter: "all"}, nil
}

func (s *stubCrossTab) StateSpending(_ context.Context, year int, state string) ([]model.StateSpending, error) {
	s.year, s.state = year, state
	return []model.StateSpending{}, nil
}

type stubSummary struct {
	metrics map[string]string
	err     error
}

func (s stubSummary) GetLatestMetrics(context.Context) (map[string]string, error) {
	return s.metrics, s.err
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func newTestApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zerolog.Nop())})
	Register(app, d)
	return app
}

// get performs a request and returns the status with the raw body.
func get(t *testing.T, app *fiber.App, target string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}
