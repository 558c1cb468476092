package handlers

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jjenkins/camara/internal/model"
	"github.com/jjenkins/camara/internal/pagination"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLegislatorByID(t *testing.T) {
	app := newTestApp(Deps{Legislators: &stubLegislators{}})

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantError  string
	}{
		{name: "found", target: "/api/legislators/7", wantStatus: fiber.StatusOK},
		{name: "missing", target: "/api/legislators/99", wantStatus: fiber.StatusNotFound, wantError: "legislator with id 99 not found"},
		{name: "non-numeric id", target: "/api/legislators/abc", wantStatus: fiber.StatusBadRequest, wantError: "id must be a positive integer, got 'abc'"},
		{name: "zero id", target: "/api/legislators/0", wantStatus: fiber.StatusBadRequest, wantError: "id must be a positive integer, got '0'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, app, tt.target)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode[errorResponse](t, body).Error)
				return
			}
			l := decode[model.Legislator](t, body)
			assert.Equal(t, 7, l.ID)
			assert.Equal(t, "Fulano", l.DisplayName)
		})
	}
}

func TestListLegislatorsBindsFilterAndPage(t *testing.T) {
	stub := &stubLegislators{}
	app := newTestApp(Deps{Legislators: stub})

	status, body := get(t, app, "/api/legislators?state=sp&sex=F&party=pl&page=2&per_page=5")
	require.Equal(t, fiber.StatusOK, status, string(body))

	assert.Equal(t, model.LegislatorFilter{State: "sp", Sex: "F", Party: "pl"}, stub.filter)
	assert.Equal(t, pagination.Params{Page: 2, PerPage: 5}, stub.params)

	page := decode[pagination.Page[model.Legislator]](t, body)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 5, page.PerPage)
}

func TestListDefaultsPagination(t *testing.T) {
	stub := &stubLegislators{}
	app := newTestApp(Deps{Legislators: stub})

	status, _ := get(t, app, "/api/legislators")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, pagination.Params{Page: 1, PerPage: 10}, stub.params)
}

func TestListRejectsInvalidParameters(t *testing.T) {
	app := newTestApp(Deps{Legislators: &stubLegislators{}})

	tests := []struct {
		name    string
		target  string
		wantMsg string
	}{
		{name: "per_page over max", target: "/api/legislators?per_page=500", wantMsg: "per_page"},
		{name: "page below min", target: "/api/legislators?page=-1", wantMsg: "page"},
		{name: "state too long", target: "/api/legislators?state=SPX", wantMsg: "state"},
		{name: "unknown sex", target: "/api/legislators?sex=X", wantMsg: "sex"},
		{name: "non-numeric page", target: "/api/legislators?page=abc", wantMsg: "invalid query parameters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, app, tt.target)
			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Contains(t, decode[errorResponse](t, body).Error, tt.wantMsg)
		})
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	var logs bytes.Buffer
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zerolog.New(&logs))})
	Register(app, Deps{Legislators: &stubLegislators{err: errors.New("pq: relation \"legislators\" does not exist")}})

	status, body := get(t, app, "/api/legislators")

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", decode[errorResponse](t, body).Error)
	assert.Contains(t, logs.String(), "relation")
	assert.Contains(t, logs.String(), "/api/legislators")
}

func TestLegislatorSummaryYear(t *testing.T) {
	stub := &stubLegislators{}
	app := newTestApp(Deps{Legislators: stub})

	status, _ := get(t, app, "/api/legislators/7/summary")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2024, stub.year)

	status, body := get(t, app, "/api/legislators/7/summary?year=2023")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2023, stub.year)
	assert.Equal(t, 2023, decode[model.LegislatorSummary](t, body).Year)
}

func TestVoteListings(t *testing.T) {
	votes := &stubVotes{}
	app := newTestApp(Deps{Votes: votes})

	status, _ := get(t, app, "/api/legislators/3/votes?per_page=20")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 3, votes.id)
	assert.Equal(t, 20, votes.params.PerPage)

	status, body := get(t, app, "/api/bills/12/votes")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 12, votes.id)
	assert.Equal(t, `{"items":[],"total":0,"page":1,"per_page":10,"total_pages":0}`, string(body))
}

func TestPartyLegislatorsPassesAcronym(t *testing.T) {
	stub := &stubLegislators{}
	app := newTestApp(Deps{Legislators: stub})

	status, _ := get(t, app, "/api/parties/by-acronym/pt/legislators")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "pt", stub.acronym)
}

func TestBillSessions(t *testing.T) {
	bills := &stubBills{}
	app := newTestApp(Deps{Bills: bills})

	status, body := get(t, app, "/api/bills/4/sessions")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 4, bills.id)
	assert.Equal(t, "[]", string(body))
}

func TestRankingDefaults(t *testing.T) {
	r := &stubRankings{}
	app := newTestApp(Deps{Rankings: r})

	status, _ := get(t, app, "/api/rankings/legislators/expenses")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2024, r.year)

	status, _ = get(t, app, "/api/rankings/parties/expenses?year=2022")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 2022, r.year)

	status, body := get(t, app, "/api/rankings/parties/alignment")
	require.Equal(t, fiber.StatusOK, status)
	require.NotNil(t, r.yearPtr)
	assert.Equal(t, 2024, *r.yearPtr)
	ranks := decode[[]model.AlignmentRank](t, body)
	require.Len(t, ranks, 1)
	assert.Equal(t, 70.0, ranks[0].AlignmentPercentage)

	status, _ = get(t, app, "/api/rankings/bills/most-voted")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, 10, r.limit)

	status, _ = get(t, app, "/api/rankings/bills/most-voted?limit=101")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestVoteTypeRanking(t *testing.T) {
	r := &stubRankings{}
	app := newTestApp(Deps{Rankings: r})

	status, _ := get(t, app, "/api/rankings/parties/vote-type?vote_type=yes")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, model.VoteYes, r.voteType)
	assert.Nil(t, r.yearPtr)

	status, _ = get(t, app, "/api/rankings/parties/vote-type?vote_type=Obstru%C3%A7%C3%A3o&year=2023")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, model.VoteObstruction, r.voteType)
	require.NotNil(t, r.yearPtr)
	assert.Equal(t, 2023, *r.yearPtr)

	status, body := get(t, app, "/api/rankings/parties/vote-type?vote_type=maybe")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, decode[errorResponse](t, body).Error, "unknown vote type 'maybe'")

	status, body = get(t, app, "/api/rankings/parties/vote-type")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, decode[errorResponse](t, body).Error, "vote_type must satisfy required")
}

func TestPartyCohesionRoute(t *testing.T) {
	ct := &stubCrossTab{}
	app := newTestApp(Deps{CrossTab: ct})

	status, body := get(t, app, "/api/parties/PL/cohesion/42")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "PL", ct.acronym)
	assert.Equal(t, 42, ct.sessionID)
	assert.Empty(t, decode[model.PartyCohesion](t, body).Distribution)

	status, _ = get(t, app, "/api/parties/PL/cohesion/x")
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestFloorAnalysis(t *testing.T) {
	ct := &stubCrossTab{}
	app := newTestApp(Deps{CrossTab: ct})

	status, body := get(t, app, "/api/analysis/floors/composition")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, decode[errorResponse](t, body).Error, "floor")

	status, body = get(t, app, "/api/analysis/floors/composition?floor=9&building=Anexo%20IV")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "no legislators found on floor '9'", decode[errorResponse](t, body).Error)
	assert.Equal(t, "Anexo IV", ct.building)

	status, body = get(t, app, "/api/analysis/floors/profile?floor=4")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "4", ct.floor)
	assert.Equal(t, 2024, ct.year)
	assert.Equal(t, "", ct.building)
	assert.Equal(t, "all", decode[model.FloorProfile](t, body).BuildingFilter)
}

func TestStateSpendingValidation(t *testing.T) {
	ct := &stubCrossTab{}
	app := newTestApp(Deps{CrossTab: ct})

	status, _ := get(t, app, "/api/analysis/states/spending?state=S")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = get(t, app, "/api/analysis/states/spending?state=rj&year=2023")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "rj", ct.state)
	assert.Equal(t, 2023, ct.year)
}

func TestHealth(t *testing.T) {
	status, body := get(t, newTestApp(Deps{DB: stubPinger{}}), "/healthz")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, string(body))

	status, body = get(t, newTestApp(Deps{DB: stubPinger{err: errors.New("dial tcp: refused")}}), "/healthz")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.NotContains(t, string(body), "refused")
}

func TestHomePage(t *testing.T) {
	app := newTestApp(Deps{Summary: stubSummary{metrics: map[string]string{
		"total_legislators":  "513",
		"total_parties":      "20",
		"top_spender":        "Fulano <script>",
		"top_spender_amount": "123.45",
	}}})

	status, body := get(t, app, "/")
	require.Equal(t, fiber.StatusOK, status)
	html := string(body)
	assert.Contains(t, html, "<td>513</td>")
	assert.Contains(t, html, "Fulano &lt;script&gt; (R$ 123.45)")
	assert.NotContains(t, html, "<script>")
}

func TestHomePageWithoutData(t *testing.T) {
	app := newTestApp(Deps{Summary: stubSummary{err: errors.New("no table")}})

	status, body := get(t, app, "/")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body), "No data imported yet")
}

func TestRequestLogger(t *testing.T) {
	var logs bytes.Buffer
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zerolog.Nop())})
	app.Use(RequestLogger(zerolog.New(&logs)))
	Register(app, Deps{Legislators: &stubLegislators{}})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/legislators/99", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	line := strings.TrimSpace(logs.String())
	assert.Contains(t, line, `"level":"warn"`)
	assert.Contains(t, line, `"status":404`)
	assert.Contains(t, line, `"path":"/api/legislators/99"`)
}
