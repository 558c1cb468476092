package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Deps are the read sides the HTTP routes are served from.
type Deps struct {
	Legislators LegislatorQueries
	Parties     PartyQueries
	Expenses    ExpenseQueries
	Bills       BillQueries
	Sessions    SessionQueries
	Votes       VoteQueries
	Rankings    RankingQueries
	CrossTab    CrossTabQueries
	Summary     SummaryQueries
	DB          Pinger
}

// Register mounts the home page, health check and JSON API on app.
func Register(app fiber.Router, d Deps) {
	app.Get("/", HomeHandler(d.Summary))
	app.Get("/healthz", HealthHandler(d.DB))

	api := app.Group("/api")

	api.Get("/legislators", ListHandler(d.Legislators, LegislatorQueries.List))
	api.Get("/legislators/:id", GetByIDHandler(d.Legislators, LegislatorQueries.GetByID))
	api.Get("/legislators/:id/summary", LegislatorSummaryHandler(d.Legislators))
	api.Get("/legislators/:id/votes", LegislatorVotesHandler(d.Votes))

	api.Get("/parties", ListHandler(d.Parties, PartyQueries.List))
	api.Get("/parties/by-acronym/:acronym/legislators", PartyLegislatorsHandler(d.Legislators))
	api.Get("/parties/:acronym/cohesion/:session_id", PartyCohesionHandler(d.CrossTab))
	api.Get("/parties/:id", GetByIDHandler(d.Parties, PartyQueries.GetByID))

	api.Get("/offices", ListHandler(d.Legislators, LegislatorQueries.ListOffices))
	api.Get("/offices/:id", GetByIDHandler(d.Legislators, LegislatorQueries.GetOffice))

	api.Get("/expenses", ListHandler(d.Expenses, ExpenseQueries.List))
	api.Get("/expenses/:id", GetByIDHandler(d.Expenses, ExpenseQueries.GetByID))

	api.Get("/bills", ListHandler(d.Bills, BillQueries.List))
	api.Get("/bills/:id", GetByIDHandler(d.Bills, BillQueries.GetByID))
	api.Get("/bills/:id/sessions", BillSessionsHandler(d.Bills))
	api.Get("/bills/:id/votes", BillVotesHandler(d.Votes))

	api.Get("/sessions", ListHandler(d.Sessions, SessionQueries.List))
	api.Get("/sessions/:id", GetByIDHandler(d.Sessions, SessionQueries.GetByID))

	api.Get("/links", ListHandler(d.Bills, BillQueries.ListLinks))

	rankings := api.Group("/rankings")
	rankings.Get("/legislators/expenses", ExpenseRankingHandler(d.Rankings))
	rankings.Get("/legislators/participation", ParticipationRankingHandler(d.Rankings))
	rankings.Get("/parties/expenses", PartyExpenseRankingHandler(d.Rankings))
	rankings.Get("/parties/vote-type", VoteTypeRankingHandler(d.Rankings))
	rankings.Get("/parties/alignment", AlignmentRankingHandler(d.Rankings))
	rankings.Get("/bills/most-voted", MostVotedBillsHandler(d.Rankings))

	analysis := api.Group("/analysis")
	analysis.Get("/floors/spending", FloorSpendingHandler(d.CrossTab))
	analysis.Get("/floors/composition", FloorCompositionHandler(d.CrossTab))
	analysis.Get("/floors/profile", FloorProfileHandler(d.CrossTab))
	analysis.Get("/states/spending", StateSpendingHandler(d.CrossTab))
}
