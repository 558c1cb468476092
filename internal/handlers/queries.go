package handlers

import (
	"context"

	"github.com/jjenkins/camara/internal/model"
	"github.com/jjenkins/camara/internal/pagination"
)

// The interfaces below are the read operations each handler needs. The
// store package provides the production implementations.

type LegislatorQueries interface {
	GetByID(ctx context.Context, id int) (*model.Legislator, error)
	List(ctx context.Context, f model.LegislatorFilter, p pagination.Params) (pagination.Page[model.Legislator], error)
	ListByParty(ctx context.Context, acronym string, p pagination.Params) (pagination.Page[model.Legislator], error)
	Summary(ctx context.Context, id, year int) (*model.LegislatorSummary, error)
	ListOffices(ctx context.Context, f model.OfficeFilter, p pagination.Params) (pagination.Page[model.Office], error)
	GetOffice(ctx context.Context, id int) (*model.Office, error)
}

type PartyQueries interface {
	GetByID(ctx context.Context, id int) (*model.Party, error)
	List(ctx context.Context, f model.PartyFilter, p pagination.Params) (pagination.Page[model.Party], error)
}

type ExpenseQueries interface {
	GetByID(ctx context.Context, id int) (*model.Expense, error)
	List(ctx context.Context, f model.ExpenseFilter, p pagination.Params) (pagination.Page[model.Expense], error)
}

type BillQueries interface {
	GetByID(ctx context.Context, id int) (*model.Bill, error)
	List(ctx context.Context, f model.BillFilter, p pagination.Params) (pagination.Page[model.Bill], error)
	Sessions(ctx context.Context, billID int) ([]model.VotingSession, error)
	ListLinks(ctx context.Context, f model.LinkFilter, p pagination.Params) (pagination.Page[model.BillVotingLink], error)
}

type SessionQueries interface {
	GetByID(ctx context.Context, id int) (*model.VotingSession, error)
	List(ctx context.Context, f model.SessionFilter, p pagination.Params) (pagination.Page[model.VotingSession], error)
}

type VoteQueries interface {
	ByLegislator(ctx context.Context, legislatorID int, p pagination.Params) (pagination.Page[model.Vote], error)
	ByBill(ctx context.Context, billID int, p pagination.Params) (pagination.Page[model.Vote], error)
}

type RankingQueries interface {
	ExpenseRanking(ctx context.Context, year int, p pagination.Params) (pagination.Page[model.LegislatorExpenseRank], error)
	PartyExpenseRanking(ctx context.Context, year int) ([]model.PartyExpenseRank, error)
	ParticipationRanking(ctx context.Context, p pagination.Params) (pagination.Page[model.ParticipationRank], error)
	VoteTypeRanking(ctx context.Context, voteType model.VoteType, year *int, p pagination.Params) (pagination.Page[model.VoteTypeRank], error)
	AlignmentRanking(ctx context.Context, year *int) ([]model.AlignmentRank, error)
	MostVotedBills(ctx context.Context, limit int) ([]model.MostVotedBill, error)
}

type CrossTabQueries interface {
	PartyCohesion(ctx context.Context, acronym string, sessionID int) (*model.PartyCohesion, error)
	SpendingByFloor(ctx context.Context, year int, building string) ([]model.FloorSpending, error)
	PartyCompositionByFloor(ctx context.Context, floor, building string) ([]model.FloorPartyComposition, error)
	FloorProfile(ctx context.Context, floor string, year int, building string) (*model.FloorProfile, error)
	StateSpending(ctx context.Context, year int, state string) ([]model.StateSpending, error)
}

// SummaryQueries reads the metrics recorded after each import.
type SummaryQueries interface {
	GetLatestMetrics(ctx context.Context) (map[string]string, error)
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
