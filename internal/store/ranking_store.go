package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"

	"github.com/jjenkins/camara/internal/apperr"
	"github.com/jjenkins/camara/internal/model"
	"github.com/jjenkins/camara/internal/pagination"
)

// RankingStore computes ordered rankings over legislators, parties and bills.
// Float aggregates are summed by PostgreSQL and rounded to two decimals here.
type RankingStore struct {
	db *DB
}

// NewRankingStore creates a new RankingStore
func NewRankingStore(db *DB) *RankingStore {
	return &RankingStore{db: db}
}

// ExpenseRanking ranks every legislator by total spend in year. Legislators
// with no expenses appear with a zero total.
func (s *RankingStore) ExpenseRanking(ctx context.Context, year int, p pagination.Params) (pagination.Page[model.LegislatorExpenseRank], error) {
	var w where
	query := `
		SELECT l.id, l.external_id, l.display_name, l.party_acronym, l.state, l.photo_url, l.sex,
		       COALESCE(t.total_expenses, 0) AS total_expenses
		FROM legislators l
		LEFT JOIN (` + expenseTotalsSubquery(w.bind(year)) + `) t ON t.legislator_id = l.id`

	scan := func(rows *sql.Rows) (model.LegislatorExpenseRank, error) {
		var r model.LegislatorExpenseRank
		err := rows.Scan(&r.ID, &r.ExternalID, &r.DisplayName, &r.PartyAcronym, &r.State, &r.PhotoURL, &r.Sex, &r.TotalExpenses)
		r.TotalExpenses = model.Round2(r.TotalExpenses)
		return r, err
	}

	var page pagination.Page[model.LegislatorExpenseRank]
	err := s.db.Read(ctx, "ranking.legislator_expenses", func(q Querier) error {
		var err error
		page, err = queryPage(ctx, q, query, w.args, "total_expenses DESC, l.id ASC", p, scan)
		return err
	})
	if err != nil {
		return page, fmt.Errorf("failed to rank legislator expenses: %w", err)
	}

	return page, nil
}

// PartyExpenseRanking ranks parties by the summed totals of their
// legislators in year. Parties without a legislator who spent are left out.
func (s *RankingStore) PartyExpenseRanking(ctx context.Context, year int) ([]model.PartyExpenseRank, error) {
	query := `
		SELECT p.id, p.external_id, p.acronym, p.name, SUM(t.total_expenses) AS total_expenses
		FROM parties p
		JOIN legislators l ON l.party_id = p.id
		JOIN (` + expenseTotalsSubquery("$1") + `) t ON t.legislator_id = l.id
		GROUP BY p.id
		ORDER BY total_expenses DESC, p.acronym ASC`

	scan := func(rows *sql.Rows) (model.PartyExpenseRank, error) {
		var r model.PartyExpenseRank
		err := rows.Scan(&r.ID, &r.ExternalID, &r.Acronym, &r.Name, &r.TotalExpenses)
		r.TotalExpenses = model.Round2(r.TotalExpenses)
		return r, err
	}

	var ranks []model.PartyExpenseRank
	err := s.db.Read(ctx, "ranking.party_expenses", func(q Querier) error {
		var err error
		ranks, err = queryList(ctx, q, query, []any{year}, scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rank party expenses: %w", err)
	}

	return ranks, nil
}

// ParticipationRanking ranks legislators by the number of distinct sessions
// they voted in, then by the distinct bills those sessions touched. Only
// legislators with at least one vote are ranked.
func (s *RankingStore) ParticipationRanking(ctx context.Context, p pagination.Params) (pagination.Page[model.ParticipationRank], error) {
	query := `
		SELECT l.id, l.display_name, l.party_acronym, l.state,
		       COUNT(DISTINCT v.session_id) AS sessions_voted,
		       COUNT(DISTINCT bvs.bill_id) AS bills_voted
		FROM legislators l
		JOIN votes v ON v.legislator_id = l.id
		LEFT JOIN bill_voting_sessions bvs ON bvs.session_id = v.session_id
		GROUP BY l.id`

	scan := func(rows *sql.Rows) (model.ParticipationRank, error) {
		var r model.ParticipationRank
		err := rows.Scan(&r.ID, &r.DisplayName, &r.PartyAcronym, &r.State, &r.SessionsVoted, &r.BillsVoted)
		return r, err
	}

	var page pagination.Page[model.ParticipationRank]
	err := s.db.Read(ctx, "ranking.participation", func(q Querier) error {
		var err error
		page, err = queryPage(ctx, q, query, nil, "sessions_voted DESC, bills_voted DESC, l.id ASC", p, scan)
		return err
	})
	if err != nil {
		return page, fmt.Errorf("failed to rank participation: %w", err)
	}

	return page, nil
}

// VoteTypeRanking ranks parties by how many times their legislators cast
// voteType. A year restricts votes whose stored timestamp text starts with
// that year.
func (s *RankingStore) VoteTypeRanking(ctx context.Context, voteType model.VoteType, year *int, p pagination.Params) (pagination.Page[model.VoteTypeRank], error) {
	var w where
	w.add("v.vote_type = ?", string(voteType))
	if year != nil {
		w.add("v.registered_at LIKE ?", yearPrefix(*year))
	}

	query := `
		SELECT p.acronym, p.name, v.vote_type, COUNT(v.id) AS total_votes
		FROM parties p
		JOIN legislators l ON l.party_id = p.id
		JOIN votes v ON v.legislator_id = l.id` + w.String() + `
		GROUP BY p.id, v.vote_type`

	scan := func(rows *sql.Rows) (model.VoteTypeRank, error) {
		var r model.VoteTypeRank
		err := rows.Scan(&r.PartyAcronym, &r.PartyName, &r.VoteType, &r.TotalVotes)
		return r, err
	}

	var page pagination.Page[model.VoteTypeRank]
	err := s.db.Read(ctx, "ranking.vote_type", func(q Querier) error {
		var err error
		page, err = queryPage(ctx, q, query, w.args, "total_votes DESC, p.acronym ASC", p, scan)
		return err
	})
	if err != nil {
		return page, fmt.Errorf("failed to rank parties by vote type %s: %w", voteType, err)
	}

	return page, nil
}

// AlignmentRanking ranks parties by the share of their decisive votes that
// matched the session outcome. Only Yes/No votes on sessions with a known
// outcome count; parties with no such votes are left out.
func (s *RankingStore) AlignmentRanking(ctx context.Context, year *int) ([]model.AlignmentRank, error) {
	var w where
	yes, no := w.bind(string(model.VoteYes)), w.bind(string(model.VoteNo))
	approved, rejected := w.bind(model.ApprovalApproved), w.bind(model.ApprovalRejected)
	w.conds = append(w.conds,
		"v.vote_type IN ("+yes+", "+no+")",
		"vs.approval IN ("+approved+", "+rejected+")",
	)
	if year != nil {
		w.add("v.registered_at LIKE ?", yearPrefix(*year))
	}

	query := `
		SELECT p.acronym, p.name,
		       SUM(CASE
		           WHEN v.vote_type = ` + yes + ` AND vs.approval = ` + approved + ` THEN 1
		           WHEN v.vote_type = ` + no + ` AND vs.approval = ` + rejected + ` THEN 1
		           ELSE 0 END) AS aligned_votes,
		       COUNT(v.id) AS decisive_votes
		FROM parties p
		JOIN legislators l ON l.party_id = p.id
		JOIN votes v ON v.legislator_id = l.id
		JOIN voting_sessions vs ON vs.id = v.session_id` + w.String() + `
		GROUP BY p.id`

	scan := func(rows *sql.Rows) (model.AlignmentRank, error) {
		var r model.AlignmentRank
		err := rows.Scan(&r.PartyAcronym, &r.PartyName, &r.AlignedVotes, &r.DecisiveVotes)
		return r, err
	}

	var ranks []model.AlignmentRank
	err := s.db.Read(ctx, "ranking.alignment", func(q Querier) error {
		var err error
		ranks, err = queryList(ctx, q, query, w.args, scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rank party alignment: %w", err)
	}

	return rankAlignment(ranks), nil
}

// rankAlignment derives percentages, drops parties without decisive votes
// and orders by percentage descending, then acronym.
func rankAlignment(ranks []model.AlignmentRank) []model.AlignmentRank {
	out := make([]model.AlignmentRank, 0, len(ranks))
	for _, r := range ranks {
		if r.DecisiveVotes <= 0 {
			continue
		}
		r.AlignmentPercentage = model.Percentage(r.AlignedVotes, r.DecisiveVotes)
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AlignmentPercentage != out[j].AlignmentPercentage {
			return out[i].AlignmentPercentage > out[j].AlignmentPercentage
		}
		return out[i].PartyAcronym < out[j].PartyAcronym
	})
	return out
}

// MostVotedBills returns up to limit bills ordered by how many sessions they
// were voted in.
func (s *RankingStore) MostVotedBills(ctx context.Context, limit int) ([]model.MostVotedBill, error) {
	if limit < 1 || limit > pagination.MaxPerPage {
		return nil, apperr.BadRequest("limit must be between 1 and %d", pagination.MaxPerPage)
	}

	query := `
		SELECT b.id, b.external_id, b.type_code, b.year, b.summary, COUNT(bvs.session_id) AS total_sessions
		FROM bills b
		JOIN bill_voting_sessions bvs ON bvs.bill_id = b.id
		GROUP BY b.id
		ORDER BY total_sessions DESC, b.id ASC
		LIMIT $1`

	scan := func(rows *sql.Rows) (model.MostVotedBill, error) {
		var r model.MostVotedBill
		err := rows.Scan(&r.ID, &r.ExternalID, &r.TypeCode, &r.Year, &r.Summary, &r.TotalSessions)
		return r, err
	}

	var bills []model.MostVotedBill
	err := s.db.Read(ctx, "ranking.most_voted_bills", func(q Querier) error {
		var err error
		bills, err = queryList(ctx, q, query, []any{limit}, scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rank most voted bills: %w", err)
	}

	return bills, nil
}

// yearPrefix matches stored timestamp text beginning with year. The text is
// not parsed, so malformed timestamps are silently excluded.
func yearPrefix(year int) string {
	return strconv.Itoa(year) + "%"
}
