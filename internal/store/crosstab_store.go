package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jjenkins/camara/internal/apperr"
	"github.com/jjenkins/camara/internal/model"
)

// CrossTabStore computes grouped distributions: party cohesion inside a
// session and the office floor/building breakdowns.
type CrossTabStore struct {
	db *DB
}

// NewCrossTabStore creates a new CrossTabStore
func NewCrossTabStore(db *DB) *CrossTabStore {
	return &CrossTabStore{db: db}
}

type voteCount struct {
	voteType string
	total    int
}

// PartyCohesion breaks down the votes the party's current legislators cast
// in one session. Both the party and the session must exist.
func (s *CrossTabStore) PartyCohesion(ctx context.Context, acronym string, sessionID int) (*model.PartyCohesion, error) {
	var (
		partyID     int
		partyAcr    string
		description string
		counts      []voteCount
	)

	err := s.db.Read(ctx, "crosstab.party_cohesion", func(q Querier) error {
		err := q.QueryRowContext(ctx, "SELECT id, acronym FROM parties WHERE acronym = UPPER($1)", strings.TrimSpace(acronym)).Scan(&partyID, &partyAcr)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("party with acronym '%s' not found", acronym)
		}
		if err != nil {
			return fmt.Errorf("failed to resolve party: %w", err)
		}

		err = q.QueryRowContext(ctx, "SELECT description FROM voting_sessions WHERE id = $1", sessionID).Scan(&description)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("voting session with id %d not found", sessionID)
		}
		if err != nil {
			return fmt.Errorf("failed to resolve session: %w", err)
		}

		query := `
			SELECT v.vote_type, COUNT(v.id) AS total
			FROM votes v
			JOIN legislators l ON l.id = v.legislator_id
			WHERE l.party_id = $1 AND v.session_id = $2
			GROUP BY v.vote_type
			ORDER BY total DESC, v.vote_type ASC`
		counts, err = queryList(ctx, q, query, []any{partyID, sessionID}, func(rows *sql.Rows) (voteCount, error) {
			var c voteCount
			err := rows.Scan(&c.voteType, &c.total)
			return c, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute cohesion of %s in session %d: %w", acronym, sessionID, err)
	}

	cohesion := buildCohesion(counts)
	cohesion.PartyAcronym = partyAcr
	cohesion.SessionID = sessionID
	cohesion.SessionDescription = description
	return &cohesion, nil
}

// buildCohesion derives each vote type's share of the party's own votes.
// The distribution is empty, never nil, when the party cast no votes.
func buildCohesion(counts []voteCount) model.PartyCohesion {
	var c model.PartyCohesion
	for _, vc := range counts {
		c.TotalPartyVotes += vc.total
	}

	c.Distribution = make([]model.VoteShare, 0, len(counts))
	if c.TotalPartyVotes == 0 {
		return c
	}
	for _, vc := range counts {
		c.Distribution = append(c.Distribution, model.VoteShare{
			VoteType:   vc.voteType,
			Total:      vc.total,
			Percentage: model.Percentage(vc.total, c.TotalPartyVotes),
		})
	}
	return c
}

// SpendingByFloor groups the year's spend of legislators by office building
// and floor. building, when set, is a case-insensitive substring match.
func (s *CrossTabStore) SpendingByFloor(ctx context.Context, year int, building string) ([]model.FloorSpending, error) {
	var w where
	totals := expenseTotalsSubquery(w.bind(year))
	w.contains("o.building", building)

	query := `
		SELECT o.building, o.floor,
		       SUM(t.total_expenses) AS total_spent,
		       COUNT(DISTINCT o.legislator_id) AS legislators
		FROM offices o
		JOIN (` + totals + `) t ON t.legislator_id = o.legislator_id` + w.String() + `
		GROUP BY o.building, o.floor
		ORDER BY total_spent DESC, o.building ASC NULLS LAST, o.floor ASC NULLS LAST`

	scan := func(rows *sql.Rows) (model.FloorSpending, error) {
		var r model.FloorSpending
		err := rows.Scan(&r.Building, &r.Floor, &r.TotalSpent, &r.Legislators)
		r.AveragePerLegislator = perLegislator(r.TotalSpent, r.Legislators)
		r.TotalSpent = model.Round2(r.TotalSpent)
		return r, err
	}

	var rows []model.FloorSpending
	err := s.db.Read(ctx, "crosstab.floor_spending", func(q Querier) error {
		var err error
		rows, err = queryList(ctx, q, query, w.args, scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute floor spending: %w", err)
	}

	return rows, nil
}

// PartyCompositionByFloor counts legislators per party on a floor, matched
// exactly ignoring case. An empty result is reported as NotFound.
func (s *CrossTabStore) PartyCompositionByFloor(ctx context.Context, floor, building string) ([]model.FloorPartyComposition, error) {
	var w where
	w.equalFold("o.floor", floor)
	w.contains("o.building", building)

	query := `
		SELECT p.acronym, p.name, COUNT(DISTINCT l.id) AS legislators
		FROM offices o
		JOIN legislators l ON l.id = o.legislator_id
		JOIN parties p ON p.id = l.party_id` + w.String() + `
		GROUP BY p.id
		ORDER BY legislators DESC, p.acronym ASC`

	scan := func(rows *sql.Rows) (model.FloorPartyComposition, error) {
		var r model.FloorPartyComposition
		err := rows.Scan(&r.PartyAcronym, &r.PartyName, &r.Legislators)
		return r, err
	}

	var rows []model.FloorPartyComposition
	err := s.db.Read(ctx, "crosstab.floor_composition", func(q Querier) error {
		var err error
		rows, err = queryList(ctx, q, query, w.args, scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute composition of floor %s: %w", floor, err)
	}

	if len(rows) == 0 {
		return nil, apperr.NotFound("no legislators found on floor '%s'%s", floor, inBuilding(building))
	}
	return rows, nil
}

// FloorProfile reports, per party on a floor, the legislator count and the
// year's spend. An empty result is reported as NotFound.
func (s *CrossTabStore) FloorProfile(ctx context.Context, floor string, year int, building string) (*model.FloorProfile, error) {
	var w where
	totals := expenseTotalsSubquery(w.bind(year))
	w.equalFold("o.floor", floor)
	w.contains("o.building", building)

	query := `
		SELECT p.acronym, p.name,
		       COUNT(DISTINCT l.id) AS legislators,
		       SUM(t.total_expenses) AS total_spent
		FROM offices o
		JOIN legislators l ON l.id = o.legislator_id
		JOIN parties p ON p.id = l.party_id
		JOIN (` + totals + `) t ON t.legislator_id = l.id` + w.String() + `
		GROUP BY p.id
		ORDER BY total_spent DESC, p.acronym ASC`

	scan := func(rows *sql.Rows) (model.FloorPartyProfile, error) {
		var r model.FloorPartyProfile
		err := rows.Scan(&r.PartyAcronym, &r.PartyName, &r.Legislators, &r.TotalSpent)
		r.AveragePerLegislator = perLegislator(r.TotalSpent, r.Legislators)
		r.TotalSpent = model.Round2(r.TotalSpent)
		return r, err
	}

	var parties []model.FloorPartyProfile
	err := s.db.Read(ctx, "crosstab.floor_profile", func(q Querier) error {
		var err error
		parties, err = queryList(ctx, q, query, w.args, scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute profile of floor %s: %w", floor, err)
	}

	if len(parties) == 0 {
		return nil, apperr.NotFound("no expense data found for legislators on floor '%s' in %d%s", floor, year, inBuilding(building))
	}

	return &model.FloorProfile{
		Floor:          floor,
		Year:           year,
		BuildingFilter: buildingFilterLabel(building),
		Parties:        parties,
	}, nil
}

// StateSpending groups the year's expenses by the legislators' state.
// AverageExpense is the mean amount of a single expense row.
func (s *CrossTabStore) StateSpending(ctx context.Context, year int, state string) ([]model.StateSpending, error) {
	var w where
	w.add("e.year = ?", year)
	w.equalUpper("l.state", state)

	query := `
		SELECT l.state,
		       SUM(e.net_amount) AS total_spent,
		       AVG(e.net_amount) AS average_expense,
		       COUNT(e.id) AS expenses,
		       COUNT(DISTINCT l.id) AS legislators
		FROM legislators l
		JOIN expenses e ON e.legislator_id = l.id` + w.String() + `
		GROUP BY l.state
		ORDER BY total_spent DESC, l.state ASC`

	scan := func(rows *sql.Rows) (model.StateSpending, error) {
		var r model.StateSpending
		err := rows.Scan(&r.State, &r.TotalSpent, &r.AverageExpense, &r.Expenses, &r.Legislators)
		r.TotalSpent = model.Round2(r.TotalSpent)
		r.AverageExpense = model.Round2(r.AverageExpense)
		return r, err
	}

	var rows []model.StateSpending
	err := s.db.Read(ctx, "crosstab.state_spending", func(q Querier) error {
		var err error
		rows, err = queryList(ctx, q, query, w.args, scan)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compute state spending: %w", err)
	}

	return rows, nil
}

func perLegislator(total float64, legislators int) float64 {
	if legislators <= 0 {
		return 0
	}
	return model.Round2(total / float64(legislators))
}

func inBuilding(building string) string {
	if building == "" {
		return ""
	}
	return fmt.Sprintf(" in building '%s'", building)
}

func buildingFilterLabel(building string) string {
	if building == "" {
		return "all"
	}
	return building
}
