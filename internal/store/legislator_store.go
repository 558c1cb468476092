package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jjenkins/camara/internal/apperr"
	"github.com/jjenkins/camara/internal/model"
	"github.com/jjenkins/camara/internal/pagination"
)

// LegislatorStore handles database operations for legislators and their offices
type LegislatorStore struct {
	db *DB
}

// NewLegislatorStore creates a new LegislatorStore
func NewLegislatorStore(db *DB) *LegislatorStore {
	return &LegislatorStore{db: db}
}

// legislatorWithOffice selects a legislator with its office eagerly joined,
// so listings need no second round trip per item.
const legislatorWithOffice = `
	SELECT l.id, l.external_id, l.civil_name, l.display_name, l.party_acronym,
	       l.party_id, l.state, l.legislature_id, l.photo_url, l.sex,
	       o.id, o.name, o.building, o.room, o.floor, o.phone, o.email
	FROM legislators l
	LEFT JOIN offices o ON o.legislator_id = l.id`

func scanLegislator(rows *sql.Rows) (model.Legislator, error) {
	return scanLegislatorRow(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLegislatorRow(row scanner) (model.Legislator, error) {
	var l model.Legislator
	var officeID *int
	var o model.Office
	var room *string

	err := row.Scan(
		&l.ID,
		&l.ExternalID,
		&l.CivilName,
		&l.DisplayName,
		&l.PartyAcronym,
		&l.PartyID,
		&l.State,
		&l.LegislatureID,
		&l.PhotoURL,
		&l.Sex,
		&officeID,
		&o.Name,
		&o.Building,
		&room,
		&o.Floor,
		&o.Phone,
		&o.Email,
	)
	if err != nil {
		return l, err
	}

	if officeID != nil {
		o.ID = *officeID
		o.LegislatorID = l.ID
		o.Room = derefOr(room, "")
		l.Office = &o
	}

	return l, nil
}

// GetByID retrieves a legislator with its office
func (s *LegislatorStore) GetByID(ctx context.Context, id int) (*model.Legislator, error) {
	var l model.Legislator
	err := s.db.Read(ctx, "legislator.get", func(q Querier) error {
		row := q.QueryRowContext(ctx, legislatorWithOffice+" WHERE l.id = $1", id)
		var err error
		l, err = scanLegislatorRow(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("legislator with id %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get legislator %d: %w", id, err)
	}

	return &l, nil
}

// List retrieves a filtered page of legislators with their offices
func (s *LegislatorStore) List(ctx context.Context, f model.LegislatorFilter, p pagination.Params) (pagination.Page[model.Legislator], error) {
	var w where
	w.equalUpper("l.state", f.State)
	w.equalUpper("l.sex", f.Sex)
	w.equalUpper("l.party_acronym", f.Party)

	var page pagination.Page[model.Legislator]
	err := s.db.Read(ctx, "legislator.list", func(q Querier) error {
		var err error
		page, err = queryPage(ctx, q, legislatorWithOffice+w.String(), w.args, "l.display_name ASC, l.id ASC", p, scanLegislator)
		return err
	})
	if err != nil {
		return page, fmt.Errorf("failed to list legislators: %w", err)
	}

	return page, nil
}

// ListByParty retrieves the legislators of the party with the given acronym.
// The party must exist.
func (s *LegislatorStore) ListByParty(ctx context.Context, acronym string, p pagination.Params) (pagination.Page[model.Legislator], error) {
	acronym = strings.ToUpper(strings.TrimSpace(acronym))

	var page pagination.Page[model.Legislator]
	err := s.db.Read(ctx, "legislator.list_by_party", func(q Querier) error {
		partyID, err := partyIDByAcronym(ctx, q, acronym)
		if err != nil {
			return err
		}

		page, err = queryPage(ctx, q, legislatorWithOffice+" WHERE l.party_id = $1", []any{partyID}, "l.display_name ASC, l.id ASC", p, scanLegislator)
		return err
	})
	if err != nil {
		return page, fmt.Errorf("failed to list legislators of party %s: %w", acronym, err)
	}

	return page, nil
}

// Summary returns the number of distinct sessions a legislator voted in and
// the legislator's total spend for year.
func (s *LegislatorStore) Summary(ctx context.Context, id, year int) (*model.LegislatorSummary, error) {
	summary := model.LegislatorSummary{ID: id, Year: year}

	err := s.db.Read(ctx, "legislator.summary", func(q Querier) error {
		var exists bool
		if err := q.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM legislators WHERE id = $1)", id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("legislator with id %d not found", id)
		}

		totalQuery := `
			SELECT COALESCE(SUM(t.total_expenses), 0)
			FROM (` + expenseTotalsSubquery("$2") + `) t
			WHERE t.legislator_id = $1`
		if err := q.QueryRowContext(ctx, totalQuery, id, year).Scan(&summary.TotalExpenses); err != nil {
			return fmt.Errorf("failed to sum expenses: %w", err)
		}

		sessionsQuery := `SELECT COUNT(DISTINCT session_id) FROM votes WHERE legislator_id = $1`
		if err := q.QueryRowContext(ctx, sessionsQuery, id).Scan(&summary.SessionsVoted); err != nil {
			return fmt.Errorf("failed to count sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to summarize legislator %d: %w", id, err)
	}

	summary.TotalExpenses = model.Round2(summary.TotalExpenses)
	return &summary, nil
}

// ListOffices retrieves a filtered page of offices
func (s *LegislatorStore) ListOffices(ctx context.Context, f model.OfficeFilter, p pagination.Params) (pagination.Page[model.Office], error) {
	var w where
	w.contains("building", f.Building)
	w.contains("floor", f.Floor)

	query := `SELECT id, legislator_id, name, building, room, floor, phone, email FROM offices` + w.String()

	var page pagination.Page[model.Office]
	err := s.db.Read(ctx, "office.list", func(q Querier) error {
		var err error
		page, err = queryPage(ctx, q, query, w.args, "id ASC", p, scanOffice)
		return err
	})
	if err != nil {
		return page, fmt.Errorf("failed to list offices: %w", err)
	}

	return page, nil
}

// GetOffice retrieves an office by its ID
func (s *LegislatorStore) GetOffice(ctx context.Context, id int) (*model.Office, error) {
	query := `SELECT id, legislator_id, name, building, room, floor, phone, email FROM offices WHERE id = $1`

	var o model.Office
	err := s.db.Read(ctx, "office.get", func(q Querier) error {
		return q.QueryRowContext(ctx, query, id).Scan(
			&o.ID, &o.LegislatorID, &o.Name, &o.Building, &o.Room, &o.Floor, &o.Phone, &o.Email,
		)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("office with id %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get office %d: %w", id, err)
	}

	return &o, nil
}

func scanOffice(rows *sql.Rows) (model.Office, error) {
	var o model.Office
	err := rows.Scan(&o.ID, &o.LegislatorID, &o.Name, &o.Building, &o.Room, &o.Floor, &o.Phone, &o.Email)
	return o, err
}

// partyIDByAcronym resolves a party acronym, failing with NotFound when the
// party does not exist.
func partyIDByAcronym(ctx context.Context, q Querier, acronym string) (int, error) {
	var id int
	err := q.QueryRowContext(ctx, "SELECT id FROM parties WHERE acronym = $1", acronym).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperr.NotFound("party with acronym '%s' not found", acronym)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve party %s: %w", acronym, err)
	}
	return id, nil
}
