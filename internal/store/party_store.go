package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jjenkins/camara/internal/apperr"
	"github.com/jjenkins/camara/internal/model"
	"github.com/jjenkins/camara/internal/pagination"
)

// PartyStore handles database operations for parties
type PartyStore struct {
	db *DB
}

// NewPartyStore creates a new PartyStore
func NewPartyStore(db *DB) *PartyStore {
	return &PartyStore{db: db}
}

const partyColumns = `id, external_id, acronym, name, logo_url, legislature_id, status, total_members, total_sworn_in`

func scanParty(row scanner) (model.Party, error) {
	var p model.Party
	err := row.Scan(
		&p.ID,
		&p.ExternalID,
		&p.Acronym,
		&p.Name,
		&p.LogoURL,
		&p.LegislatureID,
		&p.Status,
		&p.TotalMembers,
		&p.TotalSwornIn,
	)
	return p, err
}

func scanPartyRows(rows *sql.Rows) (model.Party, error) {
	return scanParty(rows)
}

// GetByID retrieves a party by its ID
func (s *PartyStore) GetByID(ctx context.Context, id int) (*model.Party, error) {
	var p model.Party
	err := s.db.Read(ctx, "party.get", func(q Querier) error {
		var err error
		p, err = scanParty(q.QueryRowContext(ctx, "SELECT "+partyColumns+" FROM parties WHERE id = $1", id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("party with id %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get party %d: %w", id, err)
	}

	return &p, nil
}

// GetByAcronym retrieves a party by its acronym, matched after upper-casing
func (s *PartyStore) GetByAcronym(ctx context.Context, acronym string) (*model.Party, error) {
	var p model.Party
	err := s.db.Read(ctx, "party.get_by_acronym", func(q Querier) error {
		var err error
		p, err = scanParty(q.QueryRowContext(ctx, "SELECT "+partyColumns+" FROM parties WHERE acronym = UPPER($1)", acronym))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("party with acronym '%s' not found", acronym)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get party %s: %w", acronym, err)
	}

	return &p, nil
}

// List retrieves a filtered page of parties
func (s *PartyStore) List(ctx context.Context, f model.PartyFilter, p pagination.Params) (pagination.Page[model.Party], error) {
	var w where
	w.contains("acronym", f.Acronym)
	w.contains("name", f.Name)
	w.contains("status", f.Status)
	if f.MinMembers != nil {
		w.add("total_sworn_in >= ?", *f.MinMembers)
	}
	if f.MaxMembers != nil {
		w.add("total_sworn_in <= ?", *f.MaxMembers)
	}

	var page pagination.Page[model.Party]
	err := s.db.Read(ctx, "party.list", func(q Querier) error {
		var err error
		page, err = queryPage(ctx, q, "SELECT "+partyColumns+" FROM parties"+w.String(), w.args, "acronym ASC, id ASC", p, scanPartyRows)
		return err
	})
	if err != nil {
		return page, fmt.Errorf("failed to list parties: %w", err)
	}

	return page, nil
}
