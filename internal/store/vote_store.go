package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jjenkins/camara/internal/apperr"
	"github.com/jjenkins/camara/internal/model"
	"github.com/jjenkins/camara/internal/pagination"
)

// VoteStore handles database operations for individual votes
type VoteStore struct {
	db *DB
}

// NewVoteStore creates a new VoteStore
func NewVoteStore(db *DB) *VoteStore {
	return &VoteStore{db: db}
}

const voteColumns = `id, session_id, legislator_id, vote_type, registered_at, party_acronym_snapshot, legislator_uri, session_uri`

func scanVoteRows(rows *sql.Rows) (model.Vote, error) {
	var v model.Vote
	err := rows.Scan(
		&v.ID,
		&v.SessionID,
		&v.LegislatorID,
		&v.VoteType,
		&v.RegisteredAt,
		&v.PartySnapshot,
		&v.LegislatorURI,
		&v.SessionURI,
	)
	return v, err
}

// ByLegislator retrieves a page of the votes cast by a legislator, most
// recent first. The legislator must exist.
func (s *VoteStore) ByLegislator(ctx context.Context, legislatorID int, p pagination.Params) (pagination.Page[model.Vote], error) {
	query := "SELECT " + voteColumns + " FROM votes WHERE legislator_id = $1"

	var page pagination.Page[model.Vote]
	err := s.db.Read(ctx, "vote.by_legislator", func(q Querier) error {
		if err := requireRow(ctx, q, "legislators", legislatorID); err != nil {
			return err
		}
		var err error
		page, err = queryPage(ctx, q, query, []any{legislatorID}, "registered_at DESC NULLS LAST, id ASC", p, scanVoteRows)
		return err
	})
	if apperr.IsNotFound(err) {
		return page, apperr.NotFound("legislator with id %d not found", legislatorID)
	}
	if err != nil {
		return page, fmt.Errorf("failed to list votes of legislator %d: %w", legislatorID, err)
	}

	return page, nil
}

// ByBill retrieves a page of the votes cast in any session linked to a bill.
// The bill must exist.
func (s *VoteStore) ByBill(ctx context.Context, billID int, p pagination.Params) (pagination.Page[model.Vote], error) {
	query := `
		SELECT ` + qualify("v", voteColumns) + `
		FROM votes v
		WHERE v.session_id IN (SELECT session_id FROM bill_voting_sessions WHERE bill_id = $1)`

	var page pagination.Page[model.Vote]
	err := s.db.Read(ctx, "vote.by_bill", func(q Querier) error {
		if err := requireRow(ctx, q, "bills", billID); err != nil {
			return err
		}
		var err error
		page, err = queryPage(ctx, q, query, []any{billID}, "v.session_id ASC, v.id ASC", p, scanVoteRows)
		return err
	})
	if apperr.IsNotFound(err) {
		return page, apperr.NotFound("bill with id %d not found", billID)
	}
	if err != nil {
		return page, fmt.Errorf("failed to list votes of bill %d: %w", billID, err)
	}

	return page, nil
}
