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

// SessionStore handles database operations for voting sessions
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SessionStore
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

const sessionColumns = `id, external_id, registered_at, description, committee, approval, last_opening_description, uri`

// qualify prefixes each column in a comma-separated list with alias.
func qualify(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func scanSession(row scanner) (model.VotingSession, error) {
	var vs model.VotingSession
	err := row.Scan(
		&vs.ID,
		&vs.ExternalID,
		&vs.RegisteredAt,
		&vs.Description,
		&vs.Committee,
		&vs.Approval,
		&vs.LastOpeningDescription,
		&vs.URI,
	)
	vs.Outcome = model.ParseOutcome(vs.Approval)
	return vs, err
}

func scanSessionRows(rows *sql.Rows) (model.VotingSession, error) {
	return scanSession(rows)
}

// GetByID retrieves a voting session by its ID
func (s *SessionStore) GetByID(ctx context.Context, id int) (*model.VotingSession, error) {
	var vs model.VotingSession
	err := s.db.Read(ctx, "session.get", func(q Querier) error {
		var err error
		vs, err = scanSession(q.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM voting_sessions WHERE id = $1", id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("voting session with id %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voting session %d: %w", id, err)
	}

	return &vs, nil
}

// List retrieves a filtered page of voting sessions
func (s *SessionStore) List(ctx context.Context, f model.SessionFilter, p pagination.Params) (pagination.Page[model.VotingSession], error) {
	var w where
	w.equalUpper("committee", f.Committee)

	var page pagination.Page[model.VotingSession]
	err := s.db.Read(ctx, "session.list", func(q Querier) error {
		var err error
		page, err = queryPage(ctx, q, "SELECT "+sessionColumns+" FROM voting_sessions"+w.String(), w.args, "registered_at DESC NULLS LAST, id ASC", p, scanSessionRows)
		return err
	})
	if err != nil {
		return page, fmt.Errorf("failed to list voting sessions: %w", err)
	}

	return page, nil
}
