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

// BillStore handles database operations for bills and their links to voting
// sessions
type BillStore struct {
	db *DB
}

// NewBillStore creates a new BillStore
func NewBillStore(db *DB) *BillStore {
	return &BillStore{db: db}
}

const billColumns = `id, external_id, type_code, year, summary, presented_at, status, document_url`

func scanBill(row scanner) (model.Bill, error) {
	var b model.Bill
	err := row.Scan(
		&b.ID,
		&b.ExternalID,
		&b.TypeCode,
		&b.Year,
		&b.Summary,
		&b.PresentedAt,
		&b.Status,
		&b.DocumentURL,
	)
	return b, err
}

func scanBillRows(rows *sql.Rows) (model.Bill, error) {
	return scanBill(rows)
}

// GetByID retrieves a bill by its ID
func (s *BillStore) GetByID(ctx context.Context, id int) (*model.Bill, error) {
	var b model.Bill
	err := s.db.Read(ctx, "bill.get", func(q Querier) error {
		var err error
		b, err = scanBill(q.QueryRowContext(ctx, "SELECT "+billColumns+" FROM bills WHERE id = $1", id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("bill with id %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill %d: %w", id, err)
	}

	return &b, nil
}

// List retrieves a filtered page of bills
func (s *BillStore) List(ctx context.Context, f model.BillFilter, p pagination.Params) (pagination.Page[model.Bill], error) {
	var w where
	w.equalInt("year", f.Year)
	w.equalUpper("type_code", f.Type)

	var page pagination.Page[model.Bill]
	err := s.db.Read(ctx, "bill.list", func(q Querier) error {
		var err error
		page, err = queryPage(ctx, q, "SELECT "+billColumns+" FROM bills"+w.String(), w.args, "year DESC, id ASC", p, scanBillRows)
		return err
	})
	if err != nil {
		return page, fmt.Errorf("failed to list bills: %w", err)
	}

	return page, nil
}

// Sessions returns every voting session linked to a bill, most recent first.
// The bill must exist.
func (s *BillStore) Sessions(ctx context.Context, billID int) ([]model.VotingSession, error) {
	query := `
		SELECT ` + qualify("vs", sessionColumns) + `
		FROM voting_sessions vs
		JOIN bill_voting_sessions bvs ON bvs.session_id = vs.id
		WHERE bvs.bill_id = $1
		ORDER BY vs.registered_at DESC NULLS LAST, vs.id ASC`

	var sessions []model.VotingSession
	err := s.db.Read(ctx, "bill.sessions", func(q Querier) error {
		if err := requireRow(ctx, q, "bills", billID); err != nil {
			return err
		}
		var err error
		sessions, err = queryList(ctx, q, query, []any{billID}, scanSessionRows)
		return err
	})
	if apperr.IsNotFound(err) {
		return nil, apperr.NotFound("bill with id %d not found", billID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions of bill %d: %w", billID, err)
	}

	return sessions, nil
}

// ListLinks retrieves a filtered page of bill/session links
func (s *BillStore) ListLinks(ctx context.Context, f model.LinkFilter, p pagination.Params) (pagination.Page[model.BillVotingLink], error) {
	var w where
	w.equalInt("bill_id", f.BillID)
	w.equalInt("session_id", f.SessionID)

	scan := func(rows *sql.Rows) (model.BillVotingLink, error) {
		var l model.BillVotingLink
		err := rows.Scan(&l.ID, &l.BillID, &l.SessionID)
		return l, err
	}

	var page pagination.Page[model.BillVotingLink]
	err := s.db.Read(ctx, "link.list", func(q Querier) error {
		var err error
		page, err = queryPage(ctx, q, "SELECT id, bill_id, session_id FROM bill_voting_sessions"+w.String(), w.args, "id ASC", p, scan)
		return err
	})
	if err != nil {
		return page, fmt.Errorf("failed to list bill links: %w", err)
	}

	return page, nil
}

// requireRow fails with NotFound when table has no row with id.
func requireRow(ctx context.Context, q Querier, table string, id int) error {
	var exists bool
	err := q.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM "+table+" WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check %s %d: %w", table, id, err)
	}
	if !exists {
		return apperr.NotFound("%s row with id %d not found", table, id)
	}
	return nil
}
