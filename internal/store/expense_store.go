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

// ExpenseStore handles database operations for expenses
type ExpenseStore struct {
	db *DB
}

// NewExpenseStore creates a new ExpenseStore
func NewExpenseStore(db *DB) *ExpenseStore {
	return &ExpenseStore{db: db}
}

const expenseColumns = `id, legislator_id, year, month, category, net_amount, document_code, document_type, document_url, supplier_name`

func scanExpense(row scanner) (model.Expense, error) {
	var e model.Expense
	err := row.Scan(
		&e.ID,
		&e.LegislatorID,
		&e.Year,
		&e.Month,
		&e.Category,
		&e.NetAmount,
		&e.DocumentCode,
		&e.DocumentType,
		&e.DocumentURL,
		&e.SupplierName,
	)
	return e, err
}

func scanExpenseRows(rows *sql.Rows) (model.Expense, error) {
	return scanExpense(rows)
}

// GetByID retrieves an expense by its ID
func (s *ExpenseStore) GetByID(ctx context.Context, id int) (*model.Expense, error) {
	var e model.Expense
	err := s.db.Read(ctx, "expense.get", func(q Querier) error {
		var err error
		e, err = scanExpense(q.QueryRowContext(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = $1", id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("expense with id %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense %d: %w", id, err)
	}

	return &e, nil
}

// List retrieves a filtered page of expenses
func (s *ExpenseStore) List(ctx context.Context, f model.ExpenseFilter, p pagination.Params) (pagination.Page[model.Expense], error) {
	var w where
	w.equalInt("legislator_id", f.LegislatorID)
	w.equalInt("year", f.Year)
	w.equalInt("month", f.Month)

	var page pagination.Page[model.Expense]
	err := s.db.Read(ctx, "expense.list", func(q Querier) error {
		var err error
		page, err = queryPage(ctx, q, "SELECT "+expenseColumns+" FROM expenses"+w.String(), w.args, "year DESC, month DESC, id ASC", p, scanExpenseRows)
		return err
	})
	if err != nil {
		return page, fmt.Errorf("failed to list expenses: %w", err)
	}

	return page, nil
}
