package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/jjenkins/camara/internal/pagination"
)

// where accumulates AND-ed predicates with positional arguments. A "?" in
// an expression is replaced by the next $n placeholder.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(expr string, arg any) {
	w.conds = append(w.conds, strings.Replace(expr, "?", w.bind(arg), 1))
}

// bind appends arg and returns its placeholder.
func (w *where) bind(arg any) string {
	w.args = append(w.args, arg)
	return "$" + strconv.Itoa(len(w.args))
}

// equalUpper matches a code column exactly after upper-casing the value.
func (w *where) equalUpper(column, value string) {
	if value == "" {
		return
	}
	w.add(column+" = ?", strings.ToUpper(strings.TrimSpace(value)))
}

// contains matches a free-text column with a case-insensitive substring.
func (w *where) contains(column, value string) {
	if value == "" {
		return
	}
	w.add(column+" ILIKE ?", "%"+escapeLike(value)+"%")
}

// equalFold matches a free-text column exactly, ignoring case.
func (w *where) equalFold(column, value string) {
	w.add(column+" ILIKE ?", escapeLike(value))
}

func (w *where) equalInt(column string, value *int) {
	if value == nil {
		return
	}
	w.add(column+" = ?", *value)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// rowScanner converts the current row into a T.
type rowScanner[T any] func(rows *sql.Rows) (T, error)

// scanAll drains rows through scan. The result is never nil.
func scanAll[T any](rows *sql.Rows, scan rowScanner[T]) ([]T, error) {
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// queryList runs query and scans every row.
func queryList[T any](ctx context.Context, q Querier, query string, args []any, scan rowScanner[T]) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanAll(rows, scan)
}

// queryPage counts the full result of query, then fetches one ordered page
// of it. query must not contain ORDER BY, LIMIT or OFFSET.
func queryPage[T any](ctx context.Context, q Querier, query string, args []any, orderBy string, p pagination.Params, scan rowScanner[T]) (pagination.Page[T], error) {
	p = p.Normalize()

	var total int
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS counted"
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return pagination.Page[T]{}, fmt.Errorf("failed to count rows: %w", err)
	}

	if total == 0 {
		return pagination.New[T](nil, 0, p), nil
	}

	n := len(args)
	pageQuery := fmt.Sprintf("%s ORDER BY %s LIMIT $%d OFFSET $%d", query, orderBy, n+1, n+2)
	pageArgs := append(append([]any{}, args...), p.Limit(), p.Offset())

	items, err := queryList(ctx, q, pageQuery, pageArgs, scan)
	if err != nil {
		return pagination.Page[T]{}, fmt.Errorf("failed to fetch page: %w", err)
	}

	return pagination.New(items, total, p), nil
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
