package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// Querier is the read surface available inside a scoped transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Execer is the write surface used by ingestion.
type Execer interface {
	Querier
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// QueryObserver records how long each store operation took.
type QueryObserver interface {
	ObserveQuery(operation string, start time.Time, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveQuery(string, time.Time, error) {}

// DB wraps the connection pool. Every operation acquires its own
// transaction and releases it before returning; nothing is shared across
// operations.
type DB struct {
	pool     *sql.DB
	observer QueryObserver
}

// Option configures a DB.
type Option func(*DB)

// WithObserver attaches a query duration observer.
func WithObserver(o QueryObserver) Option {
	return func(d *DB) {
		if o != nil {
			d.observer = o
		}
	}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string, opts ...Option) (*DB, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pool.SetMaxOpenConns(20)
	pool.SetMaxIdleConns(5)
	pool.SetConnMaxLifetime(30 * time.Minute)

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return New(pool, opts...), nil
}

// New wraps an existing pool.
func New(pool *sql.DB, opts ...Option) *DB {
	d := &DB{pool: pool, observer: nopObserver{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Close releases the pool.
func (d *DB) Close() error {
	return d.pool.Close()
}

// Ping checks connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.pool.PingContext(ctx)
}

// Migrate applies the embedded schema. Statements are idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.pool.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Read runs fn inside a read-only transaction on a single connection. The
// transaction is committed when fn succeeds and rolled back otherwise.
func (d *DB) Read(ctx context.Context, operation string, fn func(q Querier) error) (err error) {
	start := time.Now()
	defer func() { d.observer.ObserveQuery(operation, start, err) }()

	tx, err := d.pool.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("%s: failed to begin read transaction: %w", operation, err)
	}
	defer tx.Rollback()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit read transaction: %w", operation, err)
	}
	return nil
}

// Write runs fn inside a read-write transaction.
func (d *DB) Write(ctx context.Context, operation string, fn func(q Execer) error) (err error) {
	start := time.Now()
	defer func() { d.observer.ObserveQuery(operation, start, err) }()

	tx, err := d.pool.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", operation, err)
	}
	defer tx.Rollback()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", operation, err)
	}
	return nil
}
