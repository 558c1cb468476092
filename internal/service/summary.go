package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jjenkins/camara/internal/store"
)

// TxRunner runs a function inside a scoped transaction
type TxRunner interface {
	Read(ctx context.Context, operation string, fn func(q store.Querier) error) error
	Write(ctx context.Context, operation string, fn func(q store.Execer) error) error
}

// SummaryService calculates and stores chamber-wide summary metrics
type SummaryService struct {
	db TxRunner
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(db TxRunner) *SummaryService {
	return &SummaryService{db: db}
}

// Summary represents calculated chamber-wide metrics
type Summary struct {
	TotalParties     int
	TotalLegislators int
	TotalBills       int
	TotalSessions    int
	TotalVotes       int
	LatestYear       int
	TotalSpent       float64
	TopSpender       string
	TopSpenderAmount float64
	LargestParty     string
}

// CalculateAndStore calculates summary metrics and stores them
func (m *SummaryService) CalculateAndStore(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	err := m.db.Read(ctx, "summary.calculate", func(q store.Querier) error {
		countQuery := `
			SELECT
				(SELECT COUNT(*) FROM parties),
				(SELECT COUNT(*) FROM legislators),
				(SELECT COUNT(*) FROM bills),
				(SELECT COUNT(*) FROM voting_sessions),
				(SELECT COUNT(*) FROM votes),
				(SELECT COALESCE(MAX(year), 0) FROM expenses)
		`
		err := q.QueryRowContext(ctx, countQuery).Scan(
			&summary.TotalParties,
			&summary.TotalLegislators,
			&summary.TotalBills,
			&summary.TotalSessions,
			&summary.TotalVotes,
			&summary.LatestYear,
		)
		if err != nil {
			return fmt.Errorf("failed to count records: %w", err)
		}

		spentQuery := `SELECT COALESCE(SUM(net_amount), 0) FROM expenses WHERE year = $1`
		if err := q.QueryRowContext(ctx, spentQuery, summary.LatestYear).Scan(&summary.TotalSpent); err != nil {
			return fmt.Errorf("failed to sum expenses: %w", err)
		}

		// Find top spender of the latest year
		topQuery := `
			SELECT l.display_name, SUM(e.net_amount) AS total
			FROM expenses e
			JOIN legislators l ON l.id = e.legislator_id
			WHERE e.year = $1
			GROUP BY l.id
			ORDER BY total DESC, l.id ASC
			LIMIT 1
		`
		err = q.QueryRowContext(ctx, topQuery, summary.LatestYear).Scan(&summary.TopSpender, &summary.TopSpenderAmount)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to find top spender: %w", err)
		}

		largestQuery := `
			SELECT p.acronym
			FROM parties p
			JOIN legislators l ON l.party_id = p.id
			GROUP BY p.id
			ORDER BY COUNT(l.id) DESC, p.acronym ASC
			LIMIT 1
		`
		err = q.QueryRowContext(ctx, largestQuery).Scan(&summary.LargestParty)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to find largest party: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics := map[string]string{
		"total_parties":      fmt.Sprintf("%d", summary.TotalParties),
		"total_legislators":  fmt.Sprintf("%d", summary.TotalLegislators),
		"total_bills":        fmt.Sprintf("%d", summary.TotalBills),
		"total_sessions":     fmt.Sprintf("%d", summary.TotalSessions),
		"total_votes":        fmt.Sprintf("%d", summary.TotalVotes),
		"latest_year":        fmt.Sprintf("%d", summary.LatestYear),
		"total_spent":        fmt.Sprintf("%.2f", summary.TotalSpent),
		"top_spender":        summary.TopSpender,
		"top_spender_amount": fmt.Sprintf("%.2f", summary.TopSpenderAmount),
		"largest_party":      summary.LargestParty,
	}

	now := time.Now()
	err = m.db.Write(ctx, "summary.store", func(q store.Execer) error {
		for name, value := range metrics {
			if err := storeMetric(ctx, q, name, value, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// storeMetric stores a single metric value
func storeMetric(ctx context.Context, q store.Execer, name, value string, at time.Time) error {
	query := `
		INSERT INTO summary_metrics (metric_name, metric_value, calculated_at)
		VALUES ($1, $2, $3)
	`

	_, err := q.ExecContext(ctx, query, name, value, at)
	if err != nil {
		return fmt.Errorf("failed to store metric %s: %w", name, err)
	}

	return nil
}

// GetLatestMetrics retrieves the most recent value of every summary metric
func (m *SummaryService) GetLatestMetrics(ctx context.Context) (map[string]string, error) {
	query := `
		SELECT DISTINCT ON (metric_name) metric_name, metric_value
		FROM summary_metrics
		ORDER BY metric_name, calculated_at DESC
	`

	metrics := make(map[string]string)
	err := m.db.Read(ctx, "summary.latest", func(q store.Querier) error {
		rows, err := q.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to get metrics: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var name, value string
			if err := rows.Scan(&name, &value); err != nil {
				return fmt.Errorf("failed to scan metric: %w", err)
			}
			metrics[name] = value
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return metrics, nil
}
