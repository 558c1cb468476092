package handlers

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jjenkins/camara/internal/logger"
)

// HomeMetrics is what the landing page shows about the imported data.
type HomeMetrics struct {
	HasData          bool
	TotalParties     string
	TotalLegislators string
	TotalSessions    string
	TotalVotes       string
	TotalBills       string
	LatestYear       string
	TotalSpent       string
	TopSpender       string
	TopSpenderAmount string
	LargestParty     string
}

func homeMetricsFrom(m map[string]string) HomeMetrics {
	metrics := HomeMetrics{
		TotalParties:     m["total_parties"],
		TotalLegislators: m["total_legislators"],
		TotalSessions:    m["total_sessions"],
		TotalVotes:       m["total_votes"],
		TotalBills:       m["total_bills"],
		LatestYear:       m["latest_year"],
		TotalSpent:       m["total_spent"],
		TopSpender:       m["top_spender"],
		TopSpenderAmount: m["top_spender_amount"],
		LargestParty:     m["largest_party"],
	}
	if n, err := strconv.Atoi(metrics.TotalLegislators); err == nil && n > 0 {
		metrics.HasData = true
	}
	return metrics
}

func HomeHandler(summary SummaryQueries) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		metrics := HomeMetrics{}
		latest, err := summary.GetLatestMetrics(ctx)
		if err != nil {
			// The page still renders without numbers.
			log := logger.FromContext(ctx)
			log.Warn().Err(err).Msg("Error loading summary metrics")
		} else {
			metrics = homeMetricsFrom(latest)
		}

		handler := adaptor.HTTPHandler(templ.Handler(HomePage(metrics)))
		return handler(c)
	}
}

// HomePage renders the landing page.
func HomePage(m HomeMetrics) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="pt-BR"><head><meta charset="utf-8"><title>Câmara Analytics</title></head><body><main><h1>Câmara Analytics</h1>`); err != nil {
			return err
		}
		if !m.HasData {
			_, err := io.WriteString(w, `<p>No data imported yet. Run <code>camara import</code> to load the Chamber of Deputies open data.</p></main></body></html>`)
			return err
		}

		rows := [][2]string{
			{"Parties", m.TotalParties},
			{"Legislators", m.TotalLegislators},
			{"Voting sessions", m.TotalSessions},
			{"Votes", m.TotalVotes},
			{"Bills", m.TotalBills},
			{"Latest expense year", m.LatestYear},
			{"Total spent (R$)", m.TotalSpent},
			{"Top spender", fmt.Sprintf("%s (R$ %s)", m.TopSpender, m.TopSpenderAmount)},
			{"Largest party", m.LargestParty},
		}
		if _, err := io.WriteString(w, `<table>`); err != nil {
			return err
		}
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, `<tr><th>%s</th><td>%s</td></tr>`, templ.EscapeString(r[0]), templ.EscapeString(r[1])); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</table><p>JSON endpoints live under <code>/api</code>.</p></main></body></html>`)
		return err
	})
}
