package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jjenkins/camara/internal/model"
	"github.com/jjenkins/camara/internal/store"
)

// Source is the upstream the importer reads from
type Source interface {
	FetchParties(ctx context.Context, legislature int) ([]int, error)
	FetchParty(ctx context.Context, id int) (*model.Party, error)
	FetchLegislators(ctx context.Context, legislature int) ([]model.Legislator, error)
	FetchLegislatorDetail(ctx context.Context, l *model.Legislator) error
	FetchExpenses(ctx context.Context, legislatorExternalID, year int) ([]model.Expense, error)
	FetchSessions(ctx context.Context, from, to string) ([]model.VotingSession, error)
	FetchSessionDetail(ctx context.Context, sessionExternalID string) (*SessionDetail, error)
	FetchBill(ctx context.Context, id string) (*model.Bill, error)
	FetchVotes(ctx context.Context, sessionExternalID string) ([]VoteRecord, error)
}

// Sink persists imported records
type Sink interface {
	SaveParty(ctx context.Context, p *model.Party) error
	SaveLegislator(ctx context.Context, l *model.Legislator) error
	ReplaceExpenses(ctx context.Context, legislatorID, year int, expenses []model.Expense) error
	SaveSession(ctx context.Context, vs *model.VotingSession) error
	SaveBill(ctx context.Context, b *model.Bill, sessionID int) error
	SaveVotes(ctx context.Context, votes []model.Vote) error
	PartyIDs(ctx context.Context) (map[string]int, error)
	Legislators(ctx context.Context) (map[int]store.LegislatorRef, error)
}

// Recorder counts processed records
type Recorder interface {
	IncrementImported(entity, result string, n int)
}

type nopRecorder struct{}

func (nopRecorder) IncrementImported(string, string, int) {}

// Options selects what an import fetches
type Options struct {
	Legislature int
	Year        int
	// From and To bound the voting sessions (YYYY-MM-DD). They default to
	// the whole of Year.
	From string
	To   string
}

// EntityStats tracks import statistics for one entity. Expenses are counted
// per row, except that a failed fetch counts as a single failure.
type EntityStats struct {
	Total    int
	Imported int
	Skipped  int
	Failed   int
}

// ImportStats tracks import statistics. It is safe for concurrent use.
type ImportStats struct {
	RunID string

	mu          sync.Mutex
	Parties     EntityStats
	Legislators EntityStats
	Expenses    EntityStats
	Sessions    EntityStats
	Bills       EntityStats
	Votes       EntityStats
}

func (s *ImportStats) add(e *EntityStats, total, imported, skipped, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Total += total
	e.Imported += imported
	e.Skipped += skipped
	e.Failed += failed
}

// HasFailures reports whether any record failed to import.
func (s *ImportStats) HasFailures() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range []EntityStats{s.Parties, s.Legislators, s.Expenses, s.Sessions, s.Bills, s.Votes} {
		if e.Failed > 0 {
			return true
		}
	}
	return false
}

// Importer orchestrates the open-data import process
type Importer struct {
	source   Source
	sink     Sink
	summary  *SummaryService
	recorder Recorder
	logger   zerolog.Logger
	workers  int
}

// NewImporter creates a new Importer running at most workers fetches at once
func NewImporter(source Source, sink Sink, summary *SummaryService, logger zerolog.Logger, workers int) *Importer {
	if workers < 1 {
		workers = 1
	}
	return &Importer{
		source:   source,
		sink:     sink,
		summary:  summary,
		recorder: nopRecorder{},
		logger:   logger,
		workers:  workers,
	}
}

// WithRecorder attaches a record counter
func (i *Importer) WithRecorder(r Recorder) *Importer {
	if r != nil {
		i.recorder = r
	}
	return i
}

// Import fetches and stores parties, legislators, expenses, sessions, bills
// and votes, in that order, then recomputes the summary metrics. A failing
// record is logged and counted; only a failing listing aborts the import.
func (i *Importer) Import(ctx context.Context, opts Options) (*ImportStats, error) {
	stats := &ImportStats{RunID: uuid.NewString()}
	log := i.logger.With().Str("run_id", stats.RunID).Logger()

	windows, err := sessionWindows(opts)
	if err != nil {
		return nil, err
	}

	steps := []struct {
		name string
		run  func(context.Context, zerolog.Logger) error
	}{
		{"parties", func(ctx context.Context, log zerolog.Logger) error {
			return i.importParties(ctx, log, opts.Legislature, stats)
		}},
		{"legislators", func(ctx context.Context, log zerolog.Logger) error {
			return i.importLegislators(ctx, log, opts.Legislature, stats)
		}},
		{"expenses", func(ctx context.Context, log zerolog.Logger) error {
			return i.importExpenses(ctx, log, opts.Year, stats)
		}},
		{"sessions", func(ctx context.Context, log zerolog.Logger) error {
			return i.importSessions(ctx, log, windows, stats)
		}},
	}

	for _, step := range steps {
		start := time.Now()
		stepLog := log.With().Str("step", step.name).Logger()
		stepLog.Info().Msg("Starting import step")
		if err := step.run(ctx, stepLog); err != nil {
			return stats, fmt.Errorf("failed to import %s: %w", step.name, err)
		}
		stepLog.Info().Dur("elapsed", time.Since(start)).Msg("Finished import step")
	}

	if i.summary != nil {
		if _, err := i.summary.CalculateAndStore(ctx); err != nil {
			return stats, fmt.Errorf("failed to update summary metrics: %w", err)
		}
		log.Info().Msg("Summary metrics updated")
	}

	return stats, nil
}

func (i *Importer) importParties(ctx context.Context, log zerolog.Logger, legislature int, stats *ImportStats) error {
	ids, err := i.source.FetchParties(ctx, legislature)
	if err != nil {
		return err
	}
	log.Info().Int("count", len(ids)).Msg("Found parties")

	return forEach(ctx, i.workers, ids, func(ctx context.Context, id int) {
		p, err := i.source.FetchParty(ctx, id)
		if err == nil {
			err = i.sink.SaveParty(ctx, p)
		}
		if err != nil {
			log.Error().Err(err).Int("party_id", id).Msg("Failed to import party")
			i.record("parties", stats, &stats.Parties, 1, 0, 0, 1)
			return
		}
		i.record("parties", stats, &stats.Parties, 1, 1, 0, 0)
	})
}

func (i *Importer) importLegislators(ctx context.Context, log zerolog.Logger, legislature int, stats *ImportStats) error {
	legislators, err := i.source.FetchLegislators(ctx, legislature)
	if err != nil {
		return err
	}
	partyIDs, err := i.sink.PartyIDs(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("count", len(legislators)).Msg("Found legislators")

	return forEach(ctx, i.workers, legislators, func(ctx context.Context, l model.Legislator) {
		if err := i.source.FetchLegislatorDetail(ctx, &l); err != nil {
			log.Error().Err(err).Int("legislator_id", l.ExternalID).Msg("Failed to fetch legislator")
			i.record("legislators", stats, &stats.Legislators, 1, 0, 0, 1)
			return
		}

		partyID, ok := partyIDs[l.PartyAcronym]
		if !ok {
			log.Warn().Int("legislator_id", l.ExternalID).Str("party", l.PartyAcronym).Msg("Unknown party, skipping legislator")
			i.record("legislators", stats, &stats.Legislators, 1, 0, 0, 1)
			return
		}
		l.PartyID = &partyID

		if err := i.sink.SaveLegislator(ctx, &l); err != nil {
			log.Error().Err(err).Int("legislator_id", l.ExternalID).Msg("Failed to save legislator")
			i.record("legislators", stats, &stats.Legislators, 1, 0, 0, 1)
			return
		}
		i.record("legislators", stats, &stats.Legislators, 1, 1, 0, 0)
	})
}

func (i *Importer) importExpenses(ctx context.Context, log zerolog.Logger, year int, stats *ImportStats) error {
	refs, err := i.sink.Legislators(ctx)
	if err != nil {
		return err
	}

	externalIDs := make([]int, 0, len(refs))
	for id := range refs {
		externalIDs = append(externalIDs, id)
	}
	sort.Ints(externalIDs)
	log.Info().Int("legislators", len(externalIDs)).Int("year", year).Msg("Fetching expenses")

	return forEach(ctx, i.workers, externalIDs, func(ctx context.Context, externalID int) {
		expenses, err := i.source.FetchExpenses(ctx, externalID, year)
		if err != nil {
			log.Error().Err(err).Int("legislator_id", externalID).Msg("Failed to fetch expenses")
			i.record("expenses", stats, &stats.Expenses, 0, 0, 0, 1)
			return
		}
		if err := i.sink.ReplaceExpenses(ctx, refs[externalID].ID, year, expenses); err != nil {
			log.Error().Err(err).Int("legislator_id", externalID).Msg("Failed to save expenses")
			i.record("expenses", stats, &stats.Expenses, len(expenses), 0, 0, len(expenses))
			return
		}
		i.record("expenses", stats, &stats.Expenses, len(expenses), len(expenses), 0, 0)
	})
}

func (i *Importer) importSessions(ctx context.Context, log zerolog.Logger, windows [][2]string, stats *ImportStats) error {
	var sessions []model.VotingSession
	for _, w := range windows {
		found, err := i.source.FetchSessions(ctx, w[0], w[1])
		if err != nil {
			return err
		}
		sessions = append(sessions, found...)
	}

	refs, err := i.sink.Legislators(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("count", len(sessions)).Msg("Found voting sessions")

	return forEach(ctx, i.workers, sessions, func(ctx context.Context, vs model.VotingSession) {
		i.importSession(ctx, log.With().Str("session_id", vs.ExternalID).Logger(), vs, refs, stats)
	})
}

// importSession stores one session with its bills and votes
func (i *Importer) importSession(ctx context.Context, log zerolog.Logger, vs model.VotingSession, refs map[int]store.LegislatorRef, stats *ImportStats) {
	detail, err := i.source.FetchSessionDetail(ctx, vs.ExternalID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch session detail, importing without bills")
		detail = &SessionDetail{}
	}
	vs.LastOpeningDescription = detail.LastOpeningDescription

	if err := i.sink.SaveSession(ctx, &vs); err != nil {
		log.Error().Err(err).Msg("Failed to save session")
		i.record("sessions", stats, &stats.Sessions, 1, 0, 0, 1)
		return
	}
	i.record("sessions", stats, &stats.Sessions, 1, 1, 0, 0)

	for _, billID := range detail.BillIDs {
		b, err := i.source.FetchBill(ctx, billID)
		if err == nil {
			err = i.sink.SaveBill(ctx, b, vs.ID)
		}
		if err != nil {
			log.Error().Err(err).Str("bill_id", billID).Msg("Failed to import bill")
			i.record("bills", stats, &stats.Bills, 1, 0, 0, 1)
			continue
		}
		i.record("bills", stats, &stats.Bills, 1, 1, 0, 0)
	}

	records, err := i.source.FetchVotes(ctx, vs.ExternalID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch votes")
		return
	}

	votes, skipped := buildVotes(vs, records, refs)
	if err := i.sink.SaveVotes(ctx, votes); err != nil {
		log.Error().Err(err).Msg("Failed to save votes")
		i.record("votes", stats, &stats.Votes, len(records), 0, skipped, len(votes))
		return
	}
	i.record("votes", stats, &stats.Votes, len(records), len(votes), skipped, 0)
}

// buildVotes attaches published votes to stored legislators. Votes of
// legislators that were not imported are skipped.
func buildVotes(vs model.VotingSession, records []VoteRecord, refs map[int]store.LegislatorRef) ([]model.Vote, int) {
	votes := make([]model.Vote, 0, len(records))
	skipped := 0
	for _, r := range records {
		ref, ok := refs[r.LegislatorExternalID]
		if !ok {
			skipped++
			continue
		}

		voteType := r.VoteType
		if vt, ok := model.ParseVoteType(r.VoteType); ok {
			voteType = string(vt)
		}

		snapshot := r.PartyAcronym
		if snapshot == "" {
			snapshot = ref.PartyAcronym
		}

		votes = append(votes, model.Vote{
			SessionID:     vs.ID,
			LegislatorID:  ref.ID,
			VoteType:      voteType,
			RegisteredAt:  optional(r.RegisteredAt),
			PartySnapshot: optional(snapshot),
			LegislatorURI: optional(r.LegislatorURI),
			SessionURI:    vs.URI,
		})
	}
	return votes, skipped
}

func (i *Importer) record(entity string, stats *ImportStats, e *EntityStats, total, imported, skipped, failed int) {
	stats.add(e, total, imported, skipped, failed)
	if imported > 0 {
		i.recorder.IncrementImported(entity, "imported", imported)
	}
	if skipped > 0 {
		i.recorder.IncrementImported(entity, "skipped", skipped)
	}
	if failed > 0 {
		i.recorder.IncrementImported(entity, "failed", failed)
	}
}

// forEach runs fn for every item with at most workers in flight. It stops
// scheduling when ctx is done and reports the context error.
func forEach[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		item := item
		g.Go(func() error {
			fn(gctx, item)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// sessionWindows splits the session date range into calendar months, the
// widest range the votacoes listing accepts.
func sessionWindows(opts Options) ([][2]string, error) {
	const layout = "2006-01-02"

	from, to := opts.From, opts.To
	if from == "" {
		from = fmt.Sprintf("%d-01-01", opts.Year)
	}
	if to == "" {
		to = fmt.Sprintf("%d-12-31", opts.Year)
	}

	start, err := time.Parse(layout, from)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	end, err := time.Parse(layout, to)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", to, err)
	}
	if end.Before(start) {
		return nil, errors.New("to date is before from date")
	}

	var windows [][2]string
	for cur := start; !cur.After(end); {
		monthEnd := time.Date(cur.Year(), cur.Month()+1, 0, 0, 0, 0, 0, time.UTC)
		if monthEnd.After(end) {
			monthEnd = end
		}
		windows = append(windows, [2]string{cur.Format(layout), monthEnd.Format(layout)})
		cur = monthEnd.AddDate(0, 0, 1)
	}
	return windows, nil
}

// PrintSummary logs the import statistics
func (i *Importer) PrintSummary(stats *ImportStats) {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	entities := []struct {
		name  string
		stats EntityStats
	}{
		{"parties", stats.Parties},
		{"legislators", stats.Legislators},
		{"expenses", stats.Expenses},
		{"sessions", stats.Sessions},
		{"bills", stats.Bills},
		{"votes", stats.Votes},
	}

	for _, e := range entities {
		i.logger.Info().
			Str("run_id", stats.RunID).
			Str("entity", e.name).
			Int("total", e.stats.Total).
			Int("imported", e.stats.Imported).
			Int("skipped", e.stats.Skipped).
			Int("failed", e.stats.Failed).
			Msg("Import summary")
	}
}
