package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjenkins/camara/internal/model"
	"github.com/jjenkins/camara/internal/store"
)

type fakeSource struct {
	parties     map[int]*model.Party
	legislators []model.Legislator
	details     map[int]model.Legislator
	expenses    map[int][]model.Expense
	sessions    []model.VotingSession
	bills       map[string][]string
	votes       map[string][]VoteRecord
	windows     [][2]string
	mu          sync.Mutex
}

func (f *fakeSource) FetchParties(ctx context.Context, legislature int) ([]int, error) {
	ids := make([]int, 0, len(f.parties))
	for id := range f.parties {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeSource) FetchParty(ctx context.Context, id int) (*model.Party, error) {
	p := *f.parties[id]
	return &p, nil
}

func (f *fakeSource) FetchLegislators(ctx context.Context, legislature int) ([]model.Legislator, error) {
	return f.legislators, nil
}

func (f *fakeSource) FetchLegislatorDetail(ctx context.Context, l *model.Legislator) error {
	d, ok := f.details[l.ExternalID]
	if !ok {
		return errors.New("detail unavailable")
	}
	l.PartyAcronym = d.PartyAcronym
	l.Office = d.Office
	return nil
}

func (f *fakeSource) FetchExpenses(ctx context.Context, id, year int) ([]model.Expense, error) {
	return f.expenses[id], nil
}

func (f *fakeSource) FetchSessions(ctx context.Context, from, to string) ([]model.VotingSession, error) {
	f.mu.Lock()
	f.windows = append(f.windows, [2]string{from, to})
	first := len(f.windows) == 1
	f.mu.Unlock()
	if !first {
		return nil, nil
	}
	return f.sessions, nil
}

func (f *fakeSource) FetchSessionDetail(ctx context.Context, id string) (*SessionDetail, error) {
	return &SessionDetail{BillIDs: f.bills[id]}, nil
}

func (f *fakeSource) FetchBill(ctx context.Context, id string) (*model.Bill, error) {
	return &model.Bill{ExternalID: id, TypeCode: "PL", Year: 2024}, nil
}

func (f *fakeSource) FetchVotes(ctx context.Context, id string) ([]VoteRecord, error) {
	return f.votes[id], nil
}

type fakeSink struct {
	mu          sync.Mutex
	nextID      atomic.Int64
	parties     map[string]int
	legislators map[int]store.LegislatorRef
	expenses    map[int][]model.Expense
	links       map[string][]int
	votes       []model.Vote
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		parties:     map[string]int{},
		legislators: map[int]store.LegislatorRef{},
		expenses:    map[int][]model.Expense{},
		links:       map[string][]int{},
	}
}

func (s *fakeSink) id() int { return int(s.nextID.Add(1)) }

func (s *fakeSink) SaveParty(ctx context.Context, p *model.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.id()
	s.parties[p.Acronym] = p.ID
	return nil
}

func (s *fakeSink) SaveLegislator(ctx context.Context, l *model.Legislator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = s.id()
	s.legislators[l.ExternalID] = store.LegislatorRef{ID: l.ID, PartyAcronym: l.PartyAcronym}
	return nil
}

func (s *fakeSink) ReplaceExpenses(ctx context.Context, legislatorID, year int, expenses []model.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[legislatorID] = expenses
	return nil
}

func (s *fakeSink) SaveSession(ctx context.Context, vs *model.VotingSession) error {
	vs.ID = s.id()
	return nil
}

func (s *fakeSink) SaveBill(ctx context.Context, b *model.Bill, sessionID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[b.ExternalID] = append(s.links[b.ExternalID], sessionID)
	return nil
}

func (s *fakeSink) SaveVotes(ctx context.Context, votes []model.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes = append(s.votes, votes...)
	return nil
}

func (s *fakeSink) PartyIDs(ctx context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.parties))
	for k, v := range s.parties {
		out[k] = v
	}
	return out, nil
}

func (s *fakeSink) Legislators(ctx context.Context) (map[int]store.LegislatorRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]store.LegislatorRef, len(s.legislators))
	for k, v := range s.legislators {
		out[k] = v
	}
	return out, nil
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) IncrementImported(entity, result string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[entity+"/"+result] += n
}

func newFixtureSource() *fakeSource {
	return &fakeSource{
		parties: map[int]*model.Party{
			1: {ExternalID: 1, Acronym: "PL", Name: "Partido Liberal"},
			2: {ExternalID: 2, Acronym: "PT", Name: "Partido dos Trabalhadores"},
		},
		legislators: []model.Legislator{
			{ExternalID: 10, DisplayName: "Fulano"},
			{ExternalID: 11, DisplayName: "Beltrano"},
			{ExternalID: 12, DisplayName: "Sicrano"},
			{ExternalID: 13, DisplayName: "Sem detalhe"},
		},
		details: map[int]model.Legislator{
			10: {PartyAcronym: "PL"},
			11: {PartyAcronym: "PT"},
			12: {PartyAcronym: "REDE"},
		},
		expenses: map[int][]model.Expense{
			10: {{Year: 2024, Month: 1, NetAmount: 100}, {Year: 2024, Month: 2, NetAmount: 50}},
			11: {{Year: 2024, Month: 1, NetAmount: 10}},
		},
		sessions: []model.VotingSession{
			{ExternalID: "s-1", Description: "Votação"},
		},
		bills: map[string][]string{"s-1": {"2004", "2005"}},
		votes: map[string][]VoteRecord{
			"s-1": {
				{LegislatorExternalID: 10, VoteType: "sim", PartyAcronym: "PL"},
				{LegislatorExternalID: 11, VoteType: "Não"},
				{LegislatorExternalID: 99, VoteType: "Sim"},
			},
		},
	}
}

func TestImport(t *testing.T) {
	source := newFixtureSource()
	sink := newFakeSink()
	recorder := &countingRecorder{counts: map[string]int{}}
	imp := NewImporter(source, sink, nil, zerolog.Nop(), 3).WithRecorder(recorder)

	stats, err := imp.Import(context.Background(), Options{Legislature: 57, Year: 2024})
	require.NoError(t, err)
	assert.NotEmpty(t, stats.RunID)

	assert.Equal(t, EntityStats{Total: 2, Imported: 2}, stats.Parties)
	// 13 has no detail and 12 belongs to an unknown party
	assert.Equal(t, EntityStats{Total: 4, Imported: 2, Failed: 2}, stats.Legislators)
	assert.Equal(t, EntityStats{Total: 3, Imported: 3}, stats.Expenses)
	assert.Equal(t, EntityStats{Total: 1, Imported: 1}, stats.Sessions)
	assert.Equal(t, EntityStats{Total: 2, Imported: 2}, stats.Bills)
	assert.Equal(t, EntityStats{Total: 3, Imported: 2, Skipped: 1}, stats.Votes)

	assert.Len(t, source.windows, 12)
	assert.Equal(t, [2]string{"2024-01-01", "2024-01-31"}, source.windows[0])

	require.Len(t, sink.votes, 2)
	byLegislator := map[int]model.Vote{}
	for _, v := range sink.votes {
		byLegislator[v.LegislatorID] = v
	}
	fulano := byLegislator[sink.legislators[10].ID]
	assert.Equal(t, string(model.VoteYes), fulano.VoteType)
	assert.Equal(t, "PL", *fulano.PartySnapshot)
	beltrano := byLegislator[sink.legislators[11].ID]
	assert.Equal(t, "PT", *beltrano.PartySnapshot, "falls back to the stored party")

	assert.Equal(t, 2, recorder.counts["legislators/failed"])
	assert.Equal(t, 1, recorder.counts["votes/skipped"])
	assert.True(t, stats.HasFailures())
}

func TestHasFailures(t *testing.T) {
	stats := &ImportStats{Votes: EntityStats{Total: 3, Imported: 2, Skipped: 1}}
	assert.False(t, stats.HasFailures(), "skipped records are not failures")

	stats.Expenses.Failed = 1
	assert.True(t, stats.HasFailures())
}

func TestImportRejectsInvalidWindow(t *testing.T) {
	imp := NewImporter(newFixtureSource(), newFakeSink(), nil, zerolog.Nop(), 1)
	_, err := imp.Import(context.Background(), Options{Year: 2024, From: "2024-05-01", To: "2024-04-01"})
	require.Error(t, err)
}

func TestImportStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	imp := NewImporter(newFixtureSource(), newFakeSink(), nil, zerolog.Nop(), 2)
	_, err := imp.Import(ctx, Options{Year: 2024})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSessionWindows(t *testing.T) {
	windows, err := sessionWindows(Options{From: "2024-01-15", To: "2024-03-10"})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{
		{"2024-01-15", "2024-01-31"},
		{"2024-02-01", "2024-02-29"},
		{"2024-03-01", "2024-03-10"},
	}, windows)

	single, err := sessionWindows(Options{From: "2024-06-05", To: "2024-06-05"})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"2024-06-05", "2024-06-05"}}, single)

	_, err = sessionWindows(Options{From: "05/06/2024"})
	require.Error(t, err)
}

func TestBuildVotes(t *testing.T) {
	uri := "https://sessao"
	vs := model.VotingSession{ID: 7, URI: &uri}
	refs := map[int]store.LegislatorRef{1: {ID: 100, PartyAcronym: "PSD"}}

	votes, skipped := buildVotes(vs, []VoteRecord{
		{LegislatorExternalID: 1, VoteType: "Artigo 17", RegisteredAt: "2024-01-01T10:00:00"},
		{LegislatorExternalID: 2, VoteType: "Sim"},
	}, refs)

	assert.Equal(t, 1, skipped)
	require.Len(t, votes, 1)
	assert.Equal(t, 7, votes[0].SessionID)
	assert.Equal(t, 100, votes[0].LegislatorID)
	assert.Equal(t, "Artigo 17", votes[0].VoteType)
	assert.Equal(t, "PSD", *votes[0].PartySnapshot)
	assert.Equal(t, &uri, votes[0].SessionURI)
	assert.Nil(t, votes[0].LegislatorURI)
}

func TestForEachRunsEveryItem(t *testing.T) {
	var sum atomic.Int64
	err := forEach(context.Background(), 4, []int{1, 2, 3, 4, 5}, func(ctx context.Context, n int) {
		sum.Add(int64(n))
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15), sum.Load())
}
