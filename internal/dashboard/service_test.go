package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/cache"
	"tracker/internal/henrik"
	"tracker/internal/logging"
	"tracker/internal/match"
	"tracker/internal/reconcile"
)

const testSeason = "4c4b8cff-43eb-13d3-8f14-96b783c90cd2"

var start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func matchDoc(id string, hour, kills, deaths int, redWon, blueWon int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"metadata": {"match_id": %q, "started_at": %q, "season": {"id": %q}, "map": {"name": "Ascent"}},
		"players": [
			{"name": "Kira", "tag": "EUW", "team_id": "Red", "agent": {"id": "a-1", "name": "Jett"},
			 "stats": {"score": 4800, "kills": %d, "deaths": %d, "headshots": 10, "bodyshots": 30}},
			{"name": "Foe", "tag": "0001", "team_id": "Blue", "stats": {"score": 2000}}
		],
		"teams": {"red": %d, "blue": %d}
	}`, id, start.Add(time.Duration(hour)*time.Hour).Format(time.RFC3339), testSeason, kills, deaths, redWon, blueWon))
}

type fakeProvider struct {
	mu       sync.Mutex
	key      bool
	account  *henrik.Account
	accErr   error
	mmr      *henrik.MMR
	mmrErr   error
	pages    map[int][]json.RawMessage
	pageErr  error
	match    json.RawMessage
	matchErr error
	starts   []int
	block    chan struct{}
	entered  chan struct{}
}

func (f *fakeProvider) HasKey() bool { return f.key }

func (f *fakeProvider) Account(context.Context, string, string) (*henrik.Account, error) {
	return f.account, f.accErr
}

func (f *fakeProvider) MMR(context.Context, string, string, string) (*henrik.MMR, error) {
	return f.mmr, f.mmrErr
}

func (f *fakeProvider) Matches(_ context.Context, _, _, _ string, start, _ int) ([]json.RawMessage, error) {
	if f.block != nil {
		close(f.entered)
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, start)
	if f.pageErr != nil {
		return nil, f.pageErr
	}
	return f.pages[start], nil
}

func (f *fakeProvider) Match(context.Context, string, string) (json.RawMessage, error) {
	return f.match, f.matchErr
}

func newProvider() *fakeProvider {
	return &fakeProvider{
		key:     true,
		account: &henrik.Account{PUUID: "p-1", Name: "Kira", Tag: "EUW", Region: "EU", AccountLevel: 88, Card: henrik.Card{ID: "card-1"}},
		mmr:     &henrik.MMR{},
		pages: map[int][]json.RawMessage{
			0: {matchDoc("m-1", 5, 20, 10, 13, 5), matchDoc("m-2", 4, 10, 10, 10, 10)},
		},
	}
}

func newService(t *testing.T, p *fakeProvider) (*Service, *cache.MemoryStore) {
	t.Helper()
	store := cache.NewMemoryStore()
	engine := reconcile.NewEngine(store, match.MustSeason(testSeason), logging.Nop(), nil, 2)
	return NewService(p, engine, NewSessions(time.Hour), "eu", logging.Nop()), store
}

func TestLoad(t *testing.T) {
	p := newProvider()
	p.mmr.Current.Tier.Name = "Gold 3"
	svc, store := newService(t, p)

	page, err := svc.Load(context.Background(), "kira", "euw")
	require.NoError(t, err)

	assert.NotEmpty(t, page.SessionID)
	require.NotNil(t, page.Profile)
	assert.Equal(t, "eu", page.Profile.Region)
	assert.Equal(t, "Gold 3", page.Profile.Rank.Current)
	assert.Equal(t, "https://media.valorant-api.com/playercards/card-1/wideart.png", page.Profile.CardWide)

	require.Len(t, page.Matches, 2)
	assert.Equal(t, "m-1", page.Matches[0].MatchID)
	assert.Equal(t, match.ResultWin, page.Matches[0].Result)
	assert.Equal(t, match.ResultDraw, page.Matches[1].Result)
	assert.Equal(t, 1, page.Stats.Wins)
	assert.Equal(t, 1, page.Stats.Losses)
	assert.Equal(t, 50, page.Stats.WinRate)
	assert.Equal(t, 2, page.NextOffset)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NewestCached)
	assert.Equal(t, start.Add(5*time.Hour), *page.NewestCached)

	ids, err := store.IDs(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}

func TestLoadDegrades(t *testing.T) {
	p := newProvider()
	p.mmrErr = &henrik.APIError{Status: 500, Message: "API Error: 500"}
	p.pageErr = &henrik.APIError{Status: 429, Message: "Rate limit reached. Please try again in a minute."}
	svc, _ := newService(t, p)

	page, err := svc.Load(context.Background(), "Kira", "EUW")
	require.NoError(t, err)
	assert.Equal(t, "Unranked", page.Profile.Rank.Current)
	assert.Empty(t, page.Matches)
	assert.NotNil(t, page.Matches)
	assert.Equal(t, "Rate limit reached. Please try again in a minute.", page.Warning)
}

func TestLoadErrors(t *testing.T) {
	p := newProvider()
	p.accErr = &henrik.APIError{Status: 404, Message: "not found"}
	svc, _ := newService(t, p)

	_, err := svc.Load(context.Background(), "Nobody", "0000")
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	p.key = false
	_, err = svc.Load(context.Background(), "Kira", "EUW")
	assert.ErrorIs(t, err, henrik.ErrMissingKey)
}

func TestMore(t *testing.T) {
	p := newProvider()
	p.pages[2] = []json.RawMessage{matchDoc("m-2", 4, 10, 10, 10, 10), matchDoc("m-3", 1, 5, 15, 3, 13)}
	svc, _ := newService(t, p)
	ctx := context.Background()

	first, err := svc.Load(ctx, "Kira", "EUW")
	require.NoError(t, err)

	page, err := svc.More(ctx, first.SessionID, "KIRA", "euw")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Added)
	require.Len(t, page.Matches, 3)
	assert.Equal(t, "m-3", page.Matches[2].MatchID)
	assert.Equal(t, 3, page.Stats.TotalMatches)
	assert.Equal(t, 4, page.NextOffset)
	assert.Equal(t, []int{0, 2}, p.starts)

	page, err = svc.More(ctx, first.SessionID, "Kira", "EUW")
	require.NoError(t, err)
	assert.Zero(t, page.Added)
	assert.False(t, page.HasMore)
	assert.Equal(t, 4, page.NextOffset, "an empty page keeps the offset")
}

func TestMoreRequiresSession(t *testing.T) {
	p := newProvider()
	svc, _ := newService(t, p)
	ctx := context.Background()

	_, err := svc.More(ctx, "missing", "Kira", "EUW")
	assert.ErrorIs(t, err, ErrNoSession)

	first, err := svc.Load(ctx, "Kira", "EUW")
	require.NoError(t, err)
	_, err = svc.More(ctx, first.SessionID, "Someone", "Else")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestMoreInFlight(t *testing.T) {
	p := newProvider()
	svc, _ := newService(t, p)
	ctx := context.Background()

	first, err := svc.Load(ctx, "Kira", "EUW")
	require.NoError(t, err)

	p.block = make(chan struct{})
	p.entered = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := svc.More(ctx, first.SessionID, "Kira", "EUW")
		done <- err
	}()
	<-p.entered

	_, err = svc.More(ctx, first.SessionID, "Kira", "EUW")
	assert.ErrorIs(t, err, ErrLoadInFlight)

	close(p.block)
	require.NoError(t, <-done)
}

func TestScoreboard(t *testing.T) {
	p := newProvider()
	p.match = matchDoc("m-9", 1, 7, 7, 13, 11)
	svc, _ := newService(t, p)
	ctx := context.Background()

	first, err := svc.Load(ctx, "Kira", "EUW")
	require.NoError(t, err)

	sb, err := svc.Scoreboard(ctx, first.SessionID, "Kira", "EUW", "m-1")
	require.NoError(t, err)
	assert.Equal(t, "m-1", sb.MatchID)
	require.Len(t, sb.Red, 1)
	assert.True(t, sb.Red[0].Current)

	sb, err = svc.Scoreboard(ctx, "", "Kira", "EUW", "m-9")
	require.NoError(t, err)
	assert.Equal(t, "m-9", sb.MatchID)
	assert.Equal(t, 200, sb.Red[0].ACS)

	p.matchErr = &henrik.APIError{Status: 404, Message: "Match not found"}
	_, err = svc.Scoreboard(ctx, "", "Kira", "EUW", "m-404")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestSessionsExpire(t *testing.T) {
	s := NewSessions(time.Minute)
	now := start
	s.now = func() time.Time { return now }

	id := s.create(reconcile.NewSession("p-1"), "Kira", "EUW", "eu")
	_, ok := s.get(id)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, s.Sweep())
	_, ok = s.get(id)
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}
