// Package dashboard assembles the player page: profile, reconciled match
// history and stats, plus the load-more and scoreboard flows.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/henrik"
	"tracker/internal/logging"
	"tracker/internal/match"
	"tracker/internal/reconcile"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrNoSession      = errors.New("no active session for this player")
	ErrLoadInFlight   = errors.New("a load is already in progress")
	ErrMatchNotFound  = errors.New("match not found")
)

// Provider is the upstream stats API.
type Provider interface {
	HasKey() bool
	Account(ctx context.Context, name, tag string) (*henrik.Account, error)
	MMR(ctx context.Context, region, name, tag string) (*henrik.MMR, error)
	Matches(ctx context.Context, region, name, tag string, start, size int) ([]json.RawMessage, error)
	Match(ctx context.Context, region, matchID string) (json.RawMessage, error)
}

// Page is the payload for a page load or a load-more.
type Page struct {
	SessionID    string           `json:"-"`
	Profile      *Profile         `json:"profile,omitempty"`
	Season       match.SeasonInfo `json:"season"`
	Matches      []match.Summary  `json:"matches"`
	Stats        match.Stats      `json:"stats"`
	NextOffset   int              `json:"nextOffset"`
	Added        int              `json:"added"`
	HasMore      bool             `json:"hasMore"`
	NewestCached *time.Time       `json:"newestCached,omitempty"`
	Warning      string           `json:"warning,omitempty"`
}

// Service runs the dashboard flows against the provider and the engine.
type Service struct {
	provider      Provider
	engine        *reconcile.Engine
	sessions      *Sessions
	defaultRegion string
	log           logging.Interface
}

// NewService wires a service. A nil log uses the process logger.
func NewService(provider Provider, engine *reconcile.Engine, sessions *Sessions, defaultRegion string, log logging.Interface) *Service {
	if log == nil {
		log = logging.Logger()
	}
	if defaultRegion == "" {
		defaultRegion = fallbackRegion
	}
	return &Service{
		provider:      provider,
		engine:        engine,
		sessions:      sessions,
		defaultRegion: defaultRegion,
		log:           log,
	}
}

// DefaultRegion is the region used when a request names none.
func (s *Service) DefaultRegion() string {
	return s.defaultRegion
}

// HasKey reports whether the provider can be called at all.
func (s *Service) HasKey() bool {
	return s.provider.HasKey()
}

// Load runs a page load for name#tag and opens a new session.
//
// The account lookup must succeed. Rank and the first page of matches are
// fetched in parallel and degrade to empty on failure.
func (s *Service) Load(ctx context.Context, name, tag string) (*Page, error) {
	if !s.provider.HasKey() {
		return nil, henrik.ErrMissingKey
	}

	account, err := s.provider.Account(ctx, name, tag)
	if err != nil {
		if errors.Is(err, henrik.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s#%s", ErrPlayerNotFound, name, tag)
		}
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	if account.PUUID == "" {
		return nil, fmt.Errorf("%w: %s#%s", ErrPlayerNotFound, name, tag)
	}
	region := regionOf(account, s.defaultRegion)

	var (
		mmr     *henrik.MMR
		fresh   []json.RawMessage
		warning string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.provider.MMR(gctx, region, name, tag)
		if err != nil {
			s.log.Warnf("mmr for %s#%s unavailable: %v", name, tag, err)
			return nil
		}
		mmr = m
		return nil
	})
	g.Go(func() error {
		docs, err := s.provider.Matches(gctx, region, name, tag, 0, s.engine.PageSize())
		if err != nil {
			s.log.Warnf("matches for %s#%s unavailable: %v", name, tag, err)
			warning = upstreamMessage(err)
			return nil
		}
		fresh = docs
		return nil
	})
	_ = g.Wait()

	sess := reconcile.NewSession(account.PUUID)
	records := s.engine.Reconcile(ctx, sess, fresh)
	sess.SetOffset(s.engine.PageSize())

	profile := BuildProfile(account, mmr, s.defaultRegion)
	page := s.page(sess, records, account.Name, account.Tag)
	page.SessionID = s.sessions.create(sess, account.Name, account.Tag, region)
	page.Profile = &profile
	page.Added = len(records)
	page.HasMore = len(fresh) >= s.engine.PageSize()
	page.Warning = warning

	newest, ok, err := s.engine.NewestCached(ctx, account.PUUID)
	if err != nil {
		s.log.Debugf("newest cached match for %s: %v", account.PUUID, err)
	} else if ok {
		page.NewestCached = &newest
	}
	return page, nil
}

// More fetches the next page for an open session and merges it.
func (s *Service) More(ctx context.Context, sessionID, name, tag string) (*Page, error) {
	entry, ok := s.sessions.get(sessionID)
	if !ok || !entry.owns(name, tag) {
		return nil, ErrNoSession
	}
	if !s.provider.HasKey() {
		return nil, henrik.ErrMissingKey
	}

	sess := entry.sess
	if !sess.TryBeginLoad() {
		return nil, ErrLoadInFlight
	}
	defer sess.EndLoad()

	docs, err := s.provider.Matches(ctx, entry.region, entry.name, entry.tag, sess.Offset(), s.engine.PageSize())
	if err != nil {
		s.log.Warnf("load more for %s#%s: %v", entry.name, entry.tag, err)
		page := s.page(sess, sess.Held(), entry.name, entry.tag)
		page.SessionID = sessionID
		page.HasMore = true
		page.Warning = upstreamMessage(err)
		return page, nil
	}

	merged, added := s.engine.LoadMore(ctx, sess, docs)
	page := s.page(sess, merged, entry.name, entry.tag)
	page.SessionID = sessionID
	page.Added = added
	page.HasMore = len(docs) >= s.engine.PageSize()
	return page, nil
}

// Scoreboard returns the scoreboard for matchID from name#tag's view. A
// match held by the session is used as is; anything else is fetched.
func (s *Service) Scoreboard(ctx context.Context, sessionID, name, tag, matchID string) (*match.Scoreboard, error) {
	region := s.defaultRegion
	if entry, ok := s.sessions.get(sessionID); ok && entry.owns(name, tag) {
		if rec, ok := entry.sess.Find(matchID); ok && !rec.Slim {
			sb := match.BuildScoreboard(rec, name, tag)
			return &sb, nil
		}
		region = entry.region
	}

	rec, err := s.Match(ctx, region, matchID)
	if err != nil {
		return nil, err
	}
	sb := match.BuildScoreboard(rec, name, tag)
	return &sb, nil
}

// Recent returns one normalized page of name#tag's competitive matches.
func (s *Service) Recent(ctx context.Context, region, name, tag string, start, size int) ([]match.Record, error) {
	docs, err := s.provider.Matches(ctx, s.region(region), name, tag, start, size)
	if err != nil {
		return nil, err
	}
	return match.NormalizeAll(docs), nil
}

// Match returns one normalized match.
func (s *Service) Match(ctx context.Context, region, matchID string) (match.Record, error) {
	doc, err := s.provider.Match(ctx, s.region(region), matchID)
	if err != nil {
		if errors.Is(err, henrik.ErrNotFound) {
			return match.Record{}, fmt.Errorf("%w: %w", ErrMatchNotFound, err)
		}
		return match.Record{}, err
	}
	return match.Normalize(doc), nil
}

func (s *Service) region(region string) string {
	if r := strings.ToLower(strings.TrimSpace(region)); r != "" {
		return r
	}
	return s.defaultRegion
}

func (s *Service) page(sess *reconcile.Session, records []match.Record, name, tag string) *Page {
	return &Page{
		Season:     s.engine.Season().Info(),
		Matches:    Summaries(records, name, tag),
		Stats:      match.Aggregate(records, name, tag),
		NextOffset: sess.Offset(),
	}
}

// Summaries builds a card per record the player appears in.
func Summaries(records []match.Record, name, tag string) []match.Summary {
	out := make([]match.Summary, 0, len(records))
	for _, rec := range records {
		if summary, ok := match.Summarize(rec, name, tag); ok {
			out = append(out, summary)
		}
	}
	return out
}

// upstreamMessage is the inline message shown when the provider fails.
func upstreamMessage(err error) string {
	var apiErr *henrik.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Failed to fetch matches"
}
