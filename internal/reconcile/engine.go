// Package reconcile merges live provider results with the per-player
// match cache for the tracked season.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"tracker/internal/cache"
	"tracker/internal/logging"
	"tracker/internal/match"
	"tracker/internal/metrics"
)

// DefaultPageSize is how far the provider offset advances per load-more.
const DefaultPageSize = 10

// Engine reconciles cached and freshly fetched records. It never fails a
// page: cache errors degrade to the live data.
type Engine struct {
	store    cache.Store
	season   match.Season
	log      logging.Interface
	metrics  *metrics.Collector
	pageSize int
}

// NewEngine wires an engine. A nil log uses the process logger; a
// non-positive pageSize uses DefaultPageSize.
func NewEngine(store cache.Store, season match.Season, log logging.Interface, m *metrics.Collector, pageSize int) *Engine {
	if log == nil {
		log = logging.Logger()
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Engine{store: store, season: season, log: log, metrics: m, pageSize: pageSize}
}

// Season returns the season the engine keeps.
func (e *Engine) Season() match.Season {
	return e.season
}

// PageSize returns the load-more increment.
func (e *Engine) PageSize() int {
	return e.pageSize
}

type entry struct {
	rec match.Record
	raw json.RawMessage
}

func normalizeAll(raws []json.RawMessage) []entry {
	out := make([]entry, 0, len(raws))
	for _, raw := range raws {
		out = append(out, entry{rec: match.Normalize(raw), raw: raw})
	}
	return out
}

// Cleanup deletes every cached record of playerID outside the tracked
// season and returns how many were removed. Running it again removes nothing.
func (e *Engine) Cleanup(ctx context.Context, playerID string) (int, error) {
	docs, err := e.store.Load(ctx, playerID)
	if err != nil {
		return 0, fmt.Errorf("load cache: %w", err)
	}

	deleted := 0
	for id, doc := range docs {
		if e.season.IsCurrent(match.Normalize(doc)) {
			continue
		}
		if err := e.store.Delete(ctx, playerID, id); err != nil {
			e.metrics.Deleted(deleted)
			return deleted, fmt.Errorf("delete %s: %w", id, err)
		}
		deleted++
	}

	e.metrics.Deleted(deleted)
	if deleted > 0 {
		e.log.Infof("season cleanup for %s removed %d stale matches", playerID, deleted)
	}
	return deleted, nil
}

// Reconcile merges fresh provider documents with the player's cache. The
// result holds unique current-season records, newest first, and becomes
// the session's held set. Season cleanup runs on the session's first call.
func (e *Engine) Reconcile(ctx context.Context, sess *Session, fresh []json.RawMessage) []match.Record {
	entries := normalizeAll(fresh)

	records, err := e.reconcile(ctx, sess, entries)
	if err != nil {
		e.log.Warnf("reconcile %s: falling back to live matches: %v", sess.PlayerID, err)
		e.metrics.Fallback("reconcile")
		records = e.liveOnly(entries)
	}

	sess.setHeld(records)
	return records
}

func (e *Engine) reconcile(ctx context.Context, sess *Session, entries []entry) ([]match.Record, error) {
	if sess.CleanupState() == CleanupNotStarted {
		if _, err := e.Cleanup(ctx, sess.PlayerID); err != nil {
			return nil, fmt.Errorf("season cleanup: %w", err)
		}
		sess.markCleaned()
	}

	docs, err := e.store.Load(ctx, sess.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}
	cached := e.cachedRecords(docs)

	ids, err := e.store.IDs(ctx, sess.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("load cached ids: %w", err)
	}

	fresh := e.newEntries(entries, ids)
	if err := e.persist(ctx, sess.PlayerID, fresh); err != nil {
		return nil, err
	}

	union := cached
	for _, en := range fresh {
		union = append(union, en.rec)
	}
	return sortRecords(dedup(union)), nil
}

// cachedRecords normalizes cached documents, keeping the current season.
func (e *Engine) cachedRecords(docs map[string]json.RawMessage) []match.Record {
	out := make([]match.Record, 0, len(docs))
	for id, doc := range docs {
		rec := match.Normalize(doc)
		if rec.MatchID == "" {
			rec.MatchID = id
		}
		if e.season.IsCurrent(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// newEntries keeps the first occurrence of each current-season entry whose
// id is present and not in skip.
func (e *Engine) newEntries(entries []entry, skip map[string]struct{}) []entry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]entry, 0, len(entries))
	for _, en := range entries {
		id := en.rec.MatchID
		if id == "" || !e.season.IsCurrent(en.rec) {
			continue
		}
		if _, ok := skip[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, en)
	}
	return out
}

func (e *Engine) persist(ctx context.Context, playerID string, entries []entry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make(map[string]json.RawMessage, len(entries))
	for _, en := range entries {
		docs[en.rec.MatchID] = en.raw
	}

	saved, err := e.store.SaveNew(ctx, playerID, docs)
	if err != nil {
		return fmt.Errorf("save new matches: %w", err)
	}
	e.metrics.Saved(saved)
	e.log.Debugf("cached %d new matches for %s", saved, playerID)
	return nil
}

func (e *Engine) liveOnly(entries []entry) []match.Record {
	live := e.newEntries(entries, nil)
	out := make([]match.Record, 0, len(live))
	for _, en := range live {
		out = append(out, en.rec)
	}
	return sortRecords(out)
}

// LoadMore merges one more provider page into the session's held set and
// returns the merged set with the number of records it added. The session
// offset advances by the page size when the page had any documents.
// Persisting is best effort; the merge happens regardless.
func (e *Engine) LoadMore(ctx context.Context, sess *Session, page []json.RawMessage) ([]match.Record, int) {
	held := sess.Held()
	heldIDs := make(map[string]struct{}, len(held))
	for _, rec := range held {
		heldIDs[rec.MatchID] = struct{}{}
	}

	added := e.newEntries(normalizeAll(page), heldIDs)
	if err := e.persistMissing(ctx, sess.PlayerID, added); err != nil {
		e.log.Warnf("load more %s: matches not cached: %v", sess.PlayerID, err)
		e.metrics.Fallback("load_more")
	}

	merged := held
	for _, en := range added {
		merged = append(merged, en.rec)
	}
	merged = sortRecords(dedup(merged))

	sess.setHeld(merged)
	if len(page) > 0 {
		sess.advance(e.pageSize)
	}
	return merged, len(added)
}

func (e *Engine) persistMissing(ctx context.Context, playerID string, entries []entry) error {
	if len(entries) == 0 {
		return nil
	}
	ids, err := e.store.IDs(ctx, playerID)
	if err != nil {
		return fmt.Errorf("load cached ids: %w", err)
	}

	missing := make([]entry, 0, len(entries))
	for _, en := range entries {
		if _, ok := ids[en.rec.MatchID]; !ok {
			missing = append(missing, en)
		}
	}
	return e.persist(ctx, playerID, missing)
}

// NewestCached returns the start time of the player's most recent cached
// current-season match. ok is false when nothing is cached.
func (e *Engine) NewestCached(ctx context.Context, playerID string) (newest time.Time, ok bool, err error) {
	docs, err := e.store.Load(ctx, playerID)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("load cache: %w", err)
	}
	for _, rec := range e.cachedRecords(docs) {
		if !ok || rec.StartedAt.After(newest) {
			newest, ok = rec.StartedAt, true
		}
	}
	return newest, ok, nil
}

// dedup keeps the first record per match id.
func dedup(records []match.Record) []match.Record {
	seen := make(map[string]struct{}, len(records))
	out := make([]match.Record, 0, len(records))
	for _, rec := range records {
		if _, ok := seen[rec.MatchID]; ok {
			continue
		}
		seen[rec.MatchID] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// sortRecords orders newest first, breaking ties by match id.
func sortRecords(records []match.Record) []match.Record {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.StartedAt.Equal(b.StartedAt) {
			return a.StartedAt.After(b.StartedAt)
		}
		return a.MatchID < b.MatchID
	})
	return records
}
