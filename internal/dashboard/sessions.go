package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tracker/internal/reconcile"
)

// CookieName carries the dashboard session id.
const CookieName = "tracker_session"

type sessionEntry struct {
	sess    *reconcile.Session
	name    string
	tag     string
	region  string
	touched time.Time
}

func (e *sessionEntry) owns(name, tag string) bool {
	return strings.EqualFold(e.name, name) && strings.EqualFold(e.tag, tag)
}

// Sessions maps session ids to reconcile sessions and drops them after a
// period without use.
type Sessions struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*sessionEntry
	now     func() time.Time
}

// NewSessions builds a registry evicting entries idle for longer than ttl.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{ttl: ttl, entries: make(map[string]*sessionEntry), now: time.Now}
}

func (s *Sessions) create(sess *reconcile.Session, name, tag, region string) string {
	id := uuid.NewString()
	s.mu.Lock()
	s.entries[id] = &sessionEntry{sess: sess, name: name, tag: tag, region: region, touched: s.now()}
	s.mu.Unlock()
	return id
}

func (s *Sessions) get(id string) (*sessionEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if s.ttl > 0 && now.Sub(entry.touched) > s.ttl {
		delete(s.entries, id)
		return nil, false
	}
	entry.touched = now
	return entry, true
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Sessions) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, entry := range s.entries {
		if now.Sub(entry.touched) > s.ttl {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
