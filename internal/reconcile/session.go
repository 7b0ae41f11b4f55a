package reconcile

import (
	"sync"

	"tracker/internal/match"
)

// CleanupState tracks whether season cleanup already ran for a session.
type CleanupState int

const (
	CleanupNotStarted CleanupState = iota
	CleanupDone
)

func (s CleanupState) String() string {
	if s == CleanupDone {
		return "done"
	}
	return "not_started"
}

// Session is one dashboard view of one player: the records it holds, the
// next page offset and the load-more guard.
type Session struct {
	PlayerID string

	mu      sync.Mutex
	cleanup CleanupState
	held    []match.Record
	offset  int
	loading bool
}

// NewSession starts a session for playerID with cleanup pending.
func NewSession(playerID string) *Session {
	return &Session{PlayerID: playerID}
}

func (s *Session) CleanupState() CleanupState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanup
}

func (s *Session) markCleaned() {
	s.mu.Lock()
	s.cleanup = CleanupDone
	s.mu.Unlock()
}

// Held returns a copy of the records the session currently shows.
func (s *Session) Held() []match.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]match.Record(nil), s.held...)
}

// Find returns the held record with matchID.
func (s *Session) Find(matchID string) (match.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.held {
		if rec.MatchID == matchID {
			return rec, true
		}
	}
	return match.Record{}, false
}

func (s *Session) setHeld(records []match.Record) {
	s.mu.Lock()
	s.held = append([]match.Record(nil), records...)
	s.mu.Unlock()
}

// Offset is the provider offset the next load-more page starts at.
func (s *Session) Offset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// SetOffset records where the first page ended.
func (s *Session) SetOffset(offset int) {
	s.mu.Lock()
	s.offset = offset
	s.mu.Unlock()
}

func (s *Session) advance(by int) {
	s.mu.Lock()
	s.offset += by
	s.mu.Unlock()
}

// TryBeginLoad claims the load-more slot. It returns false while another
// load is in flight; a successful claim must be released with EndLoad.
func (s *Session) TryBeginLoad() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return false
	}
	s.loading = true
	return true
}

func (s *Session) EndLoad() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}
