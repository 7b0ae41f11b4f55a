package cache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]json.RawMessage
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]json.RawMessage)}
}

func (s *MemoryStore) Load(_ context.Context, playerID string) (map[string]json.RawMessage, error) {
	if err := checkPlayer(playerID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]json.RawMessage, len(s.docs[playerID]))
	for id, doc := range s.docs[playerID] {
		out[id] = append(json.RawMessage(nil), doc...)
	}
	return out, nil
}

func (s *MemoryStore) IDs(_ context.Context, playerID string) (map[string]struct{}, error) {
	if err := checkPlayer(playerID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]struct{}, len(s.docs[playerID]))
	for id := range s.docs[playerID] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *MemoryStore) SaveNew(_ context.Context, playerID string, docs map[string]json.RawMessage) (int, error) {
	if err := checkPlayer(playerID); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	subtree, ok := s.docs[playerID]
	if !ok {
		subtree = make(map[string]json.RawMessage, len(docs))
		s.docs[playerID] = subtree
	}

	saved := 0
	for id, doc := range docs {
		if id == "" {
			continue
		}
		if _, exists := subtree[id]; exists {
			continue
		}
		subtree[id] = append(json.RawMessage(nil), doc...)
		saved++
	}
	return saved, nil
}

func (s *MemoryStore) Delete(_ context.Context, playerID, matchID string) error {
	if err := checkPlayer(playerID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs[playerID], matchID)
	if len(s.docs[playerID]) == 0 {
		delete(s.docs, playerID)
	}
	return nil
}

func (s *MemoryStore) Players(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]string, 0, len(s.docs))
	for id := range s.docs {
		players = append(players, id)
	}
	sort.Strings(players)
	return players, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
