// Package cache persists raw provider match documents per player so a
// dashboard session can reconcile them with live results.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedScheme is returned by Open for an unknown CACHE_URL scheme.
var ErrUnsupportedScheme = errors.New("unsupported cache url scheme")

// Store is a key-value document store addressed by player id, then match id.
// Writes are additive: an existing document is never overwritten.
type Store interface {
	// Load returns every cached document for the player, keyed by match id.
	Load(ctx context.Context, playerID string) (map[string]json.RawMessage, error)
	// IDs returns the cached match ids for the player.
	IDs(ctx context.Context, playerID string) (map[string]struct{}, error)
	// SaveNew stores the documents whose ids are not cached yet and returns
	// how many were written.
	SaveNew(ctx context.Context, playerID string, docs map[string]json.RawMessage) (int, error)
	// Delete removes one cached document.
	Delete(ctx context.Context, playerID, matchID string) error
	// Players lists every player id with at least one cached document.
	Players(ctx context.Context) ([]string, error)
	Close() error
}

// Open builds the backend named by rawURL's scheme: redis, rediss,
// postgres, postgresql, sqlite or memory.
func Open(ctx context.Context, rawURL string) (Store, error) {
	scheme, _, ok := strings.Cut(rawURL, "://")
	if !ok {
		return nil, fmt.Errorf("%w: %q has no scheme", ErrUnsupportedScheme, rawURL)
	}

	switch strings.ToLower(scheme) {
	case "redis", "rediss":
		return NewRedisStore(ctx, rawURL)
	case "postgres", "postgresql":
		return NewPostgresStore(ctx, rawURL)
	case "sqlite":
		return NewSQLiteStore(sqlitePath(rawURL))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

// sqlitePath strips the scheme, so sqlite:///var/lib/tracker.db and
// sqlite://tracker.db both work.
func sqlitePath(rawURL string) string {
	path := strings.TrimPrefix(rawURL, "sqlite://")
	if path == "" {
		return ":memory:"
	}
	return path
}

func checkPlayer(playerID string) error {
	if strings.TrimSpace(playerID) == "" {
		return errors.New("player id is required")
	}
	return nil
}
