package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS match_cache (
	player_id  TEXT        NOT NULL,
	match_id   TEXT        NOT NULL,
	doc        JSONB       NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (player_id, match_id)
)`

// PostgresStore keeps documents in the match_cache table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPool configures a pgx connection pool.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}

	return pgxpool.NewWithConfig(ctx, cfg)
}

// NewPostgresStore connects to url and creates the table if needed.
func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := NewPool(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Load(ctx context.Context, playerID string) (map[string]json.RawMessage, error) {
	if err := checkPlayer(playerID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT match_id, doc
		FROM match_cache
		WHERE player_id = $1
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out[id] = json.RawMessage(doc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) IDs(ctx context.Context, playerID string) (map[string]struct{}, error) {
	if err := checkPlayer(playerID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT match_id FROM match_cache WHERE player_id = $1`, playerID)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// SaveNew inserts within a single transaction; existing rows are left as is.
func (s *PostgresStore) SaveNew(ctx context.Context, playerID string, docs map[string]json.RawMessage) (int, error) {
	if err := checkPlayer(playerID); err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	saved := 0
	for id, doc := range docs {
		if id == "" {
			continue
		}
		tag, err := tx.Exec(ctx, `
			INSERT INTO match_cache (player_id, match_id, doc)
			VALUES ($1, $2, $3)
			ON CONFLICT (player_id, match_id) DO NOTHING
		`, playerID, id, []byte(doc))
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", id, err)
		}
		saved += int(tag.RowsAffected())
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

func (s *PostgresStore) Delete(ctx context.Context, playerID, matchID string) error {
	if err := checkPlayer(playerID); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM match_cache WHERE player_id = $1 AND match_id = $2`, playerID, matchID)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", playerID, matchID, err)
	}
	return nil
}

func (s *PostgresStore) Players(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT player_id FROM match_cache ORDER BY player_id`)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var players []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, id)
	}
	return players, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
