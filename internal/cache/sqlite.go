package cache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps documents in a local SQLite file.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema. ":memory:" gives a private in-process database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// each connection to :memory: is its own database
	if path == ":memory:" {
		conn.SetMaxOpenConns(1)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, playerID string) (map[string]json.RawMessage, error) {
	if err := checkPlayer(playerID); err != nil {
		return nil, err
	}
	rows, err := s.conn.QueryContext(ctx, "SELECT match_id, doc FROM match_cache WHERE player_id = ?", playerID)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out[id] = json.RawMessage(doc)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) IDs(ctx context.Context, playerID string) (map[string]struct{}, error) {
	if err := checkPlayer(playerID); err != nil {
		return nil, err
	}
	rows, err := s.conn.QueryContext(ctx, "SELECT match_id FROM match_cache WHERE player_id = ?", playerID)
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

// SaveNew bulk-inserts in a transaction. INSERT OR IGNORE keeps existing rows.
func (s *SQLiteStore) SaveNew(ctx context.Context, playerID string, docs map[string]json.RawMessage) (int, error) {
	if err := checkPlayer(playerID); err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO match_cache(player_id, match_id, doc) VALUES (?, ?, ?)")
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	saved := 0
	for id, doc := range docs {
		if id == "" {
			continue
		}
		res, err := stmt.ExecContext(ctx, playerID, id, string(doc))
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		saved += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, playerID, matchID string) error {
	if err := checkPlayer(playerID); err != nil {
		return err
	}
	_, err := s.conn.ExecContext(ctx, "DELETE FROM match_cache WHERE player_id = ? AND match_id = ?", playerID, matchID)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", playerID, matchID, err)
	}
	return nil
}

func (s *SQLiteStore) Players(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT DISTINCT player_id FROM match_cache ORDER BY player_id")
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

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
