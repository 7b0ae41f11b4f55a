package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "valorant:matches:"

// RedisStore keeps one hash per player: field = match id, value = document.
type RedisStore struct {
	client *redis.Client
}

// NewRedisClient parses url and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisStore connects to url.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	client, err := NewRedisClient(ctx, url)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

// NewRedisStoreWithClient wraps an existing client. Close closes it.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(playerID string) string {
	return redisKeyPrefix + playerID
}

func (s *RedisStore) Load(ctx context.Context, playerID string) (map[string]json.RawMessage, error) {
	if err := checkPlayer(playerID); err != nil {
		return nil, err
	}
	fields, err := s.client.HGetAll(ctx, redisKey(playerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", playerID, err)
	}

	out := make(map[string]json.RawMessage, len(fields))
	for id, doc := range fields {
		out[id] = json.RawMessage(doc)
	}
	return out, nil
}

func (s *RedisStore) IDs(ctx context.Context, playerID string) (map[string]struct{}, error) {
	if err := checkPlayer(playerID); err != nil {
		return nil, err
	}
	keys, err := s.client.HKeys(ctx, redisKey(playerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hkeys %s: %w", playerID, err)
	}

	out := make(map[string]struct{}, len(keys))
	for _, id := range keys {
		out[id] = struct{}{}
	}
	return out, nil
}

func (s *RedisStore) SaveNew(ctx context.Context, playerID string, docs map[string]json.RawMessage) (int, error) {
	if err := checkPlayer(playerID); err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}

	key := redisKey(playerID)
	pipe := s.client.Pipeline()
	cmds := make([]*redis.BoolCmd, 0, len(docs))
	for id, doc := range docs {
		if id == "" {
			continue
		}
		cmds = append(cmds, pipe.HSetNX(ctx, key, id, []byte(doc)))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("hsetnx %s: %w", playerID, err)
	}

	saved := 0
	for _, cmd := range cmds {
		if cmd.Val() {
			saved++
		}
	}
	return saved, nil
}

func (s *RedisStore) Delete(ctx context.Context, playerID, matchID string) error {
	if err := checkPlayer(playerID); err != nil {
		return err
	}
	if err := s.client.HDel(ctx, redisKey(playerID), matchID).Err(); err != nil {
		return fmt.Errorf("hdel %s/%s: %w", playerID, matchID, err)
	}
	return nil
}

func (s *RedisStore) Players(ctx context.Context) ([]string, error) {
	var players []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		players = append(players, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan players: %w", err)
	}
	sort.Strings(players)
	return players, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
