package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pb1803/PDF-RAG/internal/models"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "tutor:session:"

// RedisStore keeps conversation turns in a Redis list per session, trimmed
// to a retention cap with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	cap    int
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed conversation store.
func NewRedisStore(client *redis.Client, cap int, ttl time.Duration) *RedisStore {
	if cap <= 0 {
		cap = 20
	}
	return &RedisStore{client: client, cap: cap, ttl: ttl}
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// RecentTurns returns the most recent turns for a session, oldest first.
func (s *RedisStore) RecentTurns(ctx context.Context, sessionID string, limit int) ([]models.ConversationTurn, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}

	raw, err := s.client.LRange(ctx, sessionKeyPrefix+sessionID, start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}

	turns := make([]models.ConversationTurn, 0, len(raw))
	for _, item := range raw {
		var turn models.ConversationTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("failed to decode turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Append adds turns to a session, trims to the cap and refreshes the TTL.
func (s *RedisStore) Append(ctx context.Context, sessionID string, turns ...models.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}

	key := sessionKeyPrefix + sessionID
	values := make([]interface{}, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("failed to encode turn: %w", err)
		}
		values = append(values, data)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, int64(-s.cap), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to session %s: %w", sessionID, err)
	}
	return nil
}
