package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pb1803/PDF-RAG/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, cap int, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, cap, ttl), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t, 20, 0)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Append(ctx, "s1",
		models.ConversationTurn{Role: models.RoleUser, Text: "What is SQL?", Timestamp: now},
		models.ConversationTurn{Role: models.RoleAssistant, Text: "A query language.", Timestamp: now},
	))

	turns, err := store.RecentTurns(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, models.RoleUser, turns[0].Role)
	assert.Equal(t, "What is SQL?", turns[0].Text)
	assert.Equal(t, "A query language.", turns[1].Text)
	assert.True(t, turns[0].Timestamp.Equal(now))
}

func TestRedisStoreTrimsToCap(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t, 4, 0)

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Append(ctx, "s1",
			models.ConversationTurn{Role: models.RoleUser, Text: fmt.Sprintf("turn %d", i)}))
	}

	turns, err := store.RecentTurns(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, turns, 4)
	assert.Equal(t, "turn 6", turns[0].Text)
	assert.Equal(t, "turn 9", turns[3].Text)
}

func TestRedisStoreLimitReturnsMostRecent(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t, 20, 0)

	for i := 0; i < 6; i++ {
		require.NoError(t, store.Append(ctx, "s1",
			models.ConversationTurn{Role: models.RoleUser, Text: fmt.Sprintf("turn %d", i)}))
	}

	turns, err := store.RecentTurns(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "turn 4", turns[0].Text)
	assert.Equal(t, "turn 5", turns[1].Text)
}

func TestRedisStoreSetsTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, 20, time.Hour)

	require.NoError(t, store.Append(ctx, "s1",
		models.ConversationTurn{Role: models.RoleUser, Text: "hello"}))

	ttl := mr.TTL(sessionKeyPrefix + "s1")
	assert.Equal(t, time.Hour, ttl)
}

func TestRedisStoreTTLRefreshedOnAppend(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, 20, time.Hour)

	require.NoError(t, store.Append(ctx, "s1",
		models.ConversationTurn{Role: models.RoleUser, Text: "first"}))
	mr.FastForward(30 * time.Minute)
	require.NoError(t, store.Append(ctx, "s1",
		models.ConversationTurn{Role: models.RoleUser, Text: "second"}))

	assert.Equal(t, time.Hour, mr.TTL(sessionKeyPrefix+"s1"))
}

func TestRedisStoreExpiredSessionIsEmpty(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, 20, time.Minute)

	require.NoError(t, store.Append(ctx, "s1",
		models.ConversationTurn{Role: models.RoleUser, Text: "ephemeral"}))
	mr.FastForward(2 * time.Minute)

	turns, err := store.RecentTurns(ctx, "s1", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRedisStoreEmptySession(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisStore(t, 20, 0)

	turns, err := store.RecentTurns(ctx, "never-written", 10)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRedisStoreAppendNothingIsNoop(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, 20, 0)

	require.NoError(t, store.Append(ctx, "s1"))
	assert.False(t, mr.Exists(sessionKeyPrefix+"s1"))
}
