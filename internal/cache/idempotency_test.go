package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store IdempotencyStore) {
	ctx := context.Background()
	key := uuid.NewString()

	rec, claimed, err := store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Nil(t, rec)

	rec, claimed, err = store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.False(t, claimed)
	require.NotNil(t, rec)
	assert.False(t, rec.Done)

	require.NoError(t, store.Complete(ctx, key, Record{Status: 201, ContentType: "application/json", Body: []byte(`{"ok":true}`)}))
	rec, claimed, err = store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.True(t, rec.Done)
	assert.Equal(t, 201, rec.Status)
	assert.JSONEq(t, `{"ok":true}`, string(rec.Body))

	require.NoError(t, store.Release(ctx, key))
	_, claimed, err = store.Reserve(ctx, key)
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Minute))
}

func TestMemoryStoreExpires(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Now()
	store.now = func() time.Time { return now }

	_, claimed, err := store.Reserve(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, claimed)

	now = now.Add(2 * time.Minute)
	_, claimed, err = store.Reserve(context.Background(), "k")
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestRedisStore(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	exerciseStore(t, NewRedisStore(client, "test:idem:", time.Minute))
}
