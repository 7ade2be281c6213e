package prediction

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/synthlab/backend/internal/contracts"
	"github.com/wonny/synthlab/backend/pkg/logger"
	"github.com/wonny/synthlab/backend/pkg/redis"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	assert.Nil(t, store.Load())

	result := LiteralPayload("AAPL", contracts.ModelBoth)
	store.Store(result)

	// the slot is isolated from both the writer and readers
	result.LSTM.AccuracyPct = 0
	loaded := store.Load()
	require.NotNil(t, loaded)
	assert.Equal(t, 85.2, loaded.LSTM.AccuracyPct)

	loaded.Dates = nil
	assert.Len(t, store.Load().Dates, 7)

	store.Store(LiteralPayload("MSFT", contracts.ModelRNN))
	assert.Equal(t, "MSFT", store.Load().Symbol)

	store.Clear()
	assert.Nil(t, store.Load())
}

func TestCachedStore_RedisDisabled(t *testing.T) {
	cache := redis.NewCache(redis.Disabled(), "synthlab")
	store := NewCachedStore(NewMemoryStore(), cache, "s1", logger.Nop())

	store.Store(LiteralPayload("AAPL", contracts.ModelBoth))
	assert.Equal(t, "AAPL", store.Load().Symbol)

	found, err := store.Warm(context.Background())
	require.NoError(t, err)
	assert.False(t, found)

	store.Clear()
	assert.Nil(t, store.Load())
}

// memCache is an in-process ResultCache. When gate is set, Set signals
// setStarted and blocks until gate is closed.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte

	gate       chan struct{}
	setStarted chan struct{}
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte), setStarted: make(chan struct{}, 8)}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.gate != nil {
		c.setStarted <- struct{}{}
		<-c.gate
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

func TestCachedStore_Mirror(t *testing.T) {
	cache := newMemCache()
	store := NewCachedStore(NewMemoryStore(), cache, "s1", logger.Nop())
	key := redis.SessionResultKey("s1")

	store.Store(LiteralPayload("AAPL", contracts.ModelBoth))
	assert.False(t, cache.has(key), "Store alone does not touch the cache")

	store.Store(LiteralPayload("MSFT", contracts.ModelBoth))
	require.NoError(t, store.Mirror(context.Background()))

	warmed := NewCachedStore(NewMemoryStore(), cache, "s1", logger.Nop())
	found, err := warmed.Warm(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "MSFT", warmed.Load().Symbol, "the newest result wins")

	store.Clear()
	assert.False(t, cache.has(key))
	assert.Nil(t, store.Load())

	store.Store(LiteralPayload("AAPL", contracts.ModelBoth))
	require.NoError(t, store.Mirror(context.Background()))
	store.Clear()
	require.NoError(t, store.Mirror(context.Background()))
	assert.False(t, cache.has(key), "mirroring an empty slot deletes the key")
}
