package prediction

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wonny/synthlab/backend/internal/contracts"
	"github.com/wonny/synthlab/backend/pkg/logger"
	"github.com/wonny/synthlab/backend/pkg/redis"
)

// MemoryStore is a single-slot result store. Store replaces the slot atomically,
// so readers see either the previous result or the new one, never a mix.
type MemoryStore struct {
	slot atomic.Pointer[contracts.PredictionResult]
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the current result, or nil
func (s *MemoryStore) Load() *contracts.PredictionResult {
	return s.slot.Load().Clone()
}

// Store replaces the current result with a copy of result
func (s *MemoryStore) Store(result *contracts.PredictionResult) {
	s.slot.Store(result.Clone())
}

// Clear empties the slot
func (s *MemoryStore) Clear() {
	s.slot.Store(nil)
}

// ResultCache is the part of redis.Cache the mirror uses
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CachedStore mirrors a store's slot into Redis so a restarted process can warm the session.
// Store and Load only touch the inner store; Mirror copies the slot out.
type CachedStore struct {
	inner  contracts.ResultStore
	cache  ResultCache
	key    string
	logger *logger.Logger

	mirrorMu sync.Mutex
}

// NewCachedStore wraps inner; the Redis key is derived from sessionID
func NewCachedStore(inner contracts.ResultStore, cache ResultCache, sessionID string, log *logger.Logger) *CachedStore {
	return &CachedStore{
		inner:  inner,
		cache:  cache,
		key:    redis.SessionResultKey(sessionID),
		logger: log.WithComponent("prediction.store").WithSession(sessionID),
	}
}

func (s *CachedStore) Load() *contracts.PredictionResult {
	return s.inner.Load()
}

func (s *CachedStore) Store(result *contracts.PredictionResult) {
	s.inner.Store(result)
}

// Mirror writes the current slot to Redis, or deletes the key when the slot is empty.
// Calls are serialized and each one reads the slot under the lock, so the last
// Mirror always leaves Redis holding the newest result.
func (s *CachedStore) Mirror(ctx context.Context) error {
	s.mirrorMu.Lock()
	defer s.mirrorMu.Unlock()

	result := s.inner.Load()
	if result == nil {
		return s.cache.Delete(ctx, s.key)
	}
	return s.cache.Set(ctx, s.key, result, redis.TTLSessionResult)
}

// Clear empties the slot and drops the mirrored copy; a cache failure is logged
func (s *CachedStore) Clear() {
	s.mirrorMu.Lock()
	defer s.mirrorMu.Unlock()

	s.inner.Clear()

	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := s.cache.Delete(ctx, s.key); err != nil {
		s.logger.WithError(err).Warn("Failed to clear mirrored prediction result")
	}
}

// Warm loads a mirrored result into the inner store. Returns true when one was found.
func (s *CachedStore) Warm(ctx context.Context) (bool, error) {
	var result contracts.PredictionResult
	found, err := s.cache.Get(ctx, s.key, &result)
	if err != nil || !found {
		return false, err
	}
	if err := result.CheckAlignment(); err != nil {
		return false, err
	}

	s.inner.Store(&result)
	return true, nil
}

const mirrorTimeout = 2 * time.Second
