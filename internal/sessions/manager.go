// Package sessions is the registry of live prediction sessions.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/synthlab/backend/internal/contracts"
	"github.com/wonny/synthlab/backend/internal/prediction"
	"github.com/wonny/synthlab/backend/pkg/logger"
)

// Options configures a Manager
type Options struct {
	IdleTTL     time.Duration
	MaxSessions int
	Recorder    contracts.HistoryRecorder // optional
	Cache       prediction.ResultCache    // optional, mirrors results for Restore
	Clock       func() time.Time
}

// Manager owns every Session of the process
// ⭐ SSOT: 세션 생성/조회/정리는 Manager에서만
type Manager struct {
	service contracts.PredictionService
	opts    Options
	base    *logger.Logger
	logger  *logger.Logger

	mu       sync.RWMutex
	sessions map[string]*prediction.Session
}

// NewManager creates an empty registry
func NewManager(service contracts.PredictionService, opts Options, log *logger.Logger) *Manager {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = 30 * time.Minute
	}
	return &Manager{
		service:  prediction.Guard(service),
		opts:     opts,
		base:     log,
		logger:   log.WithComponent("sessions.manager"),
		sessions: make(map[string]*prediction.Session),
	}
}

// Create registers a new Idle session
func (m *Manager) Create() (*prediction.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		return nil, contracts.ErrTooManySessions
	}

	id := uuid.NewString()
	s := m.build(id, nil)
	m.sessions[id] = s

	m.logger.WithField("session_id", id).Debug("Session created")
	return s, nil
}

// Get looks up a live session
func (m *Manager) Get(id string) (*prediction.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, contracts.ErrSessionNotFound
	}
	return s, nil
}

// Restore returns the live session or, when a result for id is mirrored in
// Redis, rebuilds a Resolved session from it
func (m *Manager) Restore(ctx context.Context, id string) (*prediction.Session, error) {
	if s, err := m.Get(id); err == nil {
		return s, nil
	}
	if m.opts.Cache == nil {
		return nil, contracts.ErrSessionNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, contracts.ErrSessionNotFound
	}

	store := prediction.NewCachedStore(prediction.NewMemoryStore(), m.opts.Cache, id, m.base)
	found, err := store.Warm(ctx)
	if err != nil {
		m.logger.WithError(err).WithField("session_id", id).Warn("Failed to warm session from cache")
		return nil, contracts.ErrSessionNotFound
	}
	if !found {
		return nil, contracts.ErrSessionNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// lost a race with another Restore of the same id
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		return nil, contracts.ErrTooManySessions
	}

	s := m.build(id, store)
	m.sessions[id] = s
	m.logger.WithField("session_id", id).Info("Session restored from cache")
	return s, nil
}

func (m *Manager) build(id string, store contracts.ResultStore) *prediction.Session {
	if store == nil {
		store = prediction.NewMemoryStore()
		if m.opts.Cache != nil {
			store = prediction.NewCachedStore(store, m.opts.Cache, id, m.base)
		}
	}

	opts := []prediction.Option{
		prediction.WithStore(store),
		prediction.WithLogger(m.base),
		prediction.WithClock(m.opts.Clock),
	}
	if m.opts.Recorder != nil {
		opts = append(opts, prediction.WithRecorder(m.opts.Recorder))
	}
	return prediction.NewSession(id, m.service, opts...)
}

// EvictIdle discards sessions whose last transition is older than IdleTTL,
// mirrored results included, so an evicted id cannot be restored.
// A Loading session is never evicted. Returns the number evicted.
func (m *Manager) EvictIdle() int {
	cutoff := m.opts.Clock().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	var evicted []*prediction.Session
	for id, s := range m.sessions {
		if s.State() == contracts.StateLoading {
			continue
		}
		if s.UpdatedAt().After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		evicted = append(evicted, s)
	}
	remaining := len(m.sessions)
	m.mu.Unlock()

	for _, s := range evicted {
		s.Discard()
	}

	if len(evicted) > 0 {
		m.logger.WithFields(map[string]interface{}{
			"evicted":   len(evicted),
			"remaining": remaining,
		}).Info("Idle sessions evicted")
	}
	return len(evicted)
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close closes every session. Mirrored results are kept for Restore after a restart.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*prediction.Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
