package prediction

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wonny/synthlab/backend/internal/contracts"
	"github.com/wonny/synthlab/backend/pkg/logger"
)

// Session is the prediction-session state machine
// ⭐ SSOT: Idle → Loading → Resolved|Failed 전이는 이 구조체에서만
//
// One request is in flight at a time. Submit rejects while Loading; Supersede
// cancels the in-flight call and any late completion of it is discarded by
// generation.
type Session struct {
	id       string
	service  contracts.PredictionService
	store    contracts.ResultStore
	recorder contracts.HistoryRecorder
	logger   *logger.Logger
	now      func() time.Time

	baseCtx   context.Context
	closeBase context.CancelFunc

	mu          sync.Mutex
	state       contracts.SessionState
	generation  uint64
	resultGen   uint64
	lastRequest *contracts.PredictionRequest
	lastError   *contracts.ErrorInfo
	updatedAt   time.Time
	cancelCall  context.CancelFunc
	pending     *Pending
	subscribers map[int]chan contracts.SessionSnapshot
	nextSubID   int
	closed      bool

	// mirror + history writes of resolved results; Close waits for them
	background sync.WaitGroup
}

// mirroredStore is a ResultStore that can copy its slot to an external cache
type mirroredStore interface {
	Mirror(ctx context.Context) error
}

// Option configures a Session
type Option func(*Session)

// WithStore replaces the default MemoryStore
func WithStore(store contracts.ResultStore) Option {
	return func(s *Session) { s.store = store }
}

// WithRecorder records every resolved result
func WithRecorder(recorder contracts.HistoryRecorder) Option {
	return func(s *Session) { s.recorder = recorder }
}

// WithLogger sets the session logger
func WithLogger(log *logger.Logger) Option {
	return func(s *Session) { s.logger = log }
}

// WithClock overrides time.Now (validation "today" and timestamps)
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession creates an Idle session. The service is wrapped with Guard.
func NewSession(id string, service contracts.PredictionService, opts ...Option) *Session {
	s := &Session{
		id:          id,
		service:     Guard(service),
		store:       NewMemoryStore(),
		logger:      logger.Nop(),
		now:         time.Now,
		state:       contracts.StateIdle,
		subscribers: make(map[int]chan contracts.SessionSnapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("prediction.session").WithSession(id)
	s.baseCtx, s.closeBase = context.WithCancel(context.Background())
	s.updatedAt = s.now()

	if s.store.Load() != nil {
		s.state = contracts.StateResolved
	}

	return s
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// Pending tracks one submitted request until it completes or is superseded
type Pending struct {
	Generation uint64

	session    *Session
	done       chan struct{}
	superseded bool
}

// Done is closed when the request completes or is superseded
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until completion and returns the session snapshot at that point.
// A resolved result has already been mirrored and recorded when Wait returns.
// A superseded request returns ErrSuperseded along with the current snapshot.
func (p *Pending) Wait(ctx context.Context) (contracts.SessionSnapshot, error) {
	select {
	case <-ctx.Done():
		return contracts.SessionSnapshot{}, ctx.Err()
	case <-p.done:
	}

	snap := p.session.Snapshot()
	if p.superseded {
		return snap, contracts.ErrSuperseded
	}
	return snap, nil
}

// Submit validates req and enters Loading. While a request is in flight it
// returns ErrSubmitInFlight and leaves the session untouched.
func (s *Session) Submit(req contracts.PredictionRequest) (*Pending, error) {
	return s.submit(req, false)
}

// Supersede is Submit that cancels an in-flight request instead of being rejected
func (s *Session) Supersede(req contracts.PredictionRequest) (*Pending, error) {
	return s.submit(req, true)
}

func (s *Session) submit(req contracts.PredictionRequest, supersede bool) (*Pending, error) {
	valid, err := Validate(req, s.now())
	if err != nil {
		s.logger.WithError(err).Debug("Prediction request rejected")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, contracts.ErrSessionNotFound
	}

	if s.state == contracts.StateLoading {
		if !supersede {
			return nil, contracts.ErrSubmitInFlight
		}
		s.cancelCall()
		s.pending.superseded = true
		close(s.pending.done)
		s.logger.WithField("generation", s.generation).Info("In-flight prediction superseded")
	}

	s.generation++
	r := valid.Clone()
	s.lastRequest = &r
	s.lastError = nil
	s.state = contracts.StateLoading
	s.updatedAt = s.now()

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancelCall = cancel
	p := &Pending{Generation: s.generation, session: s, done: make(chan struct{})}
	s.pending = p

	s.logger.WithFields(map[string]interface{}{
		"symbol":     r.Symbol,
		"model":      r.ModelChoice,
		"horizon":    int(r.HorizonDays),
		"generation": p.Generation,
	}).Info("Prediction submitted")

	s.publishLocked()

	go s.run(ctx, p.Generation, r)

	return p, nil
}

func (s *Session) run(ctx context.Context, gen uint64, req contracts.PredictionRequest) {
	result, err := s.service.RequestPrediction(ctx, req)
	s.complete(gen, result, err)
}

func (s *Session) complete(gen uint64, result *contracts.PredictionResult, err error) {
	s.mu.Lock()

	if s.closed || s.pending == nil || gen != s.generation || s.state != contracts.StateLoading {
		s.mu.Unlock()
		s.logger.WithField("generation", gen).Debug("Discarded stale prediction completion")
		return
	}

	s.cancelCall()
	s.cancelCall = nil
	s.updatedAt = s.now()

	if err != nil {
		info := contracts.ErrorInfoFrom(err)
		info.OccurredAt = s.updatedAt
		s.lastError = &info
		s.state = contracts.StateFailed
		s.logger.WithError(err).Warn("Prediction failed")
	} else {
		s.store.Store(result)
		s.resultGen = gen
		s.lastError = nil
		s.state = contracts.StateResolved
		s.logger.WithField("generation", gen).Info("Prediction resolved")
	}

	s.publishLocked()
	p := s.pending
	s.pending = nil
	s.background.Add(1)
	s.mu.Unlock()

	defer s.background.Done()
	defer close(p.done)

	if err == nil {
		s.persist(result)
	}
}

// persist mirrors and records a resolved result outside the session lock
func (s *Session) persist(result *contracts.PredictionResult) {
	if m, ok := s.store.(mirroredStore); ok {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		if err := m.Mirror(ctx); err != nil {
			s.logger.WithError(err).Warn("Failed to mirror prediction result")
		}
		cancel()
	}

	if s.recorder != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.recorder.Record(ctx, result); err != nil {
			s.logger.WithError(err).Warn("Failed to record prediction history")
		}
		cancel()
	}
}

// Snapshot returns a deep copy of the session
func (s *Session) Snapshot() contracts.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() contracts.SessionSnapshot {
	snap := contracts.SessionSnapshot{
		ID:         s.id,
		State:      s.state,
		Generation: s.generation,
		LastResult: s.store.Load(),
		UpdatedAt:  s.updatedAt,
	}
	if s.lastRequest != nil {
		r := s.lastRequest.Clone()
		snap.LastRequest = &r
	}
	if s.lastError != nil {
		e := *s.lastError
		snap.LastError = &e
	}
	snap.Stale = snap.LastResult != nil && s.resultGen != s.generation
	return snap
}

// State returns the current state
func (s *Session) State() contracts.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// UpdatedAt returns the time of the last transition
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Result returns the stored result or ErrNoResult
func (s *Session) Result() (*contracts.PredictionResult, error) {
	result := s.store.Load()
	if result == nil {
		return nil, contracts.ErrNoResult
	}
	return result, nil
}

// Comparison derives the comparison view from the stored result
func (s *Session) Comparison() (contracts.ComparisonView, error) {
	result, err := s.Result()
	if err != nil {
		return contracts.ComparisonView{}, err
	}
	return CompareModels(result), nil
}

// Chart derives the chart series from the stored result
func (s *Session) Chart() (contracts.ChartSeries, error) {
	result, err := s.Result()
	if err != nil {
		return contracts.ChartSeries{}, err
	}
	return BuildChart(result), nil
}

// Subscribe returns a channel receiving a snapshot after every transition.
// Slow readers lose intermediate snapshots, never the latest one.
func (s *Session) Subscribe() (<-chan contracts.SessionSnapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan contracts.SessionSnapshot, 4)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
}

func (s *Session) publishLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
			continue
		default:
		}
		// drop the oldest queued snapshot to make room
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Close cancels any in-flight request, closes all subscriptions and waits for
// the last resolved result to finish recording
func (s *Session) Close() {
	s.close()
	s.background.Wait()
}

// Discard closes the session and drops its stored result, mirrored copy included
func (s *Session) Discard() {
	s.Close()
	s.store.Clear()
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.closeBase()

	if s.pending != nil {
		s.pending.superseded = true
		close(s.pending.done)
		s.pending = nil
	}
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

// IsBusy reports whether err means "try again once the current request completes"
func IsBusy(err error) bool {
	return errors.Is(err, contracts.ErrSubmitInFlight)
}
