package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/robfig/cron/v3"

	"github.com/wonny/synthlab/backend/pkg/logger"
)

// Options tunes retry and per-run limits
type Options struct {
	MaxRetries int
	RetryDelay time.Duration
	RunTimeout time.Duration
}

// DefaultOptions are used by New
var DefaultOptions = Options{
	MaxRetries: 2,
	RetryDelay: 5 * time.Second,
	RunTimeout: time.Minute,
}

// Scheduler manages background maintenance jobs
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	opts    Options
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.RWMutex
	jobs    map[string]Job
	entries map[string]cron.EntryID
	history map[string]*JobHistory
}

// New creates a scheduler with DefaultOptions
func New(log *logger.Logger) *Scheduler {
	return NewWithOptions(log, DefaultOptions)
}

// NewWithOptions creates a scheduler; schedules use the 6-field (seconds) cron format
func NewWithOptions(log *logger.Logger, opts Options) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		logger:  log.WithComponent("scheduler"),
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]Job),
		entries: make(map[string]cron.EntryID),
		history: make(map[string]*JobHistory),
	}
}

// AddJob registers job on its schedule
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already exists", name)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() { s.runJob(job) })
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = job
	s.entries[name] = id
	s.history[name] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob unschedules a job; its history is dropped
func (s *Scheduler) RemoveJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.entries[name]
	if !exists {
		return fmt.Errorf("job %s not found", name)
	}

	s.cron.Remove(id)
	delete(s.jobs, name)
	delete(s.entries, name)
	delete(s.history, name)

	s.logger.WithField("job", name).Info("Job removed from scheduler")
	return nil
}

// Start starts the cron loop
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.logger.Info("Scheduler stopped")
}

// RunNow runs a job synchronously outside of its schedule
func (s *Scheduler) RunNow(name string) (JobResult, error) {
	s.mu.RLock()
	job, exists := s.jobs[name]
	s.mu.RUnlock()

	if !exists {
		return JobResult{}, fmt.Errorf("job %s not found", name)
	}
	return s.runJob(job), nil
}

// runJob executes job with constant-delay retries and records the result
func (s *Scheduler) runJob(job Job) JobResult {
	name := job.Name()
	start := time.Now()
	attempts := 0

	operation := func() error {
		attempts++
		ctx, cancel := context.WithTimeout(s.ctx, s.opts.RunTimeout)
		defer cancel()
		return job.Run(ctx)
	}

	var policy backoff.BackOff = backoff.NewConstantBackOff(s.opts.RetryDelay)
	policy = backoff.WithMaxRetries(policy, uint64(s.opts.MaxRetries))
	policy = backoff.WithContext(policy, s.ctx)

	err := backoff.RetryNotify(operation, policy, func(err error, next time.Duration) {
		s.logger.WithFields(map[string]interface{}{
			"job":     name,
			"attempt": attempts,
			"retry":   next.String(),
		}).WithError(err).Warn("Job execution failed, retrying")
	})

	result := JobResult{
		JobName:   name,
		StartTime: start,
		EndTime:   time.Now(),
		Attempts:  attempts,
		Success:   err == nil,
	}
	result.Duration = result.EndTime.Sub(start)
	if err != nil {
		result.Error = err.Error()
	}

	s.mu.Lock()
	if h, ok := s.history[name]; ok {
		h.AddResult(result)
	}
	s.mu.Unlock()

	log := s.logger.WithFields(map[string]interface{}{
		"job":      name,
		"duration": result.Duration.String(),
		"attempts": attempts,
	})
	if err != nil {
		log.WithError(err).Error("Job failed after all retries")
	} else {
		log.Debug("Job completed")
	}

	return result
}

// JobNames returns registered job names, sorted
func (s *Scheduler) JobNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats summarizes every job's history
func (s *Scheduler) Stats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats, len(s.history))
	for name, h := range s.history {
		st := JobStats{
			JobName:     name,
			Schedule:    s.jobs[name].Schedule(),
			TotalRuns:   len(h.Results),
			SuccessRate: h.SuccessRate(),
		}
		for _, r := range h.Results {
			if r.Success {
				st.SuccessCount++
			} else {
				st.FailureCount++
			}
		}
		if last, ok := h.Last(); ok {
			st.LastRun = &last.StartTime
			if !last.Success {
				st.LastError = last.Error
			}
		}
		stats[name] = st
	}
	return stats
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}
