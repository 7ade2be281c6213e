package jobs

import (
	"context"

	"github.com/wonny/synthlab/backend/pkg/logger"
)

// Evictor is the part of sessions.Manager the reaper needs
type Evictor interface {
	EvictIdle() int
	Len() int
}

// SessionReaperJob closes sessions idle past their TTL
type SessionReaperJob struct {
	sessions Evictor
	schedule string
	logger   *logger.Logger
}

// NewSessionReaperJob creates the reaper; an empty schedule means every minute
func NewSessionReaperJob(sessions Evictor, schedule string, log *logger.Logger) *SessionReaperJob {
	if schedule == "" {
		schedule = "0 * * * * *"
	}
	return &SessionReaperJob{
		sessions: sessions,
		schedule: schedule,
		logger:   log,
	}
}

func (j *SessionReaperJob) Name() string { return "session-reaper" }

func (j *SessionReaperJob) Schedule() string { return j.schedule }

// Run evicts idle sessions
func (j *SessionReaperJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if n := j.sessions.EvictIdle(); n > 0 {
		j.logger.WithFields(map[string]interface{}{
			"evicted": n,
			"live":    j.sessions.Len(),
		}).Info("Session reaper run")
	}
	return nil
}
