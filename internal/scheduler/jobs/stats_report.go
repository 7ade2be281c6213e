package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/synthlab/backend/internal/contracts"
	"github.com/wonny/synthlab/backend/pkg/logger"
)

// StatsReportJob logs the dashboard aggregates periodically
type StatsReportJob struct {
	recorder contracts.HistoryRecorder
	logger   *logger.Logger
}

// NewStatsReportJob creates the hourly stats reporter
func NewStatsReportJob(recorder contracts.HistoryRecorder, log *logger.Logger) *StatsReportJob {
	return &StatsReportJob{recorder: recorder, logger: log}
}

func (j *StatsReportJob) Name() string { return "stats-report" }

func (j *StatsReportJob) Schedule() string { return "0 0 * * * *" }

// Run reads the stats and logs them
func (j *StatsReportJob) Run(ctx context.Context) error {
	stats, err := j.recorder.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read dashboard stats: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"predictions_made":     stats.PredictionsMade,
		"average_accuracy":     stats.AverageAccuracy,
		"avg_training_seconds": stats.AvgTrainingSeconds,
	}).Info("Dashboard stats")
	return nil
}
