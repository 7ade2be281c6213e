package history

import (
	"context"
	"math"
	"sync"

	"github.com/wonny/synthlab/backend/internal/contracts"
)

// MemoryRecorder keeps running aggregates in process memory.
// Used when DATABASE_URL is not set.
type MemoryRecorder struct {
	mu           sync.Mutex
	predictions  int64
	variantCount int64
	accuracySum  float64
	trainingSum  float64
}

// NewMemoryRecorder creates an empty recorder
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record adds one resolved result to the aggregates
func (m *MemoryRecorder) Record(ctx context.Context, result *contracts.PredictionResult) error {
	if result == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.predictions++
	for _, row := range rowsOf(result) {
		m.variantCount++
		m.accuracySum += row.Accuracy
		m.trainingSum += row.TrainingTime
	}
	return nil
}

// Stats returns the dashboard aggregates
func (m *MemoryRecorder) Stats(ctx context.Context) (contracts.DashboardStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := contracts.DashboardStats{
		ModelsAvailable: ModelsAvailable,
		PredictionsMade: m.predictions,
	}
	if m.variantCount > 0 {
		stats.AverageAccuracy = round2(m.accuracySum / float64(m.variantCount))
		stats.AvgTrainingSeconds = round2(m.trainingSum / float64(m.variantCount))
	}
	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
