package contracts

import "context"

// PredictionService produces a PredictionResult for a validated request
// ⭐ SSOT: 실제 예측 백엔드로 교체 가능한 유일한 경계
//
// Implementations must complete exactly once per call, never return a partial
// result, and honour ctx cancellation.
type PredictionService interface {
	RequestPrediction(ctx context.Context, req PredictionRequest) (*PredictionResult, error)
}

// ResultStore holds the most recent resolved result of one session (single slot)
type ResultStore interface {
	Load() *PredictionResult
	Store(result *PredictionResult)
	Clear()
}

// HistoryRecorder receives every resolved result and aggregates dashboard stats
type HistoryRecorder interface {
	Record(ctx context.Context, result *PredictionResult) error
	Stats(ctx context.Context) (DashboardStats, error)
}
