package prediction

import (
	"context"
	"time"

	"github.com/wonny/synthlab/backend/internal/contracts"
)

// DefaultStubDelay matches the simulated API latency of the dashboard
const DefaultStubDelay = 2 * time.Second

// FixtureSource supplies canned results by symbol (see internal/fixtures)
type FixtureSource interface {
	Lookup(symbol string, model contracts.ModelChoice) (*contracts.PredictionResult, bool)
}

// StubService answers every request with the literal demo payload after a fixed delay.
// Symbols found in the optional fixture source get their canned result instead.
type StubService struct {
	delay    time.Duration
	fixtures FixtureSource
}

// NewStubService creates a stub with the given latency (negative is treated as zero)
func NewStubService(delay time.Duration) *StubService {
	if delay < 0 {
		delay = 0
	}
	return &StubService{delay: delay}
}

// WithFixtures sets the fixture source
func (s *StubService) WithFixtures(src FixtureSource) *StubService {
	s.fixtures = src
	return s
}

// RequestPrediction waits the fixed delay, or until ctx is done
func (s *StubService) RequestPrediction(ctx context.Context, req contracts.PredictionRequest) (*contracts.PredictionResult, error) {
	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	if s.fixtures != nil {
		if result, ok := s.fixtures.Lookup(req.Symbol, req.ModelChoice); ok {
			return result, nil
		}
	}
	return LiteralPayload(req.Symbol, req.ModelChoice), nil
}

// LiteralPayload is the constant demo result. The series always has seven
// points, whatever the requested horizon.
func LiteralPayload(symbol string, model contracts.ModelChoice) *contracts.PredictionResult {
	dates := make([]time.Time, 7)
	for i := range dates {
		dates[i] = time.Date(2024, time.January, i+1, 0, 0, 0, 0, time.UTC)
	}

	return &contracts.PredictionResult{
		Symbol:         symbol,
		RequestedModel: model,
		LSTM: contracts.ModelMetrics{
			PriceSeries:         []float64{150, 152, 148, 155, 158, 160, 162},
			AccuracyPct:         85.2,
			RMSE:                2.34,
			MAE:                 1.89,
			TrainingTimeSeconds: 45,
		},
		RNN: contracts.ModelMetrics{
			PriceSeries:         []float64{149, 151, 147, 154, 156, 159, 161},
			AccuracyPct:         82.7,
			RMSE:                2.67,
			MAE:                 2.12,
			TrainingTimeSeconds: 32,
		},
		ActualPrices: []float64{148, 149, 150, 151, 152, 153, 154},
		Dates:        dates,
	}
}
