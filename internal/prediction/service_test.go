package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/synthlab/backend/internal/contracts"
	"github.com/wonny/synthlab/backend/pkg/httputil"
	"github.com/wonny/synthlab/backend/pkg/logger"
)

type funcService func(ctx context.Context, req contracts.PredictionRequest) (*contracts.PredictionResult, error)

func (f funcService) RequestPrediction(ctx context.Context, req contracts.PredictionRequest) (*contracts.PredictionResult, error) {
	return f(ctx, req)
}

var aaplBoth = contracts.PredictionRequest{Symbol: "AAPL", ModelChoice: contracts.ModelBoth, HorizonDays: contracts.Horizon7}

func TestStubService(t *testing.T) {
	start := time.Now()
	result, err := NewStubService(20*time.Millisecond).RequestPrediction(context.Background(), aaplBoth)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, "AAPL", result.Symbol)
	assert.Equal(t, contracts.ModelBoth, result.RequestedModel)
	assert.Equal(t, 85.2, result.LSTM.AccuracyPct)
	assert.Equal(t, 82.7, result.RNN.AccuracyPct)
	assert.NoError(t, result.CheckAlignment())
	assert.Len(t, result.Dates, 7)
}

func TestStubService_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewStubService(time.Hour).RequestPrediction(ctx, aaplBoth)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLiteralPayload_IsFresh(t *testing.T) {
	a := LiteralPayload("AAPL", contracts.ModelBoth)
	a.LSTM.PriceSeries[0] = 0

	b := LiteralPayload("AAPL", contracts.ModelBoth)
	assert.Equal(t, 150.0, b.LSTM.PriceSeries[0])
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name string
		svc  funcService
	}{
		{
			name: "error",
			svc: func(ctx context.Context, req contracts.PredictionRequest) (*contracts.PredictionResult, error) {
				return nil, errors.New("connection refused")
			},
		},
		{
			name: "panic",
			svc: func(ctx context.Context, req contracts.PredictionRequest) (*contracts.PredictionResult, error) {
				panic("boom")
			},
		},
		{
			name: "nil result",
			svc: func(ctx context.Context, req contracts.PredictionRequest) (*contracts.PredictionResult, error) {
				return nil, nil
			},
		},
		{
			name: "misaligned",
			svc: func(ctx context.Context, req contracts.PredictionRequest) (*contracts.PredictionResult, error) {
				r := LiteralPayload(req.Symbol, req.ModelChoice)
				r.ActualPrices = r.ActualPrices[:3]
				return r, nil
			},
		},
		{
			name: "NaN accuracy",
			svc: func(ctx context.Context, req contracts.PredictionRequest) (*contracts.PredictionResult, error) {
				r := LiteralPayload(req.Symbol, req.ModelChoice)
				r.RNN.AccuracyPct = math.NaN()
				return r, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Guard(tt.svc).RequestPrediction(context.Background(), aaplBoth)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, contracts.ErrService), "got %v", err)
		})
	}
}

func TestGuard_Idempotent(t *testing.T) {
	g := Guard(NewStubService(0))
	assert.Same(t, g, Guard(g))
}

const originalPayload = `{
	"symbol": "AAPL",
	"model": "both",
	"predictions": {
		"lstm": {"prices": [150, 152, 148], "accuracy": 85.2, "rmse": 2.34, "mae": 1.89, "trainingTime": 45},
		"rnn":  {"prices": [149, 151, 147], "accuracy": 82.7, "rmse": 2.67, "mae": 2.12, "trainingTime": 32}
	},
	"actualPrices": [148, 149, 150],
	"dates": ["2024-01-01", "2024-01-02", "2024-01-03"]
}`

func newRemote(t *testing.T, handler http.HandlerFunc) *RemoteService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := httputil.New(httputil.Options{Timeout: time.Second, RequestsPerSec: 100}, logger.Nop())
	return NewRemoteService(client, server.URL+"/", time.Second, logger.Nop())
}

func TestRemoteService(t *testing.T) {
	svc := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)

		var in wireRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&in)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, "AAPL", in.Symbol)
		assert.Equal(t, "both", in.Model)
		assert.Equal(t, 7, in.HorizonDays)
		assert.Equal(t, "2024-01-01", in.DateFrom)
		assert.Empty(t, in.DateTo)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(originalPayload))
	})

	req := aaplBoth
	req.DateRangeStart = day(2024, 1, 1)

	result, err := svc.RequestPrediction(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", result.Symbol)
	assert.Equal(t, contracts.ModelBoth, result.RequestedModel)
	assert.Equal(t, 45.0, result.LSTM.TrainingTimeSeconds)
	assert.Equal(t, []float64{149, 151, 147}, result.RNN.PriceSeries)
	require.Len(t, result.Dates, 3)
	assert.Equal(t, time.January, result.Dates[2].Month())
	assert.Equal(t, 3, result.Dates[2].Day())
}

func TestRemoteService_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"bad request", http.StatusBadRequest, `{"error":"unknown symbol"}`},
		{"misaligned", http.StatusOK, `{"predictions":{"lstm":{"prices":[1]},"rnn":{"prices":[1]}},"actualPrices":[1,2],"dates":["2024-01-01"]}`},
		{"bad date", http.StatusOK, `{"predictions":{"lstm":{"prices":[1]},"rnn":{"prices":[1]}},"actualPrices":[1],"dates":["yesterday"]}`},
		{"not json", http.StatusOK, `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.payload))
			})

			result, err := svc.RequestPrediction(context.Background(), aaplBoth)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, contracts.ErrService), "got %v", err)
		})
	}
}

func TestRemoteService_Ping(t *testing.T) {
	svc := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	assert.NoError(t, svc.Ping(context.Background()))

	down := newRemote(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	assert.Error(t, down.Ping(context.Background()))
}

type mapFixtures map[string]*contracts.PredictionResult

func (m mapFixtures) Lookup(symbol string, model contracts.ModelChoice) (*contracts.PredictionResult, bool) {
	r, ok := m[symbol]
	return r, ok
}

func TestStubService_Fixtures(t *testing.T) {
	canned := LiteralPayload("MSFT", contracts.ModelRNN)
	canned.LSTM.AccuracyPct = 99

	svc := NewStubService(0).WithFixtures(mapFixtures{"MSFT": canned})

	got, err := svc.RequestPrediction(context.Background(), contracts.PredictionRequest{Symbol: "MSFT", ModelChoice: contracts.ModelRNN})
	require.NoError(t, err)
	assert.Equal(t, 99.0, got.LSTM.AccuracyPct)

	got, err = svc.RequestPrediction(context.Background(), aaplBoth)
	require.NoError(t, err)
	assert.Equal(t, 85.2, got.LSTM.AccuracyPct, "unknown symbols fall back to the literal payload")
}
