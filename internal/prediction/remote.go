package prediction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/synthlab/backend/internal/contracts"
	"github.com/wonny/synthlab/backend/pkg/httputil"
	"github.com/wonny/synthlab/backend/pkg/logger"
)

const wireDateLayout = "2006-01-02"

// RemoteService forwards requests to an external forecasting backend over HTTP
type RemoteService struct {
	client  *httputil.Client
	baseURL string
	timeout time.Duration
	logger  *logger.Logger
}

// NewRemoteService creates a client for baseURL (POST {baseURL}/predict)
func NewRemoteService(client *httputil.Client, baseURL string, timeout time.Duration, log *logger.Logger) *RemoteService {
	return &RemoteService{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  log.WithComponent("prediction.remote"),
	}
}

type wireRequest struct {
	Symbol      string `json:"symbol"`
	Model       string `json:"model"`
	DateFrom    string `json:"date_from,omitempty"`
	DateTo      string `json:"date_to,omitempty"`
	HorizonDays int    `json:"horizon_days"`
}

type wireModel struct {
	Prices       []float64 `json:"prices"`
	Accuracy     float64   `json:"accuracy"`
	RMSE         float64   `json:"rmse"`
	MAE          float64   `json:"mae"`
	TrainingTime float64   `json:"trainingTime"`
}

type wireResponse struct {
	Symbol      string `json:"symbol"`
	Model       string `json:"model"`
	Predictions struct {
		LSTM wireModel `json:"lstm"`
		RNN  wireModel `json:"rnn"`
	} `json:"predictions"`
	ActualPrices []float64 `json:"actualPrices"`
	Dates        []string  `json:"dates"`
}

// RequestPrediction posts the request and converts the backend payload
func (s *RemoteService) RequestPrediction(ctx context.Context, req contracts.PredictionRequest) (*contracts.PredictionResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	in := wireRequest{
		Symbol:      req.Symbol,
		Model:       string(req.ModelChoice),
		HorizonDays: int(req.HorizonDays),
	}
	if req.DateRangeStart != nil {
		in.DateFrom = req.DateRangeStart.Format(wireDateLayout)
	}
	if req.DateRangeEnd != nil {
		in.DateTo = req.DateRangeEnd.Format(wireDateLayout)
	}

	var out wireResponse
	if err := s.client.PostJSON(ctx, s.baseURL+"/predict", in, &out); err != nil {
		return nil, contracts.NewServiceError(fmt.Errorf("predict %s: %w", req.Symbol, err))
	}

	result, err := out.toResult(req)
	if err != nil {
		return nil, contracts.NewServiceError(err)
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol": result.Symbol,
		"points": len(result.Dates),
	}).Debug("Remote prediction received")

	return result, nil
}

func (w wireResponse) toResult(req contracts.PredictionRequest) (*contracts.PredictionResult, error) {
	dates := make([]time.Time, len(w.Dates))
	for i, raw := range w.Dates {
		d, err := parseWireDate(raw)
		if err != nil {
			return nil, fmt.Errorf("dates[%d]: %w", i, err)
		}
		dates[i] = d
	}

	symbol := w.Symbol
	if symbol == "" {
		symbol = req.Symbol
	}

	model := req.ModelChoice
	if parsed, err := contracts.ParseModelChoice(w.Model); err == nil && parsed.Valid() {
		model = parsed
	}

	result := &contracts.PredictionResult{
		Symbol:         symbol,
		RequestedModel: model,
		LSTM:           w.Predictions.LSTM.toMetrics(),
		RNN:            w.Predictions.RNN.toMetrics(),
		ActualPrices:   w.ActualPrices,
		Dates:          dates,
	}
	if err := result.CheckAlignment(); err != nil {
		return nil, err
	}
	return result, nil
}

func (m wireModel) toMetrics() contracts.ModelMetrics {
	return contracts.ModelMetrics{
		AccuracyPct:         m.Accuracy,
		RMSE:                m.RMSE,
		MAE:                 m.MAE,
		TrainingTimeSeconds: m.TrainingTime,
		PriceSeries:         m.Prices,
	}
}

func parseWireDate(raw string) (time.Time, error) {
	if d, err := time.Parse(wireDateLayout, raw); err == nil {
		return d, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// Ping checks that the backend answers GET {baseURL}/health with a JSON body
func (s *RemoteService) Ping(ctx context.Context) error {
	var out map[string]interface{}
	if err := s.client.GetJSON(ctx, s.baseURL+"/health", &out); err != nil {
		return fmt.Errorf("prediction backend unreachable: %w", err)
	}
	return nil
}
