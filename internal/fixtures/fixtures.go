// Package fixtures loads canned prediction payloads for the stub service from YAML.
package fixtures

import (
	"strings"
	"time"

	"github.com/wonny/synthlab/backend/internal/contracts"
)

// Set is a fixture file: one canned result per symbol
type Set struct {
	Meta    Meta               `yaml:"meta" json:"meta"`
	Symbols map[string]Payload `yaml:"symbols" json:"symbols"`
}

// Meta 메타 정보
type Meta struct {
	Name    string `yaml:"name" json:"name"`
	Version string `yaml:"version" json:"version"`
}

// Payload is the canned result of one symbol
type Payload struct {
	Dates  []string  `yaml:"dates" json:"dates"` // YYYY-MM-DD
	Actual []float64 `yaml:"actual" json:"actual"`
	LSTM   Model     `yaml:"lstm" json:"lstm"`
	RNN    Model     `yaml:"rnn" json:"rnn"`
}

// Model holds one variant's metrics and predicted prices
type Model struct {
	Prices       []float64 `yaml:"prices" json:"prices"`
	Accuracy     float64   `yaml:"accuracy" json:"accuracy"`
	RMSE         float64   `yaml:"rmse" json:"rmse"`
	MAE          float64   `yaml:"mae" json:"mae"`
	TrainingTime float64   `yaml:"training_time" json:"training_time"`
}

const dateLayout = "2006-01-02"

// Lookup returns the result for symbol (case-insensitive).
// Validate guarantees every payload converts cleanly.
func (s *Set) Lookup(symbol string, model contracts.ModelChoice) (*contracts.PredictionResult, bool) {
	p, ok := s.Symbols[strings.ToUpper(symbol)]
	if !ok {
		return nil, false
	}
	result, err := p.toResult(strings.ToUpper(symbol), model)
	if err != nil {
		return nil, false
	}
	return result, true
}

func (p Payload) toResult(symbol string, model contracts.ModelChoice) (*contracts.PredictionResult, error) {
	dates := make([]time.Time, len(p.Dates))
	for i, raw := range p.Dates {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, err
		}
		dates[i] = d
	}

	return &contracts.PredictionResult{
		Symbol:         symbol,
		RequestedModel: model,
		LSTM:           p.LSTM.toMetrics(),
		RNN:            p.RNN.toMetrics(),
		ActualPrices:   append([]float64(nil), p.Actual...),
		Dates:          dates,
	}, nil
}

func (m Model) toMetrics() contracts.ModelMetrics {
	return contracts.ModelMetrics{
		AccuracyPct:         m.Accuracy,
		RMSE:                m.RMSE,
		MAE:                 m.MAE,
		TrainingTimeSeconds: m.TrainingTime,
		PriceSeries:         append([]float64(nil), m.Prices...),
	}
}
