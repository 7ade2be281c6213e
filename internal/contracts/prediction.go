package contracts

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ModelChoice 사용자가 선택한 모델
type ModelChoice string

const (
	ModelUnset ModelChoice = ""
	ModelLSTM  ModelChoice = "lstm"
	ModelRNN   ModelChoice = "rnn"
	ModelBoth  ModelChoice = "both"
)

// ParseModelChoice parses a model choice case-insensitively. Empty input yields ModelUnset.
func ParseModelChoice(s string) (ModelChoice, error) {
	m := ModelChoice(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModelUnset, ModelLSTM, ModelRNN, ModelBoth:
		return m, nil
	}
	return ModelUnset, fmt.Errorf("unknown model %q", s)
}

// Valid reports whether m is one of the three selectable models
func (m ModelChoice) Valid() bool {
	return m == ModelLSTM || m == ModelRNN || m == ModelBoth
}

// Horizon 예측 기간 (일)
type Horizon int

const (
	HorizonUnset Horizon = 0
	Horizon7     Horizon = 7
	Horizon14    Horizon = 14
	Horizon30    Horizon = 30

	DefaultHorizon = Horizon7
)

// Valid reports whether h is one of 7, 14, 30
func (h Horizon) Valid() bool {
	return h == Horizon7 || h == Horizon14 || h == Horizon30
}

// PredictionRequest is one submission of the prediction form
type PredictionRequest struct {
	Symbol         string      `json:"symbol"`
	ModelChoice    ModelChoice `json:"model"`
	DateRangeStart *time.Time  `json:"date_from,omitempty"`
	DateRangeEnd   *time.Time  `json:"date_to,omitempty"`
	HorizonDays    Horizon     `json:"prediction_days"`
}

// Clone returns a copy that shares no pointers with r
func (r PredictionRequest) Clone() PredictionRequest {
	out := r
	if r.DateRangeStart != nil {
		start := *r.DateRangeStart
		out.DateRangeStart = &start
	}
	if r.DateRangeEnd != nil {
		end := *r.DateRangeEnd
		out.DateRangeEnd = &end
	}
	return out
}

// ModelMetrics 모델별 성능 지표 + 예측 가격
type ModelMetrics struct {
	AccuracyPct         float64   `json:"accuracy"`
	RMSE                float64   `json:"rmse"`
	MAE                 float64   `json:"mae"`
	TrainingTimeSeconds float64   `json:"training_time"`
	PriceSeries         []float64 `json:"prices"`
}

// Value returns the metric value for m
func (mm ModelMetrics) Value(m Metric) float64 {
	switch m {
	case MetricAccuracy:
		return mm.AccuracyPct
	case MetricRMSE:
		return mm.RMSE
	case MetricMAE:
		return mm.MAE
	case MetricTrainingTime:
		return mm.TrainingTimeSeconds
	}
	return 0
}

func (mm ModelMetrics) check(name string) error {
	for _, v := range []float64{mm.AccuracyPct, mm.RMSE, mm.MAE, mm.TrainingTimeSeconds} {
		if !finite(v) {
			return fmt.Errorf("%s has a non-finite metric", name)
		}
	}
	if !allFinite(mm.PriceSeries) {
		return fmt.Errorf("%s price series has a non-finite value", name)
	}
	if mm.AccuracyPct < 0 || mm.AccuracyPct > 100 {
		return fmt.Errorf("%s accuracy %.2f outside [0,100]", name, mm.AccuracyPct)
	}
	if mm.RMSE < 0 || mm.MAE < 0 || mm.TrainingTimeSeconds < 0 {
		return fmt.Errorf("%s has negative error or training metrics", name)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(vs []float64) bool {
	for _, v := range vs {
		if !finite(v) {
			return false
		}
	}
	return true
}

// PredictionResult 예측 결과. Dates/ActualPrices/LSTM.PriceSeries/RNN.PriceSeries are index-aligned.
type PredictionResult struct {
	Symbol         string       `json:"symbol"`
	RequestedModel ModelChoice  `json:"model"`
	LSTM           ModelMetrics `json:"lstm"`
	RNN            ModelMetrics `json:"rnn"`
	ActualPrices   []float64    `json:"actual_prices"`
	Dates          []time.Time  `json:"dates"`
}

// CheckAlignment verifies the equal-length invariant and metric ranges
func (r *PredictionResult) CheckAlignment() error {
	n := len(r.Dates)
	if len(r.ActualPrices) != n || len(r.LSTM.PriceSeries) != n || len(r.RNN.PriceSeries) != n {
		return fmt.Errorf("misaligned series: dates=%d actual=%d lstm=%d rnn=%d",
			n, len(r.ActualPrices), len(r.LSTM.PriceSeries), len(r.RNN.PriceSeries))
	}
	if !allFinite(r.ActualPrices) {
		return fmt.Errorf("actual prices have a non-finite value")
	}
	if err := r.LSTM.check("lstm"); err != nil {
		return err
	}
	return r.RNN.check("rnn")
}

// Metrics returns the metrics block of variant v
func (r *PredictionResult) Metrics(v Variant) ModelMetrics {
	if v == VariantRNN {
		return r.RNN
	}
	return r.LSTM
}

// Clone deep-copies the result
func (r *PredictionResult) Clone() *PredictionResult {
	if r == nil {
		return nil
	}
	out := *r
	out.LSTM.PriceSeries = append([]float64(nil), r.LSTM.PriceSeries...)
	out.RNN.PriceSeries = append([]float64(nil), r.RNN.PriceSeries...)
	out.ActualPrices = append([]float64(nil), r.ActualPrices...)
	out.Dates = append([]time.Time(nil), r.Dates...)
	return &out
}
