package contracts

import "time"

// Variant 비교 대상 모델
type Variant string

const (
	VariantLSTM Variant = "lstm"
	VariantRNN  Variant = "rnn"
)

// Metric 비교 지표
type Metric string

const (
	MetricAccuracy     Metric = "accuracy"
	MetricRMSE         Metric = "rmse"
	MetricMAE          Metric = "mae"
	MetricTrainingTime Metric = "training_time"
)

// AllMetrics in display order
var AllMetrics = []Metric{MetricAccuracy, MetricRMSE, MetricMAE, MetricTrainingTime}

// MetricComparison is one row of the head-to-head table
type MetricComparison struct {
	Metric     Metric  `json:"metric"`
	Label      string  `json:"label"`
	Unit       string  `json:"unit"`
	LSTM       float64 `json:"lstm"`
	RNN        float64 `json:"rnn"`
	Difference float64 `json:"difference"`
	Winner     Variant `json:"winner"`
}

// AccuracySlice is one slice of the accuracy pie chart
type AccuracySlice struct {
	Variant Variant `json:"variant"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
}

// ComparisonView summarizes per-metric and overall winners
type ComparisonView struct {
	Symbol        string             `json:"symbol"`
	Rows          []MetricComparison `json:"rows"`
	OverallWinner Variant            `json:"overall_winner"`
	AccuracyShare []AccuracySlice    `json:"accuracy_share"`
}

// Winner returns the winner of metric m, or "" if m is not in the view
func (v ComparisonView) Winner(m Metric) Variant {
	for _, row := range v.Rows {
		if row.Metric == m {
			return row.Winner
		}
	}
	return ""
}

// ChartPoint is one x-axis position of the price chart
type ChartPoint struct {
	Date   time.Time `json:"date"`
	Label  string    `json:"label"`
	Actual float64   `json:"actual"`
	LSTM   float64   `json:"lstm"`
	RNN    float64   `json:"rnn"`
}

// ChartSeries is the actual-vs-predicted chart dataset
type ChartSeries struct {
	Symbol string       `json:"symbol"`
	Points []ChartPoint `json:"points"`
}

// DashboardStats backs the summary cards above the form
type DashboardStats struct {
	ModelsAvailable    int     `json:"models_available"`
	AverageAccuracy    float64 `json:"average_accuracy"`
	PredictionsMade    int64   `json:"predictions_made"`
	AvgTrainingSeconds float64 `json:"avg_training_seconds"`
}
