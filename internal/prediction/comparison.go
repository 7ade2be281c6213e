package prediction

import (
	"math"

	"github.com/wonny/synthlab/backend/internal/contracts"
)

// TieBreakPolicy decides per-metric winners.
// Accuracy: strictly higher wins. RMSE, MAE, training time: strictly lower wins.
// Exact ties and unknown metrics go to Default.
type TieBreakPolicy struct {
	Default contracts.Variant
}

// DefaultTieBreak resolves ties in favour of LSTM
var DefaultTieBreak = TieBreakPolicy{Default: contracts.VariantLSTM}

type metricInfo struct {
	label        string
	unit         string
	higherIsBest bool
}

var metricTable = map[contracts.Metric]metricInfo{
	contracts.MetricAccuracy:     {label: "Accuracy", unit: "%", higherIsBest: true},
	contracts.MetricRMSE:         {label: "RMSE"},
	contracts.MetricMAE:          {label: "MAE"},
	contracts.MetricTrainingTime: {label: "Training Time", unit: "s"},
}

func (p TieBreakPolicy) other() contracts.Variant {
	if p.Default == contracts.VariantRNN {
		return contracts.VariantLSTM
	}
	return contracts.VariantRNN
}

// Better returns the better variant for one metric
func (p TieBreakPolicy) Better(m contracts.Metric, lstm, rnn float64) contracts.Variant {
	info, ok := metricTable[m]
	if !ok || lstm == rnn {
		return p.defaultVariant()
	}

	lstmWins := lstm < rnn
	if info.higherIsBest {
		lstmWins = lstm > rnn
	}
	if lstmWins {
		return contracts.VariantLSTM
	}
	return contracts.VariantRNN
}

func (p TieBreakPolicy) defaultVariant() contracts.Variant {
	if p.Default == "" {
		return contracts.VariantLSTM
	}
	return p.Default
}

// Compare derives the comparison view of result under this policy.
// The overall winner is the accuracy winner. That is a display policy, not a
// statistical combination of the four metrics.
func (p TieBreakPolicy) Compare(result *contracts.PredictionResult) contracts.ComparisonView {
	view := contracts.ComparisonView{
		Symbol: result.Symbol,
		Rows:   make([]contracts.MetricComparison, 0, len(contracts.AllMetrics)),
	}

	for _, m := range contracts.AllMetrics {
		info := metricTable[m]
		lstm, rnn := result.LSTM.Value(m), result.RNN.Value(m)
		view.Rows = append(view.Rows, contracts.MetricComparison{
			Metric:     m,
			Label:      info.label,
			Unit:       info.unit,
			LSTM:       lstm,
			RNN:        rnn,
			Difference: math.Abs(lstm - rnn),
			Winner:     p.Better(m, lstm, rnn),
		})
	}

	view.OverallWinner = p.Better(contracts.MetricAccuracy, result.LSTM.AccuracyPct, result.RNN.AccuracyPct)
	view.AccuracyShare = []contracts.AccuracySlice{
		{Variant: contracts.VariantLSTM, Name: "LSTM Accuracy", Value: result.LSTM.AccuracyPct},
		{Variant: contracts.VariantRNN, Name: "RNN Accuracy", Value: result.RNN.AccuracyPct},
	}

	return view
}

// CompareModels compares the two variants with the default LSTM tie-break
func CompareModels(result *contracts.PredictionResult) contracts.ComparisonView {
	return DefaultTieBreak.Compare(result)
}

// BuildChart zips dates, actual and predicted prices into chart points
func BuildChart(result *contracts.PredictionResult) contracts.ChartSeries {
	points := make([]contracts.ChartPoint, len(result.Dates))
	for i, d := range result.Dates {
		points[i] = contracts.ChartPoint{
			Date:   d,
			Label:  d.Format("Jan 2"),
			Actual: result.ActualPrices[i],
			LSTM:   result.LSTM.PriceSeries[i],
			RNN:    result.RNN.PriceSeries[i],
		}
	}
	return contracts.ChartSeries{Symbol: result.Symbol, Points: points}
}
