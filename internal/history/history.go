// Package history keeps the aggregates behind the dashboard stats cards.
package history

import (
	"github.com/wonny/synthlab/backend/internal/contracts"
)

// ModelsAvailable is the number of model variants the service can produce (LSTM, RNN)
const ModelsAvailable = 2

// Recorder is the contracts.HistoryRecorder both implementations satisfy
type Recorder = contracts.HistoryRecorder

// variantRow is one model's contribution to the aggregates
type variantRow struct {
	Variant      contracts.Variant
	Accuracy     float64
	RMSE         float64
	MAE          float64
	TrainingTime float64
	Points       int
}

// rowsOf flattens a result into one row per model variant
func rowsOf(result *contracts.PredictionResult) []variantRow {
	rows := make([]variantRow, 0, ModelsAvailable)
	for _, v := range []contracts.Variant{contracts.VariantLSTM, contracts.VariantRNN} {
		m := result.Metrics(v)
		rows = append(rows, variantRow{
			Variant:      v,
			Accuracy:     m.AccuracyPct,
			RMSE:         m.RMSE,
			MAE:          m.MAE,
			TrainingTime: m.TrainingTimeSeconds,
			Points:       len(m.PriceSeries),
		})
	}
	return rows
}
