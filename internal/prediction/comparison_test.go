package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/synthlab/backend/internal/contracts"
)

func TestCompareModels_LiteralPayload(t *testing.T) {
	view := CompareModels(LiteralPayload("AAPL", contracts.ModelBoth))

	assert.Equal(t, "AAPL", view.Symbol)
	require.Len(t, view.Rows, 4)

	assert.Equal(t, contracts.VariantLSTM, view.Winner(contracts.MetricAccuracy))
	assert.Equal(t, contracts.VariantLSTM, view.Winner(contracts.MetricRMSE))
	assert.Equal(t, contracts.VariantLSTM, view.Winner(contracts.MetricMAE))
	assert.Equal(t, contracts.VariantRNN, view.Winner(contracts.MetricTrainingTime))
	assert.Equal(t, contracts.VariantLSTM, view.OverallWinner)

	rmse := view.Rows[1]
	assert.Equal(t, "RMSE", rmse.Label)
	assert.InDelta(t, 0.33, rmse.Difference, 1e-9)

	training := view.Rows[3]
	assert.Equal(t, "Training Time", training.Label)
	assert.Equal(t, "s", training.Unit)
	assert.Equal(t, 45.0, training.LSTM)
	assert.Equal(t, 32.0, training.RNN)

	require.Len(t, view.AccuracyShare, 2)
	assert.Equal(t, 85.2, view.AccuracyShare[0].Value)
	assert.Equal(t, 82.7, view.AccuracyShare[1].Value)
}

func TestCompareModels_RNNWins(t *testing.T) {
	result := LiteralPayload("TSLA", contracts.ModelBoth)
	result.RNN.AccuracyPct = 90
	result.RNN.RMSE = 1.0

	view := CompareModels(result)
	assert.Equal(t, contracts.VariantRNN, view.Winner(contracts.MetricAccuracy))
	assert.Equal(t, contracts.VariantRNN, view.Winner(contracts.MetricRMSE))
	assert.Equal(t, contracts.VariantRNN, view.OverallWinner)
}

func TestCompareModels_TiesDefaultToLSTM(t *testing.T) {
	result := LiteralPayload("NVDA", contracts.ModelBoth)
	result.RNN = result.LSTM

	view := CompareModels(result)
	for _, row := range view.Rows {
		assert.Equal(t, contracts.VariantLSTM, row.Winner, row.Label)
		assert.Zero(t, row.Difference)
	}
	assert.Equal(t, contracts.VariantLSTM, view.OverallWinner)
}

func TestTieBreakPolicy(t *testing.T) {
	rnnFirst := TieBreakPolicy{Default: contracts.VariantRNN}

	assert.Equal(t, contracts.VariantRNN, rnnFirst.Better(contracts.MetricMAE, 2, 2))
	assert.Equal(t, contracts.VariantLSTM, rnnFirst.Better(contracts.MetricMAE, 1, 2))
	assert.Equal(t, contracts.VariantRNN, rnnFirst.Better("sharpe", 5, 1), "unknown metric uses default")

	var zero TieBreakPolicy
	assert.Equal(t, contracts.VariantLSTM, zero.Better(contracts.MetricRMSE, 1, 1))
}

func TestCompareModels_IsPure(t *testing.T) {
	result := LiteralPayload("AAPL", contracts.ModelBoth)
	before := result.Clone()

	first := CompareModels(result)
	second := CompareModels(result)

	assert.Equal(t, first, second)
	assert.Equal(t, before, result)
}

func TestBuildChart(t *testing.T) {
	chart := BuildChart(LiteralPayload("AAPL", contracts.ModelLSTM))

	assert.Equal(t, "AAPL", chart.Symbol)
	require.Len(t, chart.Points, 7)

	first := chart.Points[0]
	assert.Equal(t, "Jan 1", first.Label)
	assert.Equal(t, 148.0, first.Actual)
	assert.Equal(t, 150.0, first.LSTM)
	assert.Equal(t, 149.0, first.RNN)

	assert.Equal(t, "Jan 7", chart.Points[6].Label)
	assert.Equal(t, 162.0, chart.Points[6].LSTM)
}
