package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/synthlab/backend/internal/contracts"
	"github.com/wonny/synthlab/backend/pkg/logger"
)

// Repository persists resolved predictions to PostgreSQL
// ⭐ SSOT: prediction_history 저장/집계는 여기서만
type Repository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
	now    func() time.Time
}

// NewRepository creates a new history repository
func NewRepository(pool *pgxpool.Pool, log *logger.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: log.WithComponent("history.repository"),
		now:    time.Now,
	}
}

const schemaDDL = `
	CREATE SCHEMA IF NOT EXISTS synthlab;

	CREATE TABLE IF NOT EXISTS synthlab.prediction_history (
		id              BIGSERIAL PRIMARY KEY,
		prediction_id   UUID NOT NULL,
		symbol          TEXT NOT NULL,
		requested_model TEXT NOT NULL,
		variant         TEXT NOT NULL,
		accuracy        DOUBLE PRECISION NOT NULL,
		rmse            DOUBLE PRECISION NOT NULL,
		mae             DOUBLE PRECISION NOT NULL,
		training_time   DOUBLE PRECISION NOT NULL,
		points          INTEGER NOT NULL,
		recorded_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (prediction_id, variant)
	);

	CREATE INDEX IF NOT EXISTS idx_prediction_history_symbol
		ON synthlab.prediction_history (symbol, recorded_at DESC);
`

// EnsureSchema creates the history table if it does not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure history schema: %w", err)
	}
	return nil
}

// Record stores one row per model variant of result
func (r *Repository) Record(ctx context.Context, result *contracts.PredictionResult) error {
	if result == nil {
		return nil
	}

	predictionID := uuid.New()
	recordedAt := r.now()
	rows := rowsOf(result)

	batch := &pgx.Batch{}
	query := `
		INSERT INTO synthlab.prediction_history
			(prediction_id, symbol, requested_model, variant, accuracy, rmse, mae, training_time, points, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (prediction_id, variant) DO NOTHING`

	for _, row := range rows {
		batch.Queue(query, predictionID, result.Symbol, string(result.RequestedModel), string(row.Variant),
			row.Accuracy, row.RMSE, row.MAE, row.TrainingTime, row.Points, recordedAt)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to record prediction %s: %w", result.Symbol, err)
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"prediction_id": predictionID.String(),
		"symbol":        result.Symbol,
	}).Debug("Prediction recorded")

	return nil
}

// Stats aggregates the whole history table
func (r *Repository) Stats(ctx context.Context) (contracts.DashboardStats, error) {
	query := `
		SELECT
			COUNT(DISTINCT prediction_id),
			COALESCE(AVG(accuracy), 0),
			COALESCE(AVG(training_time), 0)
		FROM synthlab.prediction_history`

	stats := contracts.DashboardStats{ModelsAvailable: ModelsAvailable}
	var avgAccuracy, avgTraining float64

	err := r.pool.QueryRow(ctx, query).Scan(&stats.PredictionsMade, &avgAccuracy, &avgTraining)
	if err != nil {
		return contracts.DashboardStats{}, fmt.Errorf("failed to aggregate history: %w", err)
	}

	stats.AverageAccuracy = round2(avgAccuracy)
	stats.AvgTrainingSeconds = round2(avgTraining)
	return stats, nil
}

// SymbolCount is one row of RecentSymbols
type SymbolCount struct {
	Symbol   string    `json:"symbol"`
	Count    int64     `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// RecentSymbols returns the most recently predicted symbols
func (r *Repository) RecentSymbols(ctx context.Context, limit int) ([]SymbolCount, error) {
	query := `
		SELECT symbol, COUNT(DISTINCT prediction_id), MAX(recorded_at)
		FROM synthlab.prediction_history
		GROUP BY symbol
		ORDER BY MAX(recorded_at) DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent symbols: %w", err)
	}
	defer rows.Close()

	var out []SymbolCount
	for rows.Next() {
		var sc SymbolCount
		if err := rows.Scan(&sc.Symbol, &sc.Count, &sc.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan symbol row: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
