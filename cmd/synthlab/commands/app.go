package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/synthlab/backend/internal/contracts"
	"github.com/wonny/synthlab/backend/internal/fixtures"
	"github.com/wonny/synthlab/backend/internal/history"
	"github.com/wonny/synthlab/backend/internal/prediction"
	"github.com/wonny/synthlab/backend/internal/sessions"
	"github.com/wonny/synthlab/backend/pkg/config"
	"github.com/wonny/synthlab/backend/pkg/database"
	"github.com/wonny/synthlab/backend/pkg/httputil"
	"github.com/wonny/synthlab/backend/pkg/logger"
	"github.com/wonny/synthlab/backend/pkg/redis"
)

// app holds the wired dependencies shared by every command
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB // nil when DATABASE_URL is empty
	redis    *redis.Client
	repo     *history.Repository // nil without a database
	recorder contracts.HistoryRecorder
	service  contracts.PredictionService
	remote   *prediction.RemoteService // nil for the stub
	sessions *sessions.Manager
}

// newApp wires config → redis → database → history → service → sessions
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	// 1. Redis (disabled client when REDIS_ENABLED=false)
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc
	log.WithField("enabled", rc.Enabled()).Info("Redis initialized")

	// 2. Database (optional)
	db, err := database.New(ctx, cfg.Database)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		log.Info("DATABASE_URL not set, using in-memory history")
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		a.db = db
		log.Info("Connected to database")
	}

	// 3. History
	if a.db != nil {
		a.repo = history.NewRepository(a.db.Pool, log)
		if err := a.repo.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, err
		}
		a.recorder = a.repo
	} else {
		a.recorder = history.NewMemoryRecorder()
	}

	// 4. Prediction service
	switch cfg.Prediction.Service {
	case config.ServiceRemote:
		client := httputil.New(httputil.Options{
			Timeout:        cfg.Prediction.Timeout,
			RequestsPerSec: cfg.Prediction.RatePerSec,
			MaxRetries:     cfg.Prediction.MaxRetries,
		}, log)
		a.remote = prediction.NewRemoteService(client, cfg.Prediction.BackendURL, cfg.Prediction.Timeout, log)
		a.service = a.remote
	default:
		stub := prediction.NewStubService(cfg.Prediction.StubDelay)
		if cfg.Prediction.StubFixtures != "" {
			set, err := loadFixtures(cfg.Prediction.StubFixtures, log)
			if err != nil {
				a.Close()
				return nil, err
			}
			stub.WithFixtures(set)
		}
		a.service = stub
	}
	log.WithField("service", cfg.Prediction.Service).Info("Prediction service initialized")

	// 5. Sessions
	a.sessions = sessions.NewManager(a.service, sessions.Options{
		IdleTTL:     cfg.Session.IdleTTL,
		MaxSessions: cfg.Session.MaxSessions,
		Recorder:    a.recorder,
		Cache:       redis.NewCache(a.redis, "synthlab"),
	}, log)

	return a, nil
}

// loadFixtures loads the stub fixture file and logs its identity
func loadFixtures(path string, log *logger.Logger) (*fixtures.Set, error) {
	set, err := fixtures.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load stub fixtures: %w", err)
	}
	hash, err := fixtures.Hash(set)
	if err != nil {
		return nil, fmt.Errorf("hash stub fixtures: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"fixtures": set.Meta.Name,
		"version":  set.Meta.Version,
		"symbols":  len(set.Symbols),
		"hash":     hash,
	}).Info("Stub fixtures loaded")
	return set, nil
}

// Close releases sessions and connections
func (a *app) Close() {
	if a.sessions != nil {
		a.sessions.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}
