package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/synthlab/backend/internal/api"
	"github.com/wonny/synthlab/backend/internal/api/handlers"
	"github.com/wonny/synthlab/backend/internal/scheduler"
	"github.com/wonny/synthlab/backend/internal/scheduler/jobs"
	"github.com/wonny/synthlab/backend/pkg/logger"
	"github.com/wonny/synthlab/backend/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `예측 세션 REST/WebSocket API 서버를 시작합니다.

Endpoints:
  GET  /health                          - Health check
  POST /api/sessions                    - 세션 생성
  GET  /api/sessions/{id}               - 세션 스냅샷
  POST /api/sessions/{id}/predictions   - 예측 요청
  GET  /api/sessions/{id}/comparison    - LSTM vs RNN 비교
  GET  /api/sessions/{id}/chart         - 차트 시리즈
  GET  /api/sessions/{id}/stream        - 상태 스트림 (websocket)
  GET  /api/stats                       - 대시보드 통계

Example:
  go run ./cmd/synthlab api
  go run ./cmd/synthlab api --port 9000`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	PrintTitle("Synth Lab API Server")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Wire dependencies
	ctx := context.Background()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.remote != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := a.remote.Ping(pingCtx); err != nil {
			log.WithError(err).Warn("Prediction backend health check failed")
		}
		cancel()
	}

	// 4. Scheduler
	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewSessionReaperJob(a.sessions, cfg.Session.ReaperSchedule, log)); err != nil {
		return fmt.Errorf("schedule session reaper: %w", err)
	}
	if err := sched.AddJob(jobs.NewStatsReportJob(a.recorder, log)); err != nil {
		return fmt.Errorf("schedule stats report: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 5. Router + server
	router := api.NewRouter(api.Deps{
		Sessions:    handlers.NewSessionHandler(a.sessions, log),
		Stats:       handlers.NewStatsHandler(a.recorder, log),
		Limiter:     redis.NewRateLimiter(a.redis, "synthlab"),
		SubmitLimit: cfg.Session.SubmitRateLimit,
		DB:          a.db,
	}, log)
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	PrintSuccess(fmt.Sprintf("Server running on http://localhost:%s (service=%s)", cfg.Port, cfg.Prediction.Service))
	fmt.Println("Press Ctrl+C to stop")

	// Wait for interrupt signal or a failed listener
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
