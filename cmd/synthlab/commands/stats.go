package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/synthlab/backend/pkg/logger"
)

// statsCmd prints the dashboard stats cards
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "대시보드 통계 출력",
	Long: `예측 이력 집계(모델 수, 평균 정확도, 예측 횟수, 평균 학습 시간)를 출력합니다.
DATABASE_URL이 설정되어 있으면 최근 예측 종목도 함께 출력합니다.

Example:
  go run ./cmd/synthlab stats
  go run ./cmd/synthlab stats --recent 10`,
	RunE: runStats,
}

var statsRecent int

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().IntVar(&statsRecent, "recent", 5, "최근 종목 수 (database only)")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !verbose {
		cfg.LogLevel = "warn"
	}
	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.recorder.Stats(ctx)
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}

	PrintTitle("Dashboard Stats")
	fmt.Println(RenderStats(stats))

	if a.repo == nil {
		PrintWarning("DATABASE_URL not set: stats cover this process only")
		return nil
	}

	recent, err := a.repo.RecentSymbols(ctx, statsRecent)
	if err != nil {
		return fmt.Errorf("read recent symbols: %w", err)
	}
	fmt.Println(RenderRecentSymbols(recent))
	return nil
}
