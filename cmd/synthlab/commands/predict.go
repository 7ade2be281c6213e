package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/synthlab/backend/internal/contracts"
	"github.com/wonny/synthlab/backend/pkg/logger"
)

// predictCmd runs one prediction session end to end
var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "단발성 예측 실행",
	Long: `세션 하나를 만들어 예측을 요청하고 LSTM vs RNN 비교 표를 출력합니다.

Example:
  go run ./cmd/synthlab predict --symbol AAPL --model both --days 7
  go run ./cmd/synthlab predict --symbol TSLA --model lstm --from 2024-01-01 --to 2024-06-30`,
	RunE: runPredict,
}

var (
	predictSymbol string
	predictModel  string
	predictDays   int
	predictFrom   string
	predictTo     string
	predictChart  bool
)

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringVar(&predictSymbol, "symbol", "", "종목 심볼 (e.g. AAPL)")
	predictCmd.Flags().StringVar(&predictModel, "model", "both", "모델 (lstm|rnn|both)")
	predictCmd.Flags().IntVar(&predictDays, "days", int(contracts.DefaultHorizon), "예측 기간 (7|14|30)")
	predictCmd.Flags().StringVar(&predictFrom, "from", "", "시작일 YYYY-MM-DD")
	predictCmd.Flags().StringVar(&predictTo, "to", "", "종료일 YYYY-MM-DD")
	predictCmd.Flags().BoolVar(&predictChart, "chart", false, "차트 데이터 표 출력")
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !verbose {
		cfg.LogLevel = "warn"
	}
	log := logger.New(cfg)

	req, err := buildRequest(predictSymbol, predictModel, predictDays, predictFrom, predictTo)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	session, err := a.sessions.Create()
	if err != nil {
		return err
	}

	pending, err := session.Submit(req)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintTitle(fmt.Sprintf("Predicting %s (%s, %d days)", req.Symbol, req.ModelChoice, predictDays))

	waitCtx, cancel := context.WithTimeout(ctx, cfg.Prediction.Timeout+cfg.Prediction.StubDelay)
	defer cancel()

	start := time.Now()
	snap, err := pending.Wait(waitCtx)
	if err != nil {
		return fmt.Errorf("wait for prediction: %w", err)
	}

	if snap.State == contracts.StateFailed {
		PrintError(snap.LastError.Message)
		return fmt.Errorf("prediction failed: %s", snap.LastError.Code)
	}

	view, err := session.Comparison()
	if err != nil {
		return err
	}
	fmt.Println(RenderComparison(view))

	if predictChart {
		chart, err := session.Chart()
		if err != nil {
			return err
		}
		fmt.Println(RenderChart(chart))
	}

	PrintSuccess(fmt.Sprintf("Resolved in %.2fs", time.Since(start).Seconds()))
	return nil
}

// buildRequest converts CLI flags; field checks are left to the session's validator
func buildRequest(symbol, model string, days int, from, to string) (contracts.PredictionRequest, error) {
	choice, err := contracts.ParseModelChoice(model)
	if err != nil {
		return contracts.PredictionRequest{}, fmt.Errorf("--model: %w", err)
	}

	req := contracts.PredictionRequest{
		Symbol:      symbol,
		ModelChoice: choice,
		HorizonDays: contracts.Horizon(days),
	}

	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return req, fmt.Errorf("--from: expected YYYY-MM-DD")
		}
		req.DateRangeStart = &t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return req, fmt.Errorf("--to: expected YYYY-MM-DD")
		}
		req.DateRangeEnd = &t
	}

	return req, nil
}
