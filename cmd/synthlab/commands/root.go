package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/synthlab/backend/pkg/config"
)

var (
	// Global flags
	verbose     bool
	serviceFlag string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "synthlab",
	Short: "Synth Lab - LSTM/RNN 주가 예측 대시보드 백엔드",
	Long: `Synth Lab CLI

예측 세션 API 서버와 단발성 예측/통계 명령을 제공합니다.

Usage:
  go run ./cmd/synthlab [command]

Examples:
  go run ./cmd/synthlab api
  go run ./cmd/synthlab predict --symbol AAPL --model both --days 7
  go run ./cmd/synthlab stats`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&serviceFlag, "service", "", "prediction service override (stub|remote)")
}

// loadConfig loads the environment config and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	if serviceFlag != "" {
		switch serviceFlag {
		case config.ServiceStub, config.ServiceRemote:
			cfg.Prediction.Service = serviceFlag
		default:
			return nil, fmt.Errorf("--service must be one of: stub, remote")
		}
		if serviceFlag == config.ServiceRemote && cfg.Prediction.BackendURL == "" {
			return nil, fmt.Errorf("--service remote requires PREDICTION_BACKEND_URL")
		}
	}

	return cfg, nil
}
