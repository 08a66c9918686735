package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	sourceFlag  string
	presetsFile string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pocscan",
	Short: "POC 매매 신호 스캐너",
	Long: `POC Scanner CLI

KRX 대형주 20종목의 최근 일봉으로 가격대별 거래량(Volume Profile)을 만들고
POC(Point of Control) 지지/저항에서 매수·매도 신호를 찾습니다.

Usage:
  go run ./cmd/pocscan [command]

Examples:
  go run ./cmd/pocscan scan
  go run ./cmd/pocscan scan --source naver --preset aggressive
  go run ./cmd/pocscan api --scheduler
  go run ./cmd/pocscan check`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&sourceFlag, "source", "", "데이터 소스 (kis|yahoo|naver, 기본값 SCAN_SOURCE)")
	rootCmd.PersistentFlags().StringVar(&presetsFile, "presets", "", "스캔 조건 프리셋 YAML (기본값 SCAN_PRESETS_FILE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
