package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	profileFlag  string
	progressFlag string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "F-Score 하이브리드 스크리너",
	Long: `F-Score Hybrid Screener CLI

한국 상장 주식을 Piotroski F-Score로 선별합니다.
Lite(FnGuide 6항목) 전체 스캔 → 섹터 상대강도 보정 → 상위 N종목 Full(DART 9항목) 스캔.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant hybrid
  go run ./cmd/quant hybrid --profile test
  go run ./cmd/quant lite --max-count 300
  go run ./cmd/quant full 005930 000660
  go run ./cmd/quant timing --min-fscore 6
  go run ./cmd/quant serve`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profileFlag, "profile", "", "파이프라인 프로파일 (test 또는 YAML 파일 경로)")
	rootCmd.PersistentFlags().StringVar(&progressFlag, "progress", "bar", "진행 표시 방식 (bar|log)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug 로그 출력")
}
