package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fscore/internal/report"
	"github.com/wonny/fscore/internal/timing"
)

const timingTopDisplay = 20

var (
	timingInputFlag     string
	timingMinFScoreFlag int
	timingWorkersFlag   int
	timingMaxCountFlag  int
	timingNotifyFlag    bool
)

// timingCmd evaluates entry timing for screened securities
var timingCmd = &cobra.Command{
	Use:   "timing",
	Short: "F-Score 통과 종목 매수 타이밍 분석",
	Long: `최종 F-Score 결과에서 최소 점수 이상 종목의 일봉을 조회해
이동평균, RSI, MACD, 거래량, 볼린저 밴드 신호로 타이밍 점수(10점)를 계산합니다.
종합 점수 = F-Score×10 + 타이밍×5

Examples:
  go run ./cmd/quant timing
  go run ./cmd/quant timing --min-fscore 6
  go run ./cmd/quant timing --input output/hybrid_final_20240315.csv --notify`,
	RunE: runTiming,
}

func init() {
	timingCmd.Flags().StringVar(&timingInputFlag, "input", "", "F-Score 결과 파일 (기본: 최신 hybrid_final)")
	timingCmd.Flags().IntVar(&timingMinFScoreFlag, "min-fscore", 0, "최소 F-Score")
	timingCmd.Flags().IntVar(&timingWorkersFlag, "workers", 0, "동시 워커 수")
	timingCmd.Flags().IntVar(&timingMaxCountFlag, "max-count", 0, "최대 분석 종목 수 (0 = 전체)")
	timingCmd.Flags().BoolVar(&timingNotifyFlag, "notify", false, "완료 후 텔레그램 알림")
	rootCmd.AddCommand(timingCmd)
}

func runTiming(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.timingConfig()
	cfg.Date = time.Now()
	cfg.Input = timingInputFlag
	if cfg.Input == "" {
		cfg.Input, err = report.Latest(cfg.OutputDir, report.PrefixFinal)
		if err != nil {
			return fmt.Errorf("no screening results found, run hybrid first: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("min-fscore") {
		cfg.MinFScore = timingMinFScoreFlag
	}
	if flags.Changed("workers") {
		cfg.Workers = timingWorkersFlag
	}
	if flags.Changed("max-count") {
		cfg.MaxCount = timingMaxCountFlag
	}

	batch := timing.NewBatch(a.naver, a.reporter(), a.log)
	result, err := batch.Run(ctx, cfg)
	if err != nil {
		return fmt.Errorf("timing batch failed: %w", err)
	}

	PrintTimingSummary(os.Stdout, result, timingTopDisplay)

	if timingNotifyFlag {
		if err := a.notifier(true).NotifyTiming(ctx, result); err != nil {
			a.log.WithError(err).Warn("Timing notification failed")
		}
	}
	return nil
}
