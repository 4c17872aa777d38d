package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fscore/internal/hybrid"
)

// scan flags shared by hybrid and lite (0/"" = 프로파일 또는 환경 설정 사용)
var (
	maxCountFlag int
	topNFlag     int
	minScoreFlag int
	workersFlag  int
	yearFlag     int
	resumeFlag   bool
	fromLiteFlag string
	fromFullFlag string
	notifyFlag   bool
)

// hybridCmd runs the full screening pipeline
var hybridCmd = &cobra.Command{
	Use:   "hybrid",
	Short: "하이브리드 F-Score 스크리닝 (Lite 전체 → 섹터 보정 → Full 상위 N)",
	Long: `Lite F-Score로 전체 종목을 스캔하고 섹터 상대강도로 보정한 뒤,
상위 N종목만 DART 공시 기반 Full F-Score로 재평가합니다.

단계:
  1. LiteScan             FnGuide 6항목 점수
  2. SectorAdjustLite     KRX 섹터 중앙값(ROA, 영업이익률, 자산회전율, 부채비율) 대비 상대강도 가산
  3. SelectTopN           보정 점수 상위 N종목
  4. FullScan             DART 3항목 추가 (9점 만점)
  5. AttachSectorContext  Lite 단계의 섹터 컨텍스트를 그대로 부착 (중앙값 재계산 없음)
  6. RankFull             보정 점수 기준 순위
  7. FilterFinal          최종 최소 점수 필터

Examples:
  go run ./cmd/quant hybrid
  go run ./cmd/quant hybrid --top-n 100 --min-score 6
  go run ./cmd/quant hybrid --resume
  go run ./cmd/quant hybrid --from-lite output/hybrid_lite_results_20240315.csv
  go run ./cmd/quant hybrid --from-full output/hybrid_full_results_20240315.csv --min-score 8`,
	RunE: runHybrid,
}

func init() {
	bindScanFlags(hybridCmd)
	hybridCmd.Flags().IntVar(&topNFlag, "top-n", 0, "Full 스캔 대상 상위 종목 수")
	hybridCmd.Flags().IntVar(&minScoreFlag, "min-score", 0, "최종 선정 최소 Full 점수 (0-9)")
	hybridCmd.Flags().IntVar(&yearFlag, "year", 0, "DART 사업연도 (기본: 전년도)")
	hybridCmd.Flags().StringVar(&fromLiteFlag, "from-lite", "", "Lite 결과 파일에서 재시작")
	hybridCmd.Flags().StringVar(&fromFullFlag, "from-full", "", "Full 결과 파일에서 재시작")
	hybridCmd.Flags().BoolVar(&notifyFlag, "notify", false, "완료 후 텔레그램 알림")
	rootCmd.AddCommand(hybridCmd)
}

// bindScanFlags registers flags common to scan commands
func bindScanFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&maxCountFlag, "max-count", 0, "Lite 스캔 최대 종목 수 (0 = 전체)")
	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Lite 동시 워커 수")
	cmd.Flags().BoolVar(&resumeFlag, "resume", false, "오늘자 Lite 체크포인트에서 이어서 실행")
}

// applyScanFlags overrides profile settings with flags the user actually set
func applyScanFlags(cmd *cobra.Command, cfg *hybrid.RunConfig) {
	flags := cmd.Flags()
	if flags.Changed("max-count") {
		cfg.LiteMaxCount = maxCountFlag
	}
	if flags.Changed("workers") {
		cfg.LiteWorkers = workersFlag
	}
	if flags.Changed("resume") {
		cfg.LiteCheckpoint = resumeFlag
	}
	if flags.Changed("top-n") {
		cfg.TopN = topNFlag
	}
	if flags.Changed("min-score") {
		cfg.FinalMinScore = minScoreFlag
	}
	if flags.Changed("year") {
		cfg.FiscalYear = yearFlag
	}
}

func runHybrid(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.runConfig()
	applyScanFlags(cmd, &cfg)
	cfg.Date = time.Now()
	cfg.RunID = hybrid.NewRunID()
	cfg.FromLite = fromLiteFlag
	cfg.FromFull = fromFullFlag

	// Full 결과에서 재시작하면 DART를 호출하지 않음
	if cfg.FromFull == "" {
		if err := a.cfg.RequireDART(); err != nil {
			return err
		}
	}

	orch, err := a.orchestrator(ctx, true, notifyFlag)
	if err != nil {
		return err
	}

	result, err := orch.Run(ctx, cfg)
	if err != nil {
		return fmt.Errorf("hybrid run failed: %w", err)
	}

	PrintRunSummary(os.Stdout, result, cfg.TopN)
	if ctx.Err() != nil {
		fmt.Fprintln(os.Stdout, "\n⚠️  중단됨: 부분 결과만 저장되었습니다")
	}
	return nil
}
