package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fscore/internal/hybrid"
)

const liteTopDisplay = 30

// liteCmd runs the Lite scan and sector adjustment only
var liteCmd = &cobra.Command{
	Use:   "lite",
	Short: "Lite F-Score 전체 스캔 + 섹터 보정",
	Long: `FnGuide 재무 데이터로 Lite F-Score(6점 만점)를 계산하고
KRX 섹터 ROA 중앙값 대비 상대강도로 보정합니다. DART 키가 필요 없습니다.

Examples:
  go run ./cmd/quant lite
  go run ./cmd/quant lite --max-count 300 --workers 10
  go run ./cmd/quant lite --resume --progress log`,
	RunE: runLite,
}

func init() {
	bindScanFlags(liteCmd)
	rootCmd.AddCommand(liteCmd)
}

func runLite(cmd *cobra.Command, args []string) error {
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

	orch, err := a.orchestrator(ctx, false, false)
	if err != nil {
		return err
	}

	result, err := orch.RunLite(ctx, cfg)
	if err != nil {
		return fmt.Errorf("lite run failed: %w", err)
	}

	PrintRunSummary(os.Stdout, result, liteTopDisplay)
	return nil
}
