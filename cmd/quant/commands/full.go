package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/internal/fscore"
	"github.com/wonny/fscore/internal/scan"
)

var fullYearFlag int

// fullCmd scores specific securities with the Full engine
var fullCmd = &cobra.Command{
	Use:   "full <code>...",
	Short: "지정 종목 Full F-Score (9항목) 계산",
	Long: `지정한 종목의 Full F-Score를 계산하고 항목별 근거를 표시합니다.
DART_API_KEY가 필요합니다.

Examples:
  go run ./cmd/quant full 005930
  go run ./cmd/quant full 005930 000660 --year 2023`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFull,
}

func init() {
	fullCmd.Flags().IntVar(&fullYearFlag, "year", 0, "DART 사업연도 (기본: 전년도)")
	rootCmd.AddCommand(fullCmd)
}

func runFull(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cfg.RequireDART(); err != nil {
		return err
	}

	registry := a.registry()
	if err := registry.Prepare(ctx); err != nil {
		return err
	}
	engine := fscore.NewFullEngine(a.liteEngine(), registry, a.log)

	year := a.settings.FiscalYear
	if cmd.Flags().Changed("year") {
		year = fullYearFlag
	}

	candidates := make([]contracts.Candidate, 0, len(args))
	for _, code := range args {
		candidates = append(candidates, contracts.Candidate{Code: contracts.NormalizeCode(code)})
	}

	failures := make(map[string]error)
	runner := scan.NewRunner[contracts.ScoreResult](a.log, scan.NewLogReporter(a.log)).
		OnComplete(func(out scan.Outcome[contracts.ScoreResult]) {
			if out.Err != nil {
				failures[out.Candidate.Code] = out.Err
			}
		})

	results, _ := runner.Run(ctx, candidates, engine.CandidateScorer(year), scan.Options{
		Label:       "Full",
		Workers:     a.settings.FullWorkers,
		TaskTimeout: a.cfg.Scan.TaskTimeout,
	})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > 0 && results[0].Full != nil {
		fmt.Fprintf(os.Stdout, "\n📅 사업연도 %d 기준\n", results[0].Full.FiscalYear)
	}
	for _, r := range results {
		PrintFullDetail(os.Stdout, r)
	}
	for _, c := range candidates {
		if err, ok := failures[c.Code]; ok {
			fmt.Fprintf(os.Stdout, "\n❌ %s: %v\n", c.Code, err)
		}
	}

	if len(results) == 0 {
		return fmt.Errorf("no security could be scored")
	}
	return nil
}
