package timing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wonny/fscore/internal/checkpoint"
	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/internal/report"
	"github.com/wonny/fscore/internal/scan"
	"github.com/wonny/fscore/pkg/logger"
)

// Defaults for the timing batch
const (
	DefaultMinFScore = 5
	DefaultWorkers   = 5
	// 120 거래일 ≈ 175 달력일
	historyWindow = 175 * 24 * time.Hour
)

// PriceSource fetches daily bars (oldest first)
type PriceSource interface {
	FetchPrices(ctx context.Context, code string, from, to time.Time) ([]contracts.PriceBar, error)
}

// BatchConfig holds configuration for one timing batch
type BatchConfig struct {
	Date               time.Time
	Input              string // F-Score 결과 파일
	MinFScore          int
	Workers            int
	MaxCount           int
	TaskTimeout        time.Duration
	OutputDir          string
	CheckpointInterval int
}

// BatchResult holds the outcome of a timing batch
type BatchResult struct {
	Candidates int // F-Score 필터 통과 종목 수
	Results    []contracts.TimingResult
	Progress   scan.Progress
	Artifact   string
	Duration   time.Duration
}

// Batch evaluates entry timing for screened securities with checkpointing
// ⭐ SSOT: 타이밍 배치 실행
type Batch struct {
	prices   PriceSource
	reporter scan.Reporter
	logger   *logger.Logger
}

// NewBatch creates a timing batch
func NewBatch(prices PriceSource, reporter scan.Reporter, log *logger.Logger) *Batch {
	return &Batch{
		prices:   prices,
		reporter: reporter,
		logger:   log.WithComponent("timing"),
	}
}

// Run evaluates every input row with score ≥ MinFScore that is not already checkpointed.
// 체크포인트 파일이 최종 결과 파일
func (b *Batch) Run(ctx context.Context, cfg BatchConfig) (*BatchResult, error) {
	startTime := time.Now()
	if cfg.Date.IsZero() {
		cfg.Date = time.Now()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}

	screened, err := LoadScreened(cfg.Input, cfg.MinFScore)
	if err != nil {
		return nil, err
	}

	candidates := make([]contracts.Candidate, 0, len(screened))
	fscores := make(map[string]int, len(screened))
	for _, r := range screened {
		candidates = append(candidates, contracts.Candidate{Code: r.Code, Name: r.Name})
		fscores[r.Code] = r.Score
	}
	if cfg.MaxCount > 0 && len(candidates) > cfg.MaxCount {
		candidates = candidates[:cfg.MaxCount]
	}

	ckpt := checkpoint.New(cfg.OutputDir, report.PrefixTimingCkpt, cfg.Date, cfg.CheckpointInterval,
		func(r *report.TimingRow) string { return r.Code }, b.logger)
	loaded, err := ckpt.Load()
	if err != nil {
		return nil, err
	}
	pending := ckpt.Pending(candidates)

	b.logger.WithFields(map[string]interface{}{
		"input":        cfg.Input,
		"min_fscore":   cfg.MinFScore,
		"candidates":   len(candidates),
		"checkpointed": len(loaded),
		"pending":      len(pending),
	}).Info("Starting timing batch")

	runner := scan.NewRunner[contracts.TimingResult](b.logger, b.reporter)
	runner.OnComplete(func(out scan.Outcome[contracts.TimingResult]) {
		if out.Err != nil {
			b.logger.WithStock(out.Candidate.Code).WithError(out.Err).Debug("Timing evaluation failed")
			return
		}
		if err := ckpt.Add(report.FromTiming(out.Result)); err != nil {
			b.logger.WithError(err).Warn("Timing checkpoint save failed")
		}
	})

	_, progress := runner.Run(ctx, pending, b.task(cfg.Date, fscores), scan.Options{
		Label:       "Timing",
		Workers:     cfg.Workers,
		TaskTimeout: cfg.TaskTimeout,
	})

	if err := ckpt.Flush(); err != nil {
		return nil, fmt.Errorf("flush timing checkpoint: %w", err)
	}

	rows := ckpt.RowsFor(candidates)
	results := make([]contracts.TimingResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.ToTiming())
	}
	SortByCombined(results)

	result := &BatchResult{
		Candidates: len(candidates),
		Results:    results,
		Progress:   progress,
		Artifact:   ckpt.Path(),
		Duration:   time.Since(startTime),
	}

	b.logger.WithFields(map[string]interface{}{
		"results":  len(results),
		"failed":   progress.Failed,
		"artifact": result.Artifact,
		"duration": result.Duration.Round(time.Second).String(),
	}).Info("Timing batch finished")

	return result, nil
}

func (b *Batch) task(date time.Time, fscores map[string]int) scan.Task[contracts.TimingResult] {
	return func(ctx context.Context, c contracts.Candidate) (contracts.TimingResult, error) {
		bars, err := b.prices.FetchPrices(ctx, c.Code, date.Add(-historyWindow), date)
		if err != nil {
			return contracts.TimingResult{}, err
		}
		return Analyze(c, fscores[c.Code], bars)
	}
}

// Analyze evaluates one security's price history
func Analyze(c contracts.Candidate, fscore int, bars []contracts.PriceBar) (contracts.TimingResult, error) {
	ind, err := Compute(bars)
	if err != nil {
		return contracts.TimingResult{}, err
	}
	eval := Evaluate(ind)

	return contracts.TimingResult{
		Code:          c.Code,
		Name:          c.Name,
		FScore:        fscore,
		TimingScore:   eval.Score,
		Rating:        eval.Rating,
		CombinedScore: Combined(fscore, eval.Score),
		Signals:       eval.Descriptions(),
		Close:         eval.Close,
		RSI:           eval.RSI,
		VolumeRatio:   eval.VolumeRatio,
	}, nil
}

// LoadScreened reads an F-Score artifact and keeps rows scoring at least minFScore, in file order
func LoadScreened(path string, minFScore int) ([]contracts.RankedResult, error) {
	var rows []*report.ResultRow
	if err := report.ReadCSV(path, &rows); err != nil {
		return nil, fmt.Errorf("read fscore results %s: %w", path, err)
	}

	var out []contracts.RankedResult
	for _, r := range report.ToRanked(rows) {
		if r.Score >= minFScore {
			out = append(out, r)
		}
	}
	return out, nil
}

// SortByCombined orders by combined score desc, then code asc
func SortByCombined(results []contracts.TimingResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		return results[i].Code < results[j].Code
	})
}
