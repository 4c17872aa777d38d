package hybrid

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/fscore/internal/checkpoint"
	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/internal/report"
	"github.com/wonny/fscore/internal/scan"
	"github.com/wonny/fscore/internal/sector"
	"github.com/wonny/fscore/internal/universe"
	"github.com/wonny/fscore/pkg/logger"
)

// Stage is one step of the hybrid pipeline. Stages run strictly in order.
type Stage string

const (
	StageInit                Stage = "Init"
	StageLiteScan            Stage = "LiteScan"
	StageSectorAdjustLite    Stage = "SectorAdjustLite"
	StageSelectTopN          Stage = "SelectTopN"
	StageFullScan            Stage = "FullScan"
	StageAttachSectorContext Stage = "AttachSectorContext"
	StageRankFull            Stage = "RankFull"
	StageFilterFinal         Stage = "FilterFinal"
	StageDone                Stage = "Done"
)

// ScoreTask scores one candidate
type ScoreTask = scan.Task[contracts.ScoreResult]

// Preparer performs a one-time load that must finish before Full workers start
type Preparer interface {
	Prepare(ctx context.Context) error
}

// SectorSource loads the run's sector snapshot. Must not fail.
type SectorSource interface {
	Load(ctx context.Context) *sector.Table
}

// Notifier delivers a run summary. Failures never fail the run.
type Notifier interface {
	NotifyRun(ctx context.Context, result *RunResult) error
}

// Dependencies wires the pipeline components
type Dependencies struct {
	Universe universe.Provider
	Lite     ScoreTask
	Full     func(fiscalYear int) ScoreTask
	Registry Preparer // optional
	Sectors  SectorSource
	Notifier Notifier      // optional
	Reporter scan.Reporter // optional
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	Date  time.Time
	RunID string

	LiteWorkers   int
	LiteMaxCount  int // 0 = 전체
	FullWorkers   int
	TopN          int
	FinalMinScore int
	FiscalYear    int // 0 = 전년도
	TaskTimeout   time.Duration

	OutputDir string

	// 재개 옵션
	FromLite           string // Lite 결과 파일에서 시작 (LiteScan, SectorAdjustLite 생략)
	FromFull           string // Full 결과 파일에서 시작 (FullScan, AttachSectorContext까지 생략)
	LiteCheckpoint     bool
	CheckpointInterval int
}

// RunResult holds the results of a hybrid run
type RunResult struct {
	RunID           string
	Date            time.Time
	Stage           Stage // 종료 시점 단계
	CompletedStages []Stage
	Empty           bool
	Reason          string

	Lite  []contracts.RankedResult
	Full  []contracts.RankedResult
	Final []contracts.RankedResult

	LiteProgress scan.Progress
	FullProgress scan.Progress

	Artifacts map[Stage]string
	Duration  time.Duration
}

func (r *RunResult) complete(stage Stage) {
	r.Stage = stage
	r.CompletedStages = append(r.CompletedStages, stage)
}

// Orchestrator runs Lite → sector adjustment → top-N → Full → final filter
// ⭐ SSOT: Hybrid 파이프라인 조율은 여기서만
type Orchestrator struct {
	deps   Dependencies
	logger *logger.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(deps Dependencies, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		deps:   deps,
		logger: log.WithComponent("hybrid"),
	}
}

// NewRunID generates a unique run ID
func NewRunID() string {
	return uuid.NewString()
}

// Run executes the pipeline. An empty Lite or Full stage ends the run cleanly with Empty set.
func (o *Orchestrator) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	startTime := time.Now()

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:     cfg.RunID,
		Date:      cfg.Date,
		Artifacts: make(map[Stage]string),
	}
	result.complete(StageInit)

	o.logger.WithFields(map[string]interface{}{
		"run_id":          cfg.RunID,
		"date":            cfg.Date.Format("2006-01-02"),
		"top_n":           cfg.TopN,
		"final_min_score": cfg.FinalMinScore,
		"from_lite":       cfg.FromLite,
		"from_full":       cfg.FromFull,
	}).Info("Starting hybrid run")

	defer func() {
		result.Duration = time.Since(startTime)
		o.logger.WithFields(map[string]interface{}{
			"run_id":   cfg.RunID,
			"stage":    result.Stage,
			"empty":    result.Empty,
			"final":    len(result.Final),
			"duration": result.Duration.Round(time.Second).String(),
		}).Info("Hybrid run finished")
	}()

	var fullRanked []contracts.RankedResult

	if cfg.FromFull != "" {
		loaded, err := loadRanked(cfg.FromFull)
		if err != nil {
			return result, fmt.Errorf("load full results: %w", err)
		}
		fullRanked = loaded
		o.logger.WithFields(map[string]interface{}{"path": cfg.FromFull, "rows": len(loaded)}).Info("Resuming from Full results")
	} else {
		liteRanked, ok, err := o.liteStages(ctx, cfg, result)
		if err != nil || !ok {
			return result, err
		}

		// SelectTopN
		top := sector.TopN(liteRanked, cfg.TopN)
		contexts := sector.ContextByCode(top)
		result.complete(StageSelectTopN)
		o.logger.WithFields(map[string]interface{}{
			"selected": len(top),
			"of":       len(liteRanked),
		}).Info("Top-N selected for Full scan")

		// FullScan
		fullResults := o.fullScan(ctx, cfg, top, result)
		if len(fullResults) == 0 {
			result.Stage = StageFullScan
			result.Empty = true
			result.Reason = "Full 스캔 결과 없음"
			o.logger.Warn("Full scan produced no results")
			return result, nil
		}
		result.complete(StageFullScan)

		// AttachSectorContext
		fullRanked = sector.AttachContext(fullResults, contexts)
		result.complete(StageAttachSectorContext)
	}

	// RankFull
	sector.Sort(fullRanked)
	result.Full = fullRanked
	if cfg.FromFull == "" {
		if err := o.persist(cfg, StageRankFull, report.PrefixFull, fullRanked, result); err != nil {
			return result, err
		}
	}
	result.complete(StageRankFull)

	// FilterFinal
	result.Final = FilterFinal(fullRanked, cfg.FinalMinScore)
	if err := o.persist(cfg, StageFilterFinal, report.PrefixFinal, result.Final, result); err != nil {
		return result, err
	}
	result.complete(StageFilterFinal)

	o.logger.WithFields(map[string]interface{}{
		"full":      len(fullRanked),
		"final":     len(result.Final),
		"min_score": cfg.FinalMinScore,
	}).Info("Final filter applied")

	result.complete(StageDone)
	o.notify(ctx, result)
	return result, nil
}

// RunLite executes only LiteScan and SectorAdjustLite (the lite command)
func (o *Orchestrator) RunLite(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	startTime := time.Now()
	cfg.FromLite, cfg.FromFull = "", ""
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	result := &RunResult{
		RunID:     cfg.RunID,
		Date:      cfg.Date,
		Artifacts: make(map[Stage]string),
	}
	result.complete(StageInit)

	_, _, err := o.liteStages(ctx, cfg, result)
	result.Duration = time.Since(startTime)
	if err != nil {
		return result, err
	}

	o.logger.WithFields(map[string]interface{}{
		"run_id":   cfg.RunID,
		"lite":     len(result.Lite),
		"empty":    result.Empty,
		"duration": result.Duration.Round(time.Second).String(),
	}).Info("Lite run finished")
	return result, nil
}

// liteStages runs LiteScan and SectorAdjustLite, or loads their output when resuming.
// ok=false means the run ended cleanly with no Lite results
func (o *Orchestrator) liteStages(ctx context.Context, cfg RunConfig, result *RunResult) ([]contracts.RankedResult, bool, error) {
	if cfg.FromLite != "" {
		loaded, err := loadRanked(cfg.FromLite)
		if err != nil {
			return nil, false, fmt.Errorf("load lite results: %w", err)
		}
		if len(loaded) == 0 {
			result.Stage = StageSelectTopN
			result.Empty = true
			result.Reason = "Lite 결과 파일이 비어 있음"
			return nil, false, nil
		}
		sector.Sort(loaded)
		result.Lite = loaded
		o.logger.WithFields(map[string]interface{}{"path": cfg.FromLite, "rows": len(loaded)}).Info("Resuming from Lite results")
		return loaded, true, nil
	}

	// LiteScan
	candidates, err := o.deps.Universe.Candidates(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("universe: %w", err)
	}

	liteResults, err := o.liteScan(ctx, cfg, candidates, result)
	if err != nil {
		return nil, false, err
	}
	if len(liteResults) == 0 {
		result.Stage = StageLiteScan
		result.Empty = true
		result.Reason = "Lite 스캔 결과 없음"
		o.logger.Warn("Lite scan produced no results")
		return nil, false, nil
	}
	result.complete(StageLiteScan)

	// SectorAdjustLite
	table := o.deps.Sectors.Load(ctx)
	liteRanked, _ := sector.Normalize(sector.Rank(liteResults), table)
	result.Lite = liteRanked
	if err := o.persist(cfg, StageSectorAdjustLite, report.PrefixLite, liteRanked, result); err != nil {
		return nil, false, err
	}
	result.complete(StageSectorAdjustLite)

	return liteRanked, true, nil
}

func (o *Orchestrator) liteScan(ctx context.Context, cfg RunConfig, candidates []contracts.Candidate, result *RunResult) ([]contracts.ScoreResult, error) {
	runner := scan.NewRunner[contracts.ScoreResult](o.logger, o.deps.Reporter)
	opts := scan.Options{
		Label:       "Lite F-Score",
		Workers:     cfg.LiteWorkers,
		MaxCount:    cfg.LiteMaxCount,
		TaskTimeout: cfg.TaskTimeout,
	}

	if !cfg.LiteCheckpoint {
		results, progress := runner.Run(ctx, candidates, o.deps.Lite, opts)
		result.LiteProgress = progress
		return results, nil
	}

	// 체크포인트 재개: 이미 처리된 종목 제외 후 나머지만 스캔
	if opts.MaxCount > 0 && len(candidates) > opts.MaxCount {
		candidates = candidates[:opts.MaxCount]
		opts.MaxCount = 0
	}

	ckpt := checkpoint.New(cfg.OutputDir, report.PrefixLiteCkpt, cfg.Date, cfg.CheckpointInterval,
		func(r *report.ResultRow) string { return r.Code }, o.logger)
	loaded, err := ckpt.Load()
	if err != nil {
		return nil, err
	}

	pending := ckpt.Pending(candidates)
	o.logger.WithFields(map[string]interface{}{
		"checkpointed": len(loaded),
		"pending":      len(pending),
	}).Info("Lite checkpoint resume")

	runner.OnComplete(func(out scan.Outcome[contracts.ScoreResult]) {
		if out.Err != nil {
			return
		}
		rows := report.FromRanked(contracts.Unranked([]contracts.ScoreResult{out.Result}))
		if err := ckpt.Add(rows[0]); err != nil {
			o.logger.WithError(err).Warn("Lite checkpoint save failed")
		}
	})

	_, progress := runner.Run(ctx, pending, o.deps.Lite, opts)
	result.LiteProgress = progress

	if err := ckpt.Flush(); err != nil {
		o.logger.WithError(err).Warn("Lite checkpoint flush failed")
	}
	result.Artifacts[StageLiteScan] = ckpt.Path()

	ranked := report.ToRanked(ckpt.RowsFor(candidates))
	results := make([]contracts.ScoreResult, len(ranked))
	for i := range ranked {
		results[i] = ranked[i].ScoreResult
	}
	return results, nil
}

func (o *Orchestrator) fullScan(ctx context.Context, cfg RunConfig, top []contracts.RankedResult, result *RunResult) []contracts.ScoreResult {
	// 식별자 테이블 로드는 워커 시작 전에 완료 (실패 시 추가 3개 항목만 판정 불가)
	if o.deps.Registry != nil {
		if err := o.deps.Registry.Prepare(ctx); err != nil {
			o.logger.WithError(err).Error("Registry preparation failed, additional checks will be indeterminate")
		}
	}

	candidates := make([]contracts.Candidate, len(top))
	for i, r := range top {
		candidates[i] = contracts.Candidate{Code: r.Code, Name: r.Name}
	}

	runner := scan.NewRunner[contracts.ScoreResult](o.logger, o.deps.Reporter)
	results, progress := runner.Run(ctx, candidates, o.deps.Full(cfg.FiscalYear), scan.Options{
		Label:       "Full F-Score",
		Workers:     cfg.FullWorkers,
		TaskTimeout: cfg.TaskTimeout,
	})
	result.FullProgress = progress
	return results
}

// FilterFinal keeps rows whose raw score reaches minScore and re-ranks them
func FilterFinal(ranked []contracts.RankedResult, minScore int) []contracts.RankedResult {
	final := make([]contracts.RankedResult, 0, len(ranked))
	for _, r := range ranked {
		if r.Score >= minScore {
			final = append(final, r)
		}
	}
	sector.Sort(final)
	return final
}

func (o *Orchestrator) persist(cfg RunConfig, stage Stage, prefix string, ranked []contracts.RankedResult, result *RunResult) error {
	path := report.ArtifactPath(cfg.OutputDir, prefix, cfg.Date)
	if err := report.WriteCSV(path, report.FromRanked(ranked)); err != nil {
		return fmt.Errorf("persist %s: %w", stage, err)
	}
	result.Artifacts[stage] = path
	o.logger.WithFields(map[string]interface{}{
		"stage": stage,
		"path":  path,
		"rows":  len(ranked),
	}).Info("Stage results saved")
	return nil
}

func (o *Orchestrator) notify(ctx context.Context, result *RunResult) {
	if o.deps.Notifier == nil {
		return
	}
	if err := o.deps.Notifier.NotifyRun(ctx, result); err != nil {
		o.logger.WithError(err).Warn("Notification failed")
	}
}

func loadRanked(path string) ([]contracts.RankedResult, error) {
	var rows []*report.ResultRow
	if err := report.ReadCSV(path, &rows); err != nil {
		return nil, err
	}
	return report.ToRanked(rows), nil
}

func validate(cfg *RunConfig) error {
	if cfg.Date.IsZero() {
		cfg.Date = time.Now()
	}
	if cfg.RunID == "" {
		cfg.RunID = NewRunID()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.TopN <= 0 {
		return fmt.Errorf("top-n must be positive, got %d", cfg.TopN)
	}
	if cfg.FinalMinScore < 0 || cfg.FinalMinScore > contracts.MaxFullScore {
		return fmt.Errorf("final min score must be within 0..%d, got %d", contracts.MaxFullScore, cfg.FinalMinScore)
	}
	return nil
}
