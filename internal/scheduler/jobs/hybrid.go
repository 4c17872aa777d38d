package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fscore/internal/hybrid"
	"github.com/wonny/fscore/pkg/logger"
)

// HybridRunner runs one hybrid pipeline
type HybridRunner interface {
	Run(ctx context.Context, cfg hybrid.RunConfig) (*hybrid.RunResult, error)
}

// HybridJob runs the full weekly screening
// ⭐ SSOT: 주간 하이브리드 스크리닝 스케줄은 이 Job에서만
type HybridJob struct {
	runner HybridRunner
	base   hybrid.RunConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewHybridJob creates the weekly job. base supplies every setting except date and run id.
func NewHybridJob(runner HybridRunner, base hybrid.RunConfig, log *logger.Logger) *HybridJob {
	return &HybridJob{
		runner: runner,
		base:   base,
		logger: log,
		now:    time.Now,
	}
}

// Name returns the job name
func (j *HybridJob) Name() string {
	return "hybrid_weekly"
}

// Schedule returns the cron schedule (Saturday 06:00 KST, after Friday's filings settle)
func (j *HybridJob) Schedule() string {
	return "0 0 6 * * 6"
}

// Run executes one screening
func (j *HybridJob) Run(ctx context.Context) error {
	cfg := j.base
	cfg.Date = j.now()
	cfg.RunID = hybrid.NewRunID()
	cfg.FromLite, cfg.FromFull = "", ""

	result, err := j.runner.Run(ctx, cfg)
	if err != nil {
		return fmt.Errorf("hybrid run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": result.RunID,
		"stage":  result.Stage,
		"empty":  result.Empty,
		"final":  len(result.Final),
	}).Info("Scheduled hybrid screening finished")
	return nil
}
