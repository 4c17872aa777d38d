package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fscore/internal/report"
	"github.com/wonny/fscore/internal/timing"
	"github.com/wonny/fscore/pkg/logger"
)

// TimingRunner runs one timing batch
type TimingRunner interface {
	Run(ctx context.Context, cfg timing.BatchConfig) (*timing.BatchResult, error)
}

// TimingNotifier delivers the batch summary
type TimingNotifier interface {
	NotifyTiming(ctx context.Context, result *timing.BatchResult) error
}

// TimingJob evaluates entry timing on the latest final screening after the close
type TimingJob struct {
	runner   TimingRunner
	notifier TimingNotifier // optional
	base     timing.BatchConfig
	logger   *logger.Logger
	now      func() time.Time
}

// NewTimingJob creates the daily timing job. Input is resolved on every run.
func NewTimingJob(runner TimingRunner, notifier TimingNotifier, base timing.BatchConfig, log *logger.Logger) *TimingJob {
	return &TimingJob{
		runner:   runner,
		notifier: notifier,
		base:     base,
		logger:   log,
		now:      time.Now,
	}
}

// Name returns the job name
func (j *TimingJob) Name() string {
	return "timing_daily"
}

// Schedule returns the cron schedule (weekdays 16:30 KST, after the close)
func (j *TimingJob) Schedule() string {
	return "0 30 16 * * 1-5"
}

// Run executes one batch over the newest hybrid_final artifact
func (j *TimingJob) Run(ctx context.Context) error {
	input, err := report.Latest(j.base.OutputDir, report.PrefixFinal)
	if err != nil {
		return fmt.Errorf("find screening results: %w", err)
	}

	cfg := j.base
	cfg.Date = j.now()
	cfg.Input = input

	result, err := j.runner.Run(ctx, cfg)
	if err != nil {
		return fmt.Errorf("timing batch: %w", err)
	}

	if j.notifier != nil {
		if err := j.notifier.NotifyTiming(ctx, result); err != nil {
			j.logger.WithError(err).Warn("Timing notification failed")
		}
	}
	return nil
}
