package scan

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/pkg/logger"
)

// Default reporting cadence
const (
	DefaultReportEvery    = 10
	DefaultReportInterval = time.Second
)

// Task scores one candidate. A returned error drops the candidate from the results.
type Task[T any] func(ctx context.Context, c contracts.Candidate) (T, error)

// Options configures one scan
type Options struct {
	Label       string
	Workers     int
	MaxCount    int           // 0 = 전체
	TaskTimeout time.Duration // 0 = 제한 없음

	// 진행 보고: N건 완료 또는 interval 경과 중 먼저 오는 쪽
	ReportEvery    int
	ReportInterval time.Duration
}

// Outcome is one finished task, delivered to the completion hook
type Outcome[T any] struct {
	Candidate contracts.Candidate
	Result    T
	Err       error
	Duration  time.Duration
}

// Runner drives a bounded worker pool over a candidate list.
// ⭐ SSOT: Lite/Full/타이밍 병렬 스캔은 모두 이 Runner로 실행
type Runner[T any] struct {
	logger     *logger.Logger
	reporter   Reporter
	onComplete func(Outcome[T])
	now        func() time.Time
}

// NewRunner creates a runner reporting to reporter (nil = no progress output)
func NewRunner[T any](log *logger.Logger, reporter Reporter) *Runner[T] {
	return &Runner[T]{
		logger:   log.WithComponent("scan"),
		reporter: reporter,
		now:      time.Now,
	}
}

// OnComplete registers a hook called once per finished task, from the collecting goroutine
func (r *Runner[T]) OnComplete(fn func(Outcome[T])) *Runner[T] {
	r.onComplete = fn
	return r
}

// Run scores every candidate and returns the successful results in completion order.
// 개별 종목 실패는 집계만 하고 스캔을 중단하지 않음. ctx 취소 시 미배정 종목은 건너뜀
func (r *Runner[T]) Run(ctx context.Context, candidates []contracts.Candidate, task Task[T], opts Options) ([]T, Progress) {
	opts = withDefaults(opts)

	if opts.MaxCount > 0 && len(candidates) > opts.MaxCount {
		candidates = candidates[:opts.MaxCount]
	}

	started := r.now()
	progress := Progress{Label: opts.Label, Total: len(candidates)}

	if len(candidates) == 0 {
		r.logger.WithField("label", opts.Label).Warn("No candidates to scan")
		progress.Done = true
		r.report(progress)
		return []T{}, progress
	}

	workers := opts.Workers
	if workers > len(candidates) {
		workers = len(candidates)
	}

	r.logger.WithFields(map[string]interface{}{
		"label":      opts.Label,
		"candidates": len(candidates),
		"workers":    workers,
	}).Info("Starting scan")

	candidateCh := make(chan contracts.Candidate)
	outcomeCh := make(chan Outcome[T], workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range candidateCh {
				outcomeCh <- r.runTask(ctx, c, task, opts.TaskTimeout)
			}
		}()
	}

	// 배정: ctx 취소 시 중단
	go func() {
		defer close(candidateCh)
		for _, c := range candidates {
			select {
			case candidateCh <- c:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomeCh)
	}()

	ticker := time.NewTicker(opts.ReportInterval)
	defer ticker.Stop()

	results := make([]T, 0, len(candidates))
	sinceReport := 0

	for {
		select {
		case out, ok := <-outcomeCh:
			if !ok {
				progress = estimate(progress, started, r.now())
				progress.Done = true
				r.report(progress)
				return results, progress
			}

			progress.Completed++
			if out.Err != nil {
				progress.Failed++
				r.logger.WithStock(out.Candidate.Code).WithError(out.Err).Debug("Scan task failed")
			} else {
				progress.Success++
				results = append(results, out.Result)
			}

			if r.onComplete != nil {
				r.onComplete(out)
			}

			sinceReport++
			if sinceReport >= opts.ReportEvery {
				sinceReport = 0
				r.report(estimate(progress, started, r.now()))
			}

		case <-ticker.C:
			if sinceReport > 0 {
				sinceReport = 0
				r.report(estimate(progress, started, r.now()))
			}
		}
	}
}

func (r *Runner[T]) report(p Progress) {
	if r.reporter != nil {
		r.reporter.Report(p)
	}
}

// runTask executes one task under the per-task ceiling.
// 시간 초과 시 작업 고루틴은 버려지고 결과 채널(버퍼 1)로 정리됨
func (r *Runner[T]) runTask(ctx context.Context, c contracts.Candidate, task Task[T], timeout time.Duration) Outcome[T] {
	start := r.now()
	out := Outcome[T]{Candidate: c}

	taskCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				r.logger.WithStock(c.Code).WithField("stack", string(debug.Stack())).Error("Scan task panicked")
				done <- result{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		v, err := task(taskCtx, c)
		done <- result{value: v, err: err}
	}()

	select {
	case res := <-done:
		out.Result, out.Err = res.value, res.err
		if out.Err != nil && ctx.Err() == nil && errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
			out.Err = fmt.Errorf("%w after %s: %v", contracts.ErrTaskTimeout, timeout, out.Err)
		}
	case <-taskCtx.Done():
		if ctx.Err() != nil {
			out.Err = ctx.Err()
		} else {
			out.Err = fmt.Errorf("%w after %s", contracts.ErrTaskTimeout, timeout)
		}
	}

	out.Duration = r.now().Sub(start)
	return out
}

func withDefaults(opts Options) Options {
	if opts.Label == "" {
		opts.Label = "scan"
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.ReportEvery <= 0 {
		opts.ReportEvery = DefaultReportEvery
	}
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = DefaultReportInterval
	}
	return opts
}
