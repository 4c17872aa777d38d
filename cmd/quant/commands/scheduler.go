package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fscore/internal/scan"
	"github.com/wonny/fscore/internal/scheduler"
	"github.com/wonny/fscore/internal/scheduler/jobs"
	"github.com/wonny/fscore/internal/timing"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 스크리닝 스케줄러를 시작하거나 작업을 관리합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/quant scheduler start
  go run ./cmd/quant scheduler list
  go run ./cmd/quant scheduler run timing_daily`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다 (Asia/Seoul 기준).

등록되는 작업:
- hybrid_weekly: 매주 토요일 오전 6시 (하이브리드 F-Score 스크리닝)
- timing_daily: 평일 오후 4시 30분 (최신 결과 매수 타이밍 분석)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// buildScheduler registers the screening jobs. Extra reporters receive scan progress (e.g. websocket hub).
func (a *app) buildScheduler(ctx context.Context, extra ...scan.Reporter) (*scheduler.Scheduler, error) {
	if err := a.cfg.RequireDART(); err != nil {
		return nil, err
	}

	orch, err := a.orchestrator(ctx, true, true, extra...)
	if err != nil {
		return nil, err
	}

	notifier := a.notifier(true)
	batch := timing.NewBatch(a.naver, a.reporter(extra...), a.log)

	s := scheduler.New(a.log)
	for _, job := range []scheduler.Job{
		jobs.NewHybridJob(orch, a.runConfig(), a.log),
		jobs.NewTimingJob(batch, notifier, a.timingConfig(), a.log),
	} {
		if err := s.AddJob(job); err != nil {
			return nil, fmt.Errorf("register %s: %w", job.Name(), err)
		}
	}
	return s, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== F-Score Scheduler ===")

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.buildScheduler(ctx)
	if err != nil {
		return err
	}

	s.Start()
	printJobs(s)
	fmt.Println("\n✅ Scheduler started. Press Ctrl+C to stop")

	<-ctx.Done()

	a.log.Info("Stopping scheduler...")
	s.Stop()
	a.log.Info("Scheduler stopped")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.buildScheduler(ctx)
	if err != nil {
		return err
	}

	printJobs(s)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := a.buildScheduler(ctx)
	if err != nil {
		return err
	}

	// RunJob은 스케줄러 컨텍스트에서 실행되므로 Ctrl+C 시 Stop으로 취소
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	name := args[0]
	fmt.Printf("Running job: %s\n", name)
	result, err := s.RunJob(name)
	if err != nil {
		return err
	}

	if !result.Success {
		return fmt.Errorf("job %s failed after %d attempt(s): %s", name, result.Attempts, result.Error)
	}
	fmt.Printf("✅ %s completed in %s\n", name, result.Duration.Round(time.Second))
	return nil
}

func printJobs(s *scheduler.Scheduler) {
	stats := s.Stats()
	rows := make([][]string, 0, len(stats))
	for _, name := range s.Jobs() {
		st := stats[name]
		next := "-"
		if st.NextRun != nil && !st.NextRun.IsZero() {
			next = st.NextRun.Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{name, st.Schedule, next, fmt.Sprintf("%d", st.TotalRuns)})
	}

	fmt.Fprintln(os.Stdout, "\n📅 등록된 작업")
	PrintTable(os.Stdout, []string{"작업", "스케줄", "다음 실행", "실행 횟수"}, []int{14, 16, 16, 8}, rows)
}
