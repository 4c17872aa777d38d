package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fscore/internal/api"
	"github.com/wonny/fscore/internal/api/handlers"
)

var (
	servePort          string
	serveWithScheduler bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "결과 조회 API 서버 시작",
	Long: `스크리닝 결과 파일과 실시간 진행 상황을 제공하는 API 서버를 시작합니다.

Endpoints:
  GET  /health                - Health check
  GET  /api/results           - 결과 파일 목록
  GET  /api/results/{name}    - 결과 파일 내용 (?limit=N)
  GET  /api/progress          - 스캔 진행 스냅샷
  GET  /ws/progress           - 스캔 진행 websocket 스트림
  GET  /api/jobs              - 스케줄 작업 상태 (--with-scheduler)

Example:
  go run ./cmd/quant serve
  go run ./cmd/quant serve --port 8080 --with-scheduler`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본: PORT 환경변수)")
	serveCmd.Flags().BoolVar(&serveWithScheduler, "with-scheduler", false, "정기 스크리닝 스케줄러 함께 실행")
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Println("=== F-Score Results API ===")

	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	hub := handlers.NewProgressHub(a.log)
	defer hub.Close()
	results := handlers.NewResultsHandler(a.cfg.Scan.OutputDir, a.log)

	var jobs api.JobStatsSource
	if serveWithScheduler {
		s, err := a.buildScheduler(ctx, hub)
		if err != nil {
			return err
		}
		s.Start()
		defer s.Stop()
		jobs = s
	}

	server := api.New(a.cfg, a.log, api.NewRouter(results, hub, jobs, a.log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
