package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pocscan/internal/api"
	"github.com/wonny/pocscan/internal/api/handlers"
	"github.com/wonny/pocscan/internal/scheduler"
	"github.com/wonny/pocscan/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health               - Health check
  GET  /api/scan             - 스캔 실행 (쿼리로 조건 지정)
  POST /api/scan             - 스캔 실행 (JSON 본문으로 조건 지정)
  GET  /api/scans/latest     - 마지막 스캔 결과
  GET  /api/scans            - 스캔 이력 (DATABASE_URL 필요)
  GET  /api/universe         - 스캔 대상 종목
  GET  /api/presets          - 조건 프리셋
  GET  /ws/scans             - 스캔 결과 실시간 푸시 (websocket)

Example:
  go run ./cmd/pocscan api
  go run ./cmd/pocscan api --port 8080 --scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiScheduler bool
	apiPreset    string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본값 PORT)")
	apiCmd.Flags().BoolVar(&apiScheduler, "scheduler", false, "SCAN_SCHEDULE에 따라 정기 스캔 실행")
	apiCmd.Flags().StringVar(&apiPreset, "preset", "", "정기 스캔 프리셋")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== POC Scanner API Server ===")

	a, err := newApp(context.Background(), "")
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log

	hub := api.NewHub(log)
	a.service.AddPublisher(hub)

	var runs handlers.RunLister
	if a.repo != nil {
		runs = a.repo
	}
	scanHandler := handlers.NewScanHandler(a.service, a.presets, runs, log)
	router := api.NewRouter(scanHandler, hub, log)
	server := api.New(a.cfg, log, router)

	var sched *scheduler.Scheduler
	if apiScheduler {
		sched = scheduler.New(log, scheduler.DefaultOptions())
		job, err := jobs.NewScanJob(a.service, a.presets, apiPreset, a.cfg.Scan.Schedule, log)
		if err != nil {
			return fmt.Errorf("scan job: %w", err)
		}
		if err := sched.AddJob(job); err != nil {
			return err
		}
		sched.Start()
	}

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s (source: %s)\n", a.cfg.Port, a.service.SourceName())
	if sched != nil {
		fmt.Printf("   Scheduled scan: %s\n", a.cfg.Scan.Schedule)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
