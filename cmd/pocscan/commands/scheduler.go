package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/pocscan/internal/scheduler"
	"github.com/wonny/pocscan/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "정기 스캔 스케줄러",
	Long: `프리셋별 스캔 작업을 cron 스케줄로 실행합니다.

스케줄은 SCAN_SCHEDULE (초 단위 포함 cron, 기본 장중 10분마다)이며
별도 지정이 없으면 Asia/Seoul 기준입니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록될 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/pocscan scheduler start
  go run ./cmd/pocscan scheduler start --preset standard --preset aggressive
  go run ./cmd/pocscan scheduler run poc_scan_standard`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록될 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

var schedulerPresets []string

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().StringSliceVar(&schedulerPresets, "preset", nil, "스캔할 프리셋 (반복 가능, 기본값: default 프리셋)")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== POC Scanner Scheduler ===")

	sched, a, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next, _ := sched.NextRun(jobName)
		fmt.Printf("  - %s (next: %s)\n", jobName, next.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	printJobStats(sched)
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, a, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	stats := sched.GetJobStats()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s  [%s]\n", jobName, stats[jobName].Schedule)
	}

	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	sched, a, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	fmt.Printf("Running job: %s\n", jobName)

	result, err := sched.RunJob(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}
	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %s: %s", jobName, result.Duration.Round(time.Millisecond), result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}

	PrintSuccess(fmt.Sprintf("%s completed in %s", jobName, result.Duration.Round(time.Millisecond)))
	if latest, err := a.service.Latest(context.Background()); err == nil {
		printScanResult(latest)
	}
	return nil
}

func printJobStats(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Println()
	fmt.Println("Job Statistics:")
	for _, jobName := range sched.GetAllJobs() {
		stat := stats[jobName]
		fmt.Printf("📊 %s\n", jobName)
		PrintKeyValue("Schedule", stat.Schedule, 10)
		PrintKeyValue("Runs", fmt.Sprintf("%d (success %.1f%%)", stat.TotalRuns, stat.SuccessRate*100), 10)
		if stat.LastRun != nil {
			PrintKeyValue("Last Run", stat.LastRun.Format("2006-01-02 15:04:05"), 10)
		}
		if stat.LastFailure != nil {
			PrintKeyValue("Last Fail", stat.LastFailure.Format("2006-01-02 15:04:05"), 10)
		}

		history, err := sched.GetJobHistory(jobName)
		if err != nil {
			continue
		}
		for _, line := range recentResultLines(history, recentResultCount) {
			fmt.Println("    " + line)
		}
	}
}

// 종료 시 작업별로 보여줄 최근 실행 수
const recentResultCount = 5

// recentResultLines renders the latest n results, newest first
func recentResultLines(history *scheduler.JobHistory, n int) []string {
	results := history.GetLatestResults(n)
	lines := make([]string, 0, len(results))
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		line := fmt.Sprintf("%s %s  %s  시도 %d회",
			statusMark(r.Success), r.StartTime.Format("15:04:05"), r.Duration.Round(time.Millisecond), r.Attempts)
		if r.Error != "" {
			line += "  " + r.Error
		}
		lines = append(lines, line)
	}
	return lines
}

func statusMark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

// initScheduler registers one scan job per requested preset
func initScheduler() (*scheduler.Scheduler, *app, error) {
	a, err := newApp(context.Background(), "")
	if err != nil {
		return nil, nil, err
	}

	presets := schedulerPresets
	if len(presets) == 0 {
		presets = []string{a.presets.Default}
	}

	sched := scheduler.New(a.log, scheduler.DefaultOptions())
	for _, name := range presets {
		job, err := jobs.NewScanJob(a.service, a.presets, name, a.cfg.Scan.Schedule, a.log)
		if err == nil {
			err = sched.AddJob(job)
		}
		if err != nil {
			a.Close()
			return nil, nil, fmt.Errorf("preset %s: %w", name, err)
		}
	}

	return sched, a, nil
}
