package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/internal/scanconfig"
	"github.com/wonny/pocscan/pkg/logger"
)

// MarketTimezone 장 시간 기준 (KRX)
const MarketTimezone = "Asia/Seoul"

// ScanRunner runs one scan; scan.Service persists and publishes the result
type ScanRunner interface {
	Run(ctx context.Context, cond contracts.ScanConditions) (*contracts.ScanResult, error)
}

// ScanJob runs a preset scan on a cron schedule
// ⭐ SSOT: 정기 스캔 스케줄은 이 Job에서만
type ScanJob struct {
	runner   ScanRunner
	presets  *scanconfig.Config
	preset   string
	schedule string
	logger   *logger.Logger
}

// NewScanJob creates a scan job; preset "" uses the presets file default
func NewScanJob(runner ScanRunner, presets *scanconfig.Config, preset, schedule string, log *logger.Logger) (*ScanJob, error) {
	if _, err := presets.Preset(preset); err != nil {
		return nil, err
	}
	if strings.TrimSpace(schedule) == "" {
		return nil, fmt.Errorf("scan job: empty schedule")
	}

	return &ScanJob{
		runner:   runner,
		presets:  presets,
		preset:   preset,
		schedule: schedule,
		logger:   log.Component("scan_job"),
	}, nil
}

// Name returns the job name
func (j *ScanJob) Name() string {
	if j.preset == "" {
		return "poc_scan"
	}
	return "poc_scan_" + j.preset
}

// Schedule returns the cron schedule, evaluated in market time unless a zone is given
func (j *ScanJob) Schedule() string {
	if strings.HasPrefix(j.schedule, "CRON_TZ=") || strings.HasPrefix(j.schedule, "TZ=") {
		return j.schedule
	}
	return "CRON_TZ=" + MarketTimezone + " " + j.schedule
}

// Run executes one scan with the preset conditions
func (j *ScanJob) Run(ctx context.Context) error {
	cond, err := j.presets.Preset(j.preset)
	if err != nil {
		return err
	}

	result, err := j.runner.Run(ctx, cond)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	buy, sell := result.Count()
	j.logger.WithFields(map[string]interface{}{
		"source":    result.DataSource,
		"scanned":   result.TotalScanned,
		"buy":       buy,
		"sell":      sell,
		"evaluated": result.Stats.Evaluated,
		"skipped":   result.Stats.Skipped,
		"failed":    result.Stats.Failed,
	}).Info("Scheduled scan completed")

	return nil
}
