package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/internal/scanconfig"
	"github.com/wonny/pocscan/pkg/logger"
)

type fakeRunner struct {
	got []contracts.ScanConditions
	err error
}

func (f *fakeRunner) Run(_ context.Context, cond contracts.ScanConditions) (*contracts.ScanResult, error) {
	f.got = append(f.got, cond)
	if f.err != nil {
		return nil, f.err
	}
	return &contracts.ScanResult{Success: true, DataSource: "Fake", TotalScanned: 20, Conditions: cond}, nil
}

func presets() *scanconfig.Config {
	cfg := scanconfig.Builtin()
	loose := contracts.DefaultScanConditions()
	loose.VolumeMultiplier = 1.1
	cfg.Presets["loose"] = scanconfig.Preset{Conditions: loose}
	return cfg
}

func TestScanJob_RunUsesPreset(t *testing.T) {
	runner := &fakeRunner{}
	job, err := NewScanJob(runner, presets(), "loose", "0 */10 9-15 * * MON-FRI", logger.Nop())
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	require.Len(t, runner.got, 1)
	assert.Equal(t, 1.1, runner.got[0].VolumeMultiplier)
	assert.Equal(t, "poc_scan_loose", job.Name())
}

func TestScanJob_DefaultPreset(t *testing.T) {
	runner := &fakeRunner{}
	job, err := NewScanJob(runner, presets(), "", "@every 1m", logger.Nop())
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, contracts.DefaultScanConditions(), runner.got[0])
	assert.Equal(t, "poc_scan", job.Name())
}

func TestScanJob_Schedule(t *testing.T) {
	job, err := NewScanJob(&fakeRunner{}, presets(), "", "0 0 16 * * *", logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "CRON_TZ=Asia/Seoul 0 0 16 * * *", job.Schedule())

	job, err = NewScanJob(&fakeRunner{}, presets(), "", "CRON_TZ=UTC 0 0 7 * * *", logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "CRON_TZ=UTC 0 0 7 * * *", job.Schedule())
}

func TestScanJob_Errors(t *testing.T) {
	_, err := NewScanJob(&fakeRunner{}, presets(), "missing", "@hourly", logger.Nop())
	assert.Error(t, err)

	_, err = NewScanJob(&fakeRunner{}, presets(), "", "  ", logger.Nop())
	assert.Error(t, err)

	runner := &fakeRunner{err: contracts.ErrMissingCredentials}
	job, err := NewScanJob(runner, presets(), "", "@hourly", logger.Nop())
	require.NoError(t, err)
	err = job.Run(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrMissingCredentials))
}
