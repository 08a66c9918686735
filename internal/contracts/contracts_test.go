package contracts

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultScanConditions(t *testing.T) {
	c := DefaultScanConditions()

	assert.Equal(t, 2.0, c.POCTolerancePct)
	assert.Equal(t, 1.0, c.BounceStrengthPct)
	assert.Equal(t, 1.5, c.VolumeMultiplier)
	assert.Equal(t, 5000.0, c.MinPrice)
	assert.Equal(t, 100000.0, c.MaxPrice)
	assert.Equal(t, 1000.0, c.MinTradeValueMillions)
	assert.Equal(t, 1_000_000_000.0, c.MinTradeValue())
	require.NoError(t, c.Validate())
}

func TestScanConditions_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *ScanConditions)
	}{
		{"NaN tolerance", func(c *ScanConditions) { c.POCTolerancePct = math.NaN() }},
		{"infinite bounce", func(c *ScanConditions) { c.BounceStrengthPct = math.Inf(-1) }},
		{"negative multiplier", func(c *ScanConditions) { c.VolumeMultiplier = -1.5 }},
		{"zero multiplier", func(c *ScanConditions) { c.VolumeMultiplier = 0 }},
		{"NaN min price", func(c *ScanConditions) { c.MinPrice = math.NaN() }},
		{"infinite max price", func(c *ScanConditions) { c.MaxPrice = math.Inf(1) }},
		{"max below min", func(c *ScanConditions) { c.MinPrice, c.MaxPrice = 10000, 5000 }},
		{"negative trade value", func(c *ScanConditions) { c.MinTradeValueMillions = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultScanConditions()
			tt.mutate(&c)

			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConditions))
		})
	}
}

func TestScanConditions_SignedThresholdsAllowed(t *testing.T) {
	c := DefaultScanConditions()
	c.BounceStrengthPct = -5
	c.POCTolerancePct = -1

	assert.NoError(t, c.Validate())
}

func TestDailyBar_IsComplete(t *testing.T) {
	ok := DailyBar{Open: 100, High: 110, Low: 90, Close: 105, Volume: 0}
	assert.True(t, ok.IsComplete(), "zero volume is a valid (halted) day")

	missingClose := ok
	missingClose.Close = 0
	assert.False(t, missingClose.IsComplete())

	negativeVolume := ok
	negativeVolume.Volume = -1
	assert.False(t, negativeVolume.IsComplete())
}

func TestVolumeProfile_Aggregates(t *testing.T) {
	p := &VolumeProfile{
		POC: 10000,
		Buckets: []PriceBucket{
			{Price: 10200, Volume: 100},
			{Price: 10100, Volume: 200},
			{Price: 10000, Volume: 600},
		},
	}

	assert.Equal(t, int64(900), p.TotalVolume())
	assert.InDelta(t, 300.0, p.AverageVolume(), 1e-9)
	assert.Equal(t, []PriceBucket{{Price: 10200, Volume: 100}}, p.Top(1))
	assert.Len(t, p.Top(TopBucketCount), 3)

	empty := &VolumeProfile{}
	assert.Equal(t, 0.0, empty.AverageVolume())
}

func TestScanResult_Count(t *testing.T) {
	r := &ScanResult{Recommendations: []SignalResult{
		{Signal: SignalBuy},
		{Signal: SignalSell},
		{Signal: SignalBuy},
	}}

	buy, sell := r.Count()
	assert.Equal(t, 2, buy)
	assert.Equal(t, 1, sell)
}
