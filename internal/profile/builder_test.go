package profile

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pocscan/internal/contracts"
)

func bar(day int, close float64, volume int64) contracts.DailyBar {
	return contracts.DailyBar{
		Date:   time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC),
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Volume: volume,
	}
}

func TestBucketFloor(t *testing.T) {
	tests := []struct {
		close float64
		want  int64
	}{
		{10050, 10000},
		{10000, 10000},
		{10099.99, 10000},
		{10100, 10100},
		{99, 0},
		{72300, 72300},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketFloor(tt.close), "close=%v", tt.close)
	}
}

func TestBuild_GroupsClosesIntoBins(t *testing.T) {
	p := Build([]contracts.DailyBar{
		bar(1, 10050, 100),
		bar(2, 10080, 200),
		bar(3, 10120, 50),
	})
	require.NotNil(t, p)

	assert.Equal(t, int64(10000), p.POC)
	assert.Equal(t, []contracts.PriceBucket{
		{Price: 10100, Volume: 50},
		{Price: 10000, Volume: 300},
	}, p.Buckets)
}

func TestBuild_Empty(t *testing.T) {
	assert.Nil(t, Build(nil))
	assert.Nil(t, Build([]contracts.DailyBar{}))

	incomplete := bar(1, 10050, 100)
	incomplete.Open = 0
	assert.Nil(t, Build([]contracts.DailyBar{incomplete}))
}

func TestBuild_DropsIncompleteBars(t *testing.T) {
	missingHigh := bar(2, 20000, 5000)
	missingHigh.High = 0

	p := Build([]contracts.DailyBar{bar(1, 10050, 100), missingHigh})
	require.NotNil(t, p)

	assert.Equal(t, int64(10000), p.POC)
	assert.Len(t, p.Buckets, 1)
}

func TestBuild_TieKeepsFirstSeenBucket(t *testing.T) {
	p := Build([]contracts.DailyBar{
		bar(1, 10250, 100),
		bar(2, 10050, 100),
		bar(3, 10450, 100),
	})
	require.NotNil(t, p)
	assert.Equal(t, int64(10200), p.POC)

	reversed := Build([]contracts.DailyBar{
		bar(1, 10450, 100),
		bar(2, 10050, 100),
		bar(3, 10250, 100),
	})
	require.NotNil(t, reversed)
	assert.Equal(t, int64(10400), reversed.POC)
}

func TestBuild_AllZeroVolumeStillHasPOC(t *testing.T) {
	p := Build([]contracts.DailyBar{bar(1, 5050, 0), bar(2, 5150, 0)})
	require.NotNil(t, p)
	assert.Equal(t, int64(5000), p.POC)
}

func TestBuild_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		n := 1 + rng.Intn(40)
		bars := make([]contracts.DailyBar, n)
		var total int64
		for i := range bars {
			close := 5000 + rng.Float64()*5000
			volume := rng.Int63n(1_000_000)
			bars[i] = bar(1+i%28, close, volume)
			total += volume
		}

		p := Build(bars)
		require.NotNil(t, p)

		var sum int64
		pocFound := false
		for i, b := range p.Buckets {
			sum += b.Volume
			if i > 0 {
				assert.Greater(t, p.Buckets[i-1].Price, b.Price, "buckets must be strictly descending")
			}
			if b.Price == p.POC {
				pocFound = true
			}
		}

		assert.Equal(t, total, sum)
		require.True(t, pocFound, "POC must be one of the buckets")
		for _, b := range p.Buckets {
			pocVolume := int64(0)
			for _, x := range p.Buckets {
				if x.Price == p.POC {
					pocVolume = x.Volume
				}
			}
			assert.LessOrEqual(t, b.Volume, pocVolume)
		}
	}
}
