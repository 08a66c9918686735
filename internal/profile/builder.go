package profile

import (
	"math"
	"sort"

	"github.com/wonny/pocscan/internal/contracts"
)

// BucketFloor maps a close price to the floor of its 100원 bin
func BucketFloor(close float64) int64 {
	return int64(math.Floor(close/contracts.BucketWidth)) * contracts.BucketWidth
}

// CompleteBars drops bars with a missing OHLCV field
func CompleteBars(bars []contracts.DailyBar) []contracts.DailyBar {
	out := make([]contracts.DailyBar, 0, len(bars))
	for _, b := range bars {
		if b.IsComplete() {
			out = append(out, b)
		}
	}
	return out
}

// Build aggregates daily volume by close-price bin and selects the POC.
// Returns nil when no complete bar is given.
//
// POC 동률: 봉 순서상 먼저 등장한 가격대가 유지됨
func Build(bars []contracts.DailyBar) *contracts.VolumeProfile {
	bars = CompleteBars(bars)
	if len(bars) == 0 {
		return nil
	}

	volumes := make(map[int64]int64)
	order := make([]int64, 0)
	for _, b := range bars {
		floor := BucketFloor(b.Close)
		if _, seen := volumes[floor]; !seen {
			order = append(order, floor)
		}
		volumes[floor] += b.Volume
	}

	poc := order[0]
	for _, price := range order[1:] {
		if volumes[price] > volumes[poc] {
			poc = price
		}
	}

	buckets := make([]contracts.PriceBucket, 0, len(order))
	for _, price := range order {
		buckets = append(buckets, contracts.PriceBucket{Price: price, Volume: volumes[price]})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Price > buckets[j].Price
	})

	return &contracts.VolumeProfile{
		POC:     poc,
		Buckets: buckets,
	}
}
