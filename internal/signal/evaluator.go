package signal

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"

	"github.com/wonny/pocscan/internal/contracts"
)

const (
	// 현재가가 POC 대비 이 비율 이상이면 지지 유지로 봄
	supportFloorRatio = 0.98
	// SELL: 현재가가 POC 위 1% 초과, 3% 이내
	resistanceFloorRatio = 1.01
	resistanceBandPct    = 3.0
	sellDropPct          = -1.0
	sellVolumeBoost      = 1.2

	buyBaseStrength  = 60.0
	sellBaseStrength = 50.0
	strengthPerPct   = 5.0
	maxStrengthBonus = 30.0
)

// Evaluate applies the price, trade value and volume gates and then the
// BUY/SELL rules. Returns nil when a gate fails or no rule fires.
// Both rules run unconditionally; SELL replaces a BUY verdict.
func Evaluate(inst contracts.Instrument, quote *contracts.Quote, vp *contracts.VolumeProfile, cond contracts.ScanConditions) *contracts.SignalResult {
	if quote == nil || vp == nil || len(vp.Buckets) == 0 || vp.POC <= 0 {
		return nil
	}

	price := quote.CurrentPrice
	if price < cond.MinPrice || price > cond.MaxPrice {
		return nil
	}

	if quote.TradeValue < cond.MinTradeValue() {
		return nil
	}

	avgVolume := vp.AverageVolume()
	if avgVolume <= 0 {
		return nil
	}
	volumeRatio := float64(quote.Volume) / avgVolume
	if volumeRatio < cond.VolumeMultiplier {
		return nil
	}

	poc := float64(vp.POC)
	diffPct := math.Abs((price - poc) / poc * 100)
	change := quote.PriceChangePct

	var (
		verdict  contracts.SignalType
		reasons  []string
		strength float64
	)

	if diffPct <= cond.POCTolerancePct && price >= poc*supportFloorRatio && change > cond.BounceStrengthPct {
		verdict = contracts.SignalBuy
		reasons = []string{
			fmt.Sprintf("POC(%s원) 지지 후 %.2f%% 반등", humanize.Comma(vp.POC), change),
			fmt.Sprintf("거래량 평균 대비 %.2f배 증가", volumeRatio),
		}
		strength = buyBaseStrength + math.Min(change*strengthPerPct, maxStrengthBonus)
	}

	if price > poc*resistanceFloorRatio && diffPct <= resistanceBandPct &&
		change < sellDropPct && volumeRatio > cond.VolumeMultiplier*sellVolumeBoost {
		verdict = contracts.SignalSell
		reasons = []string{
			fmt.Sprintf("POC 저항선에서 %.2f%% 하락", math.Abs(change)),
			"고거래량 동반 저항",
		}
		strength = sellBaseStrength + math.Min(math.Abs(change)*strengthPerPct, maxStrengthBonus)
	}

	if verdict == "" {
		return nil
	}

	return &contracts.SignalResult{
		Instrument:         inst,
		Signal:             verdict,
		CurrentPrice:       price,
		POC:                vp.POC,
		PriceChangePct:     change,
		Volume:             quote.Volume,
		AvgVolume:          int64(math.Round(avgVolume)),
		VolumeRatio:        volumeRatio,
		TradeValueMillions: int64(math.Round(quote.TradeValue / 1_000_000)),
		Reasons:            reasons,
		SignalStrength:     strength,
		TopBuckets:         vp.Top(contracts.TopBucketCount),
	}
}
