package contracts

import "time"

// SignalType is the verdict of the evaluator
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
)

// SignalResult is one qualifying instrument of a scan
type SignalResult struct {
	Instrument

	Signal             SignalType    `json:"signal"`
	CurrentPrice       float64       `json:"currentPrice"`
	POC                int64         `json:"poc"`
	PriceChangePct     float64       `json:"priceChangePct"`
	Volume             int64         `json:"volume"`
	AvgVolume          int64         `json:"avgVolume"`
	VolumeRatio        float64       `json:"volumeRatio"`
	TradeValueMillions int64         `json:"tradeValueMillions"`
	Reasons            []string      `json:"reasons"`
	SignalStrength     float64       `json:"signalStrength"`
	TopBuckets         []PriceBucket `json:"topBuckets"`
}

// ScanStats counts per-instrument outcomes of a scan
type ScanStats struct {
	Evaluated int `json:"evaluated"` // profile built and evaluator ran
	Skipped   int `json:"skipped"`   // fetch error or empty history
	Failed    int `json:"failed"`    // unexpected per-instrument failure (recovered)
}

// ScanResult is the payload of one completed scan
type ScanResult struct {
	Success         bool           `json:"success"`
	TotalScanned    int            `json:"totalScanned"`
	Recommendations []SignalResult `json:"recommendations"`
	Timestamp       time.Time      `json:"timestamp"`
	DataSource      string         `json:"dataSource"`
	Conditions      ScanConditions `json:"conditions"`
	Stats           ScanStats      `json:"stats"`
}

// Count returns the number of BUY and SELL recommendations
func (r *ScanResult) Count() (buy, sell int) {
	for _, rec := range r.Recommendations {
		switch rec.Signal {
		case SignalBuy:
			buy++
		case SignalSell:
			sell++
		}
	}
	return buy, sell
}
