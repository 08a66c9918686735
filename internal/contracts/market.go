package contracts

import "time"

// Instrument is one entry of the scan universe
// ⭐ SSOT: 종목 식별 정보 (identity = Symbol)
type Instrument struct {
	Symbol string `json:"symbol" yaml:"symbol"` // 6자리 종목코드
	Name   string `json:"name" yaml:"name"`
	Sector string `json:"sector" yaml:"sector"`
	Market string `json:"market" yaml:"market"` // KOSPI, KOSDAQ
}

// Quote is the latest price snapshot for an instrument
type Quote struct {
	CurrentPrice   float64 `json:"currentPrice"`
	PriceChangePct float64 `json:"priceChangePct"` // 전일 대비 등락률 (%)
	Volume         int64   `json:"volume"`         // 누적 거래량
	TradeValue     float64 `json:"tradeValue"`     // 누적 거래대금 (원)
}

// DailyBar is one daily OHLCV candle
type DailyBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// IsComplete reports whether every OHLCV field carries a usable value
func (b DailyBar) IsComplete() bool {
	return b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0 && b.Volume >= 0
}
