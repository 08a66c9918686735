package contracts

import (
	"fmt"
	"math"
)

// ScanConditions are the caller-supplied thresholds for one scan
// 한 번의 스캔 동안 변경되지 않음
type ScanConditions struct {
	POCTolerancePct       float64 `json:"pocTolerance" yaml:"poc_tolerance_pct"`
	BounceStrengthPct     float64 `json:"bounceStrength" yaml:"bounce_strength_pct"`
	VolumeMultiplier      float64 `json:"volumeMultiplier" yaml:"volume_multiplier"`
	MinPrice              float64 `json:"minPrice" yaml:"min_price"`
	MaxPrice              float64 `json:"maxPrice" yaml:"max_price"`
	MinTradeValueMillions float64 `json:"minTradeValue" yaml:"min_trade_value_millions"` // 백만원
}

// DefaultScanConditions returns the stock thresholds
func DefaultScanConditions() ScanConditions {
	return ScanConditions{
		POCTolerancePct:       2,
		BounceStrengthPct:     1,
		VolumeMultiplier:      1.5,
		MinPrice:              5000,
		MaxPrice:              100000,
		MinTradeValueMillions: 1000,
	}
}

// MinTradeValue is the trade value floor in 원
func (c ScanConditions) MinTradeValue() float64 {
	return c.MinTradeValueMillions * 1_000_000
}

// Validate rejects thresholds that would make the signal rules meaningless.
// pocTolerance and bounceStrength may be negative; a negative bounce lets
// BUY and SELL fire together, and SELL then wins.
func (c ScanConditions) Validate() error {
	fields := []struct {
		name   string
		value  float64
		signed bool
	}{
		{"pocTolerance", c.POCTolerancePct, true},
		{"bounceStrength", c.BounceStrengthPct, true},
		{"volumeMultiplier", c.VolumeMultiplier, false},
		{"minPrice", c.MinPrice, false},
		{"maxPrice", c.MaxPrice, false},
		{"minTradeValue", c.MinTradeValueMillions, false},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidConditions, f.name)
		}
		if !f.signed && f.value < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConditions, f.name)
		}
	}

	if c.VolumeMultiplier == 0 {
		return fmt.Errorf("%w: volumeMultiplier must be positive", ErrInvalidConditions)
	}

	if c.MaxPrice < c.MinPrice {
		return fmt.Errorf("%w: maxPrice %.0f below minPrice %.0f", ErrInvalidConditions, c.MaxPrice, c.MinPrice)
	}

	return nil
}
