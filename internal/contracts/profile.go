package contracts

// BucketWidth is the price bin width (원) used to aggregate volume by price level
const BucketWidth = 100

// TopBucketCount is how many price buckets a SignalResult carries
const TopBucketCount = 10

// PriceBucket is the aggregated volume of one price bin (Price = bin floor)
type PriceBucket struct {
	Price  int64 `json:"price"`
	Volume int64 `json:"volume"`
}

// VolumeProfile is the volume-at-price distribution over the lookback window
// Buckets are sorted by price descending; POC is one of the bucket prices.
type VolumeProfile struct {
	POC     int64         `json:"poc"`
	Buckets []PriceBucket `json:"buckets"`
}

// TotalVolume sums every bucket's volume
func (p *VolumeProfile) TotalVolume() int64 {
	var total int64
	for _, b := range p.Buckets {
		total += b.Volume
	}
	return total
}

// AverageVolume is the mean bucket volume across the full profile
func (p *VolumeProfile) AverageVolume() float64 {
	if len(p.Buckets) == 0 {
		return 0
	}
	return float64(p.TotalVolume()) / float64(len(p.Buckets))
}

// Top returns at most n buckets from the top of the (price-descending) profile
func (p *VolumeProfile) Top(n int) []PriceBucket {
	if n > len(p.Buckets) {
		n = len(p.Buckets)
	}
	top := make([]PriceBucket, n)
	copy(top, p.Buckets[:n])
	return top
}
