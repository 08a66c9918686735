package contracts

import "context"

// QuoteProvider returns the latest quote for a symbol.
// An unknown symbol is reported as ErrNoData, never as a panic.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}

// HistoryProvider returns up to `days` daily bars for a symbol.
// Incomplete bars are dropped by the provider; an empty slice means no data.
type HistoryProvider interface {
	GetDailyBars(ctx context.Context, symbol string, days int) ([]DailyBar, error)
}

// Source is one market data vendor serving both quotes and history
// ⭐ SSOT: 데이터 소스 교체는 이 인터페이스 구현체 교체로만
type Source interface {
	QuoteProvider
	HistoryProvider

	// Name is the human-readable dataSource label of scan results
	Name() string
}

// Preflighter is implemented by sources that need a check (credentials, token)
// before the first fetch of a scan. A failure aborts the whole scan.
type Preflighter interface {
	Preflight(ctx context.Context) error
}

// ScanRepository persists completed scans
type ScanRepository interface {
	SaveScan(ctx context.Context, result *ScanResult) (int64, error)
	LatestScan(ctx context.Context, dataSource string) (*ScanResult, error)
}

// ScanPublisher fans a completed scan out to live subscribers
type ScanPublisher interface {
	PublishScan(result *ScanResult)
}
