package external

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/internal/external/kis"
	"github.com/wonny/pocscan/internal/external/naver"
	"github.com/wonny/pocscan/internal/external/yahoo"
	"github.com/wonny/pocscan/pkg/config"
	"github.com/wonny/pocscan/pkg/httputil"
	"github.com/wonny/pocscan/pkg/logger"
	"github.com/wonny/pocscan/pkg/redis"
)

// KIS 실전 계좌 초당 20회 제한, 여유를 두고 초당 15회
const kisRequestsPerSecond = 15

// NewSource builds the data source named by name (kis, yahoo, naver),
// wrapped with the Redis read-through cache.
// ⭐ SSOT: 데이터 소스 선택/조립은 여기서만
func NewSource(name string, cfg *config.Config, rdb *redis.Client, log *logger.Logger) (contracts.Source, error) {
	httpClient := httputil.NewWithTimeout(log, cfg.Scan.RequestTimeout).WithRetry(2, 500*time.Millisecond)
	limiter := redis.NewRateLimiter(rdb, "pocscan")

	var src contracts.Source
	switch name {
	case config.SourceKIS:
		httpClient.
			WithLimiter(rate.NewLimiter(rate.Limit(kisRequestsPerSecond), 1)).
			WithRateLimiter(limiter, redis.KISRateLimit)
		tokens := kis.NewTokenSource(cfg.KIS, httpClient, redis.NewCache(rdb, "pocscan"), log)
		src = kis.NewClient(cfg.KIS, httpClient, tokens, log)
	case config.SourceYahoo:
		httpClient.WithRateLimiter(limiter, redis.YahooRateLimit)
		src = yahoo.NewClient(cfg.Yahoo, httpClient, log)
	case config.SourceNaver:
		httpClient.WithRateLimiter(limiter, redis.NaverRateLimit)
		src = naver.NewClient(cfg.Naver, httpClient, log)
	default:
		return nil, fmt.Errorf("unknown data source %q (want kis, yahoo or naver)", name)
	}

	return NewCachedSource(src, name, redis.NewCache(rdb, "pocscan"), cfg.Scan.CacheTTL, log), nil
}

// CachedSource caches quotes and daily bars of another Source in Redis.
// A disabled Redis client makes it a pass-through.
type CachedSource struct {
	inner   contracts.Source
	key     string
	cache   *redis.Cache
	barsTTL time.Duration
	logger  *logger.Logger
}

// NewCachedSource wraps inner; key namespaces the cache entries per vendor
func NewCachedSource(inner contracts.Source, key string, cache *redis.Cache, barsTTL time.Duration, log *logger.Logger) *CachedSource {
	if barsTTL <= 0 {
		barsTTL = redis.TTLMedium
	}
	return &CachedSource{
		inner:   inner,
		key:     key,
		cache:   cache,
		barsTTL: barsTTL,
		logger:  log.Component("source_cache"),
	}
}

// Name implements contracts.Source
func (s *CachedSource) Name() string {
	return s.inner.Name()
}

// Preflight forwards to the wrapped source when it needs one
func (s *CachedSource) Preflight(ctx context.Context) error {
	if pf, ok := s.inner.(contracts.Preflighter); ok {
		return pf.Preflight(ctx)
	}
	return nil
}

// GetQuote implements contracts.QuoteProvider
func (s *CachedSource) GetQuote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	key := fmt.Sprintf("quote:%s:%s", s.key, symbol)

	var cached contracts.Quote
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Quote cache read failed")
	} else if found {
		return &cached, nil
	}

	quote, err := s.inner.GetQuote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, quote, redis.TTLShort); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Quote cache write failed")
	}
	return quote, nil
}

// GetDailyBars implements contracts.HistoryProvider; empty results are not cached
func (s *CachedSource) GetDailyBars(ctx context.Context, symbol string, days int) ([]contracts.DailyBar, error) {
	key := redis.DailyBarsKey(s.key, symbol, days)

	var cached []contracts.DailyBar
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Bars cache read failed")
	} else if found && len(cached) > 0 {
		return cached, nil
	}

	bars, err := s.inner.GetDailyBars(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	if len(bars) > 0 {
		if err := s.cache.Set(ctx, key, bars, s.barsTTL); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Bars cache write failed")
		}
	}
	return bars, nil
}
