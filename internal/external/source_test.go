package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/internal/external/kis"
	"github.com/wonny/pocscan/internal/external/naver"
	"github.com/wonny/pocscan/internal/external/yahoo"
	"github.com/wonny/pocscan/pkg/config"
	"github.com/wonny/pocscan/pkg/logger"
	"github.com/wonny/pocscan/pkg/redis"
)

type countingSource struct {
	quoteCalls int
	barsCalls  int
	bars       []contracts.DailyBar
	preflight  error
}

func (c *countingSource) Name() string { return "Counting" }

func (c *countingSource) GetQuote(context.Context, string) (*contracts.Quote, error) {
	c.quoteCalls++
	return &contracts.Quote{CurrentPrice: 72300, PriceChangePct: 1.2, Volume: 100, TradeValue: 7230000}, nil
}

func (c *countingSource) GetDailyBars(context.Context, string, int) ([]contracts.DailyBar, error) {
	c.barsCalls++
	return c.bars, nil
}

func (c *countingSource) Preflight(context.Context) error { return c.preflight }

func testBars() []contracts.DailyBar {
	return []contracts.DailyBar{{
		Date: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		Open: 72000, High: 73000, Low: 71500, Close: 72300, Volume: 15000000,
	}}
}

func TestNewSource(t *testing.T) {
	cfg := &config.Config{
		Yahoo: config.YahooConfig{BaseURL: "http://localhost", SymbolSuffix: ".KS"},
		Scan:  config.ScanConfig{CacheTTL: time.Minute},
	}

	tests := []struct {
		name string
		want string
	}{
		{config.SourceKIS, kis.SourceName},
		{config.SourceYahoo, yahoo.SourceName},
		{config.SourceNaver, naver.SourceName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewSource(tt.name, cfg, redis.Disabled(), logger.Nop())
			require.NoError(t, err)
			assert.Equal(t, tt.want, src.Name())
			assert.IsType(t, &CachedSource{}, src)
		})
	}

	_, err := NewSource("bloomberg", cfg, redis.Disabled(), logger.Nop())
	assert.Error(t, err)
}

func TestNewSource_AppliesRequestTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	cfg := &config.Config{
		Yahoo: config.YahooConfig{BaseURL: server.URL, SymbolSuffix: ".KS"},
		Scan:  config.ScanConfig{RequestTimeout: 50 * time.Millisecond},
	}
	src, err := NewSource(config.SourceYahoo, cfg, redis.Disabled(), logger.Nop())
	require.NoError(t, err)

	start := time.Now()
	_, err = src.GetQuote(context.Background(), "005930")
	require.Error(t, err)
	// 3회 시도 × 50ms + 재시도 대기 1.5s
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestNewSource_KISPreflightWithoutKeys(t *testing.T) {
	src, err := NewSource(config.SourceKIS, &config.Config{}, redis.Disabled(), logger.Nop())
	require.NoError(t, err)

	pf, ok := src.(contracts.Preflighter)
	require.True(t, ok)

	err = pf.Preflight(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrMissingCredentials))
}

func TestCachedSource_DisabledPassesThrough(t *testing.T) {
	inner := &countingSource{bars: testBars()}
	src := NewCachedSource(inner, "test", redis.NewCache(redis.Disabled(), "pocscan"), time.Minute, logger.Nop())

	for i := 0; i < 2; i++ {
		_, err := src.GetQuote(context.Background(), "005930")
		require.NoError(t, err)
		_, err = src.GetDailyBars(context.Background(), "005930", 30)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, inner.quoteCalls)
	assert.Equal(t, 2, inner.barsCalls)
	assert.Equal(t, "Counting", src.Name())
}

func TestCachedSource_ForwardsPreflight(t *testing.T) {
	inner := &countingSource{preflight: contracts.ErrMissingCredentials}
	src := NewCachedSource(inner, "test", redis.NewCache(redis.Disabled(), "pocscan"), 0, logger.Nop())

	assert.ErrorIs(t, src.Preflight(context.Background()), contracts.ErrMissingCredentials)
	assert.Equal(t, redis.TTLMedium, src.barsTTL)
}

func TestCachedSource_Redis(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("TEST_REDIS_HOST not set")
	}

	rdb, err := redis.New(&config.Config{Redis: config.RedisConfig{
		Host:    os.Getenv("TEST_REDIS_HOST"),
		Port:    "6379",
		Enabled: true,
	}})
	require.NoError(t, err)
	defer rdb.Close()

	cache := redis.NewCache(rdb, "pocscan-test")
	inner := &countingSource{bars: testBars()}
	src := NewCachedSource(inner, "test", cache, time.Minute, logger.Nop())

	ctx := context.Background()
	defer cache.Delete(ctx, redis.DailyBarsKey("test", "005930", 30))
	defer cache.Delete(ctx, "quote:test:005930")

	for i := 0; i < 3; i++ {
		bars, err := src.GetDailyBars(ctx, "005930", 30)
		require.NoError(t, err)
		require.Len(t, bars, 1)
		assert.True(t, bars[0].Date.Equal(testBars()[0].Date))

		q, err := src.GetQuote(ctx, "005930")
		require.NoError(t, err)
		assert.Equal(t, 72300.0, q.CurrentPrice)
	}

	assert.Equal(t, 1, inner.barsCalls)
	assert.Equal(t, 1, inner.quoteCalls)
}
