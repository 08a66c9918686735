package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/pkg/config"
	"github.com/wonny/pocscan/pkg/httputil"
	"github.com/wonny/pocscan/pkg/logger"
)

const quoteJSON = `{"chart":{"result":[{
	"meta":{"regularMarketPrice":72300.4,"previousClose":71000,"chartPreviousClose":70000},
	"timestamp":[1772668800],
	"indicators":{"quote":[{"open":[71500],"high":[72500],"low":[71200],"close":[72300],"volume":[15000000]}]}
}],"error":null}}`

const barsJSON = `{"chart":{"result":[{
	"meta":{"regularMarketPrice":72300},
	"timestamp":[1772668800,1772582400,1772496000,1772409600],
	"indicators":{"quote":[{
		"open":[72000,71000,null,70000.4],
		"high":[73000,72000,71000,71000],
		"low":[71500,70500,69000,69500],
		"close":[72300,71800,70000,70500.6],
		"volume":[15000000,12000000,9000000,0]
	}]}
}],"error":null}}`

func newServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.YahooConfig{BaseURL: server.URL, SymbolSuffix: ".KS"}
	return NewClient(cfg, httputil.New(logger.Nop()).DisableRetry(), logger.Nop())
}

func TestClient_GetQuote(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chart/005930.KS", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("range"))
		w.Write([]byte(quoteJSON))
	})

	q, err := c.GetQuote(context.Background(), "005930")
	require.NoError(t, err)

	assert.Equal(t, 72300.0, q.CurrentPrice)
	assert.Equal(t, 1.83, q.PriceChangePct)
	assert.Equal(t, int64(15000000), q.Volume)
	assert.Equal(t, 1084506000000.0, q.TradeValue)
	assert.Equal(t, SourceName, c.Name())
}

func TestClient_GetQuote_FallsBackToLastClose(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[{
			"meta":{"chartPreviousClose":10000},
			"indicators":{"quote":[{"close":[10100,null],"volume":[500,null]}]}
		}]}}`))
	})

	q, err := c.GetQuote(context.Background(), "005930")
	require.NoError(t, err)

	assert.Equal(t, 10100.0, q.CurrentPrice)
	assert.Equal(t, 1.0, q.PriceChangePct)
	assert.Equal(t, int64(500), q.Volume)
}

func TestClient_GetQuote_NotFound(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	})

	_, err := c.GetQuote(context.Background(), "999999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrNoData))
}

func TestClient_GetQuote_APIError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid input"}}}`))
	})

	_, err := c.GetQuote(context.Background(), "005930")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid input")
}

func TestClient_GetDailyBars(t *testing.T) {
	now := time.Date(2026, 3, 5, 15, 30, 0, 0, time.UTC)

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "1d", q.Get("interval"))
		assert.Equal(t, strconv.FormatInt(now.Unix(), 10), q.Get("period2"))
		assert.Equal(t, strconv.FormatInt(now.Unix()-30*86400, 10), q.Get("period1"))
		w.Write([]byte(barsJSON))
	})
	c.now = func() time.Time { return now }

	bars, err := c.GetDailyBars(context.Background(), "005930", 30)
	require.NoError(t, err)

	require.Len(t, bars, 2, "null open and zero volume bars are dropped")
	assert.True(t, bars[0].Date.Before(bars[1].Date), "oldest first")
	assert.Equal(t, 71800.0, bars[0].Close)
	assert.Equal(t, 72300.0, bars[1].Close)
}

func TestClient_GetDailyBars_DuplicateTimestampsKeepOrder(t *testing.T) {
	const dupJSON = `{"chart":{"result":[{
	"meta":{"regularMarketPrice":72300},
	"timestamp":[1772668800,1772582400,1772582400,1772582400],
	"indicators":{"quote":[{
		"open":[72000,71000,71100,71200],
		"high":[73000,72000,72000,72000],
		"low":[71500,70500,70500,70500],
		"close":[72300,71000,71500,71900],
		"volume":[15000000,100,200,300]
	}]}
}],"error":null}}`

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dupJSON))
	})

	bars, err := c.GetDailyBars(context.Background(), "005930", 30)
	require.NoError(t, err)
	require.Len(t, bars, 4)

	// 같은 날짜의 봉은 응답 순서 유지
	assert.Equal(t, []float64{71000, 71500, 71900, 72300},
		[]float64{bars[0].Close, bars[1].Close, bars[2].Close, bars[3].Close})
	assert.Equal(t, []int64{100, 200, 300, 15000000},
		[]int64{bars[0].Volume, bars[1].Volume, bars[2].Volume, bars[3].Volume})
}
