package kis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/pkg/config"
	"github.com/wonny/pocscan/pkg/httputil"
	"github.com/wonny/pocscan/pkg/logger"
	"github.com/wonny/pocscan/pkg/redis"
)

type fakeKIS struct {
	tokenCalls int32
	server     *httptest.Server
}

func newFakeKIS(t *testing.T) *fakeKIS {
	t.Helper()
	f := &fakeKIS{}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/tokenP", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.tokenCalls, 1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["appkey"] != "key" || body["appsecret"] != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":86400}`))
	})
	mux.HandleFunc("/uapi/domestic-stock/v1/quotations/inquire-price", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "FHKST01010100", r.Header.Get("tr_id"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("authorization"))
		if r.URL.Query().Get("fid_input_iscd") == "999999" {
			w.Write([]byte(`{"rt_cd":"1","msg_cd":"EGW00001","msg1":"종목코드 오류"}`))
			return
		}
		w.Write([]byte(`{"rt_cd":"0","output":{"stck_prpr":"72300","prdy_ctrt":"-1.23","acml_vol":"15000000","acml_tr_pbmn":"1084500000000"}}`))
	})
	mux.HandleFunc("/uapi/domestic-stock/v1/quotations/inquire-daily-price", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "FHKST01010400", r.Header.Get("tr_id"))
		w.Write([]byte(`{"rt_cd":"0","output":[
			{"stck_bsop_date":"20260305","stck_oprc":"72000","stck_hgpr":"73000","stck_lwpr":"71500","stck_clpr":"72300","acml_vol":"15000000"},
			{"stck_bsop_date":"20260304","stck_oprc":"","stck_hgpr":"72500","stck_lwpr":"71000","stck_clpr":"71800","acml_vol":"12000000"},
			{"stck_bsop_date":"20260303","stck_oprc":"70500","stck_hgpr":"71500","stck_lwpr":"70000","stck_clpr":"71200","acml_vol":"11000000"}
		]}`))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newTestClient(baseURL string, cfg config.KISConfig) *Client {
	cfg.BaseURL = baseURL
	httpClient := httputil.New(logger.Nop()).DisableRetry()
	tokens := NewTokenSource(cfg, httpClient, nil, logger.Nop())
	return NewClient(cfg, httpClient, tokens, logger.Nop())
}

func TestClient_GetQuote(t *testing.T) {
	f := newFakeKIS(t)
	c := newTestClient(f.server.URL, config.KISConfig{AppKey: "key", AppSecret: "secret"})

	quote, err := c.GetQuote(context.Background(), "005930")
	require.NoError(t, err)

	assert.Equal(t, 72300.0, quote.CurrentPrice)
	assert.Equal(t, -1.23, quote.PriceChangePct)
	assert.Equal(t, int64(15000000), quote.Volume)
	assert.Equal(t, 1084500000000.0, quote.TradeValue)

	_, err = c.GetQuote(context.Background(), "005930")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.tokenCalls), "token must be reused")
}

func TestClient_GetQuote_APIError(t *testing.T) {
	f := newFakeKIS(t)
	c := newTestClient(f.server.URL, config.KISConfig{AppKey: "key", AppSecret: "secret"})

	_, err := c.GetQuote(context.Background(), "999999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EGW00001")
}

func TestClient_GetDailyBars(t *testing.T) {
	f := newFakeKIS(t)
	c := newTestClient(f.server.URL, config.KISConfig{AppKey: "key", AppSecret: "secret"})

	bars, err := c.GetDailyBars(context.Background(), "005930", 30)
	require.NoError(t, err)

	require.Len(t, bars, 2, "row with empty open must be dropped")
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 72300.0, bars[0].Close)
	assert.Equal(t, int64(11000000), bars[1].Volume)

	limited, err := c.GetDailyBars(context.Background(), "005930", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestClient_Preflight(t *testing.T) {
	f := newFakeKIS(t)

	missing := newTestClient(f.server.URL, config.KISConfig{})
	err := missing.Preflight(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrMissingCredentials))
	assert.Zero(t, atomic.LoadInt32(&f.tokenCalls))

	wrong := newTestClient(f.server.URL, config.KISConfig{AppKey: "key", AppSecret: "bad"})
	assert.Error(t, wrong.Preflight(context.Background()))

	ok := newTestClient(f.server.URL, config.KISConfig{AppKey: "key", AppSecret: "secret"})
	assert.NoError(t, ok.Preflight(context.Background()))
	assert.Equal(t, SourceName, ok.Name())
}

func TestTokenSource_RefreshesAfterExpiry(t *testing.T) {
	f := newFakeKIS(t)
	cfg := config.KISConfig{AppKey: "key", AppSecret: "secret", BaseURL: f.server.URL}
	ts := NewTokenSource(cfg, httputil.New(logger.Nop()).DisableRetry(), nil, logger.Nop())

	now := time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC)
	ts.now = func() time.Time { return now }

	token, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, now.Add(redis.TTLToken), ts.expiry)

	now = now.Add(22 * time.Hour)
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.tokenCalls))

	now = now.Add(2 * time.Hour)
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&f.tokenCalls))

	ts.Invalidate(context.Background())
	_, err = ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&f.tokenCalls))
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, 72300.0, parseNumber("72300"))
	assert.Equal(t, -1.23, parseNumber(" -1.23 "))
	assert.Equal(t, 1234567.0, parseNumber("1,234,567"))
	assert.Equal(t, 0.0, parseNumber(""))
	assert.Equal(t, 0.0, parseNumber("N/A"))
}
