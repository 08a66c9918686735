package naver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/pkg/config"
	"github.com/wonny/pocscan/pkg/httputil"
	"github.com/wonny/pocscan/pkg/logger"
)

const sisePageUp = `<html><body>
<table class="type2 type_tax">
	<tr><th>현재가</th><td><strong id="_nowVal">72,300</strong></td></tr>
	<tr><th>등락률</th><td><strong id="_rate" class="tah p11 red01">
		+1.83%
	</strong></td></tr>
	<tr><th>거래량</th><td><span id="_quant">15,000,000</span></td></tr>
	<tr><th>거래대금(백만)</th><td><span id="_amount">1,084,506</span></td></tr>
</table>
</body></html>`

const sisePageDown = `<html><body>
<strong id="_nowVal">71,000</strong>
<strong id="_rate" class="tah p11 nv01">1.23%</strong>
<span id="_quant">9,000,000</span>
<span id="_amount">639,000</span>
</body></html>`

func TestParseQuoteHTML(t *testing.T) {
	q, err := parseQuoteHTML([]byte(sisePageUp))
	require.NoError(t, err)
	require.NotNil(t, q)

	assert.Equal(t, 72300.0, q.CurrentPrice)
	assert.Equal(t, 1.83, q.PriceChangePct)
	assert.Equal(t, int64(15000000), q.Volume)
	assert.Equal(t, 1084506.0*1_000_000, q.TradeValue)

	down, err := parseQuoteHTML([]byte(sisePageDown))
	require.NoError(t, err)
	require.NotNil(t, down)
	assert.Equal(t, -1.23, down.PriceChangePct)

	missing, err := parseQuoteHTML([]byte(`<html><body>종목 없음</body></html>`))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/item/sise.naver", r.URL.Path)
		if r.URL.Query().Get("code") == "005930" {
			w.Write([]byte(sisePageUp))
			return
		}
		w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	c := NewClient(config.NaverConfig{BaseURL: server.URL}, httputil.New(logger.Nop()).DisableRetry(), logger.Nop())

	q, err := c.GetQuote(context.Background(), "005930")
	require.NoError(t, err)
	assert.Equal(t, 72300.0, q.CurrentPrice)

	_, err = c.GetQuote(context.Background(), "999999")
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrNoData))
	assert.Equal(t, SourceName, c.Name())
}
