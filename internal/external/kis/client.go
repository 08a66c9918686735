package kis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/pkg/config"
	"github.com/wonny/pocscan/pkg/httputil"
	"github.com/wonny/pocscan/pkg/logger"
)

// SourceName is the dataSource label of scans served by KIS
const SourceName = "Korea Investment Securities"

// Client handles communication with KIS (한국투자증권) API
// ⭐ SSOT: KIS API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.KISConfig
	tokens     *TokenSource
}

// NewClient creates a new KIS API client
func NewClient(cfg config.KISConfig, httpClient *httputil.Client, tokens *TokenSource, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.Component("kis"),
		cfg:        cfg,
		tokens:     tokens,
	}
}

// Name implements contracts.Source
func (c *Client) Name() string {
	return SourceName
}

// Preflight fails fast when credentials are missing or no token can be issued
func (c *Client) Preflight(ctx context.Context) error {
	if !c.cfg.HasCredentials() {
		return fmt.Errorf("KIS_APP_KEY/KIS_APP_SECRET: %w", contracts.ErrMissingCredentials)
	}
	if _, err := c.tokens.Token(ctx); err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	return nil
}

// request makes an authenticated GET request and decodes the JSON body into out
func (c *Client) request(ctx context.Context, path string, params url.Values, trID string, out interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("appkey", c.cfg.AppKey)
	req.Header.Set("appsecret", c.cfg.AppSecret)
	req.Header.Set("tr_id", trID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate(ctx)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// GetQuote gets the current price snapshot for a stock
func (c *Client) GetQuote(ctx context.Context, stockCode string) (*contracts.Quote, error) {
	params := url.Values{}
	params.Set("fid_cond_mrkt_div_code", "J")
	params.Set("fid_input_iscd", stockCode)

	var result priceResponse
	if err := c.request(ctx, "/uapi/domestic-stock/v1/quotations/inquire-price", params, trIDCurrentPrice, &result); err != nil {
		return nil, err
	}
	if err := result.err(); err != nil {
		return nil, err
	}
	if result.Output == nil {
		return nil, fmt.Errorf("%s: %w", stockCode, contracts.ErrNoData)
	}

	quote, err := result.Output.toQuote()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stockCode, err)
	}
	return quote, nil
}

// GetDailyBars gets up to `days` most recent daily bars (최신일자 우선)
func (c *Client) GetDailyBars(ctx context.Context, stockCode string, days int) ([]contracts.DailyBar, error) {
	params := url.Values{}
	params.Set("fid_cond_mrkt_div_code", "J")
	params.Set("fid_input_iscd", stockCode)
	params.Set("fid_period_div_code", "D")
	params.Set("fid_org_adj_prc", "0")

	var result dailyResponse
	if err := c.request(ctx, "/uapi/domestic-stock/v1/quotations/inquire-daily-price", params, trIDDailyPrice, &result); err != nil {
		return nil, err
	}
	if err := result.err(); err != nil {
		return nil, err
	}

	rows := result.Output
	if days > 0 && len(rows) > days {
		rows = rows[:days]
	}

	bars := make([]contracts.DailyBar, 0, len(rows))
	for _, row := range rows {
		bar, ok := row.toBar()
		if !ok || !bar.IsComplete() {
			continue
		}
		bars = append(bars, bar)
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"rows":       len(result.Output),
		"bars":       len(bars),
	}).Debug("Fetched daily bars")

	return bars, nil
}
