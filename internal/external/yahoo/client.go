package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/pkg/config"
	"github.com/wonny/pocscan/pkg/httputil"
	"github.com/wonny/pocscan/pkg/logger"
)

// SourceName is the dataSource label of scans served by Yahoo Finance
const SourceName = "Yahoo Finance"

// Client reads quotes and daily bars from the Yahoo Finance chart API
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.YahooConfig
	now        func() time.Time
}

// NewClient creates a new Yahoo Finance client
func NewClient(cfg config.YahooConfig, httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.Component("yahoo"),
		cfg:        cfg,
		now:        time.Now,
	}
}

// Name implements contracts.Source
func (c *Client) Name() string {
	return SourceName
}

// chartResponse is the response structure from the chart API (null 값은 nil)
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		PreviousClose      float64 `json:"previousClose"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// symbol maps a 6-digit KRX code to the Yahoo ticker (005930 → 005930.KS)
func (c *Client) symbol(code string) string {
	return code + c.cfg.SymbolSuffix
}

func (c *Client) fetchChart(ctx context.Context, code string, params url.Values) (*chartResult, error) {
	u := fmt.Sprintf("%s/chart/%s?%s", c.cfg.BaseURL, url.PathEscape(c.symbol(code)), params.Encode())

	resp, err := c.httpClient.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("yahoo %s: %w", code, contracts.ErrNoData)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, string(body))
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", code, contracts.ErrNoData)
	}

	return &chart.Chart.Result[0], nil
}

// GetQuote returns today's price, change vs previous close, volume and trade value
func (c *Client) GetQuote(ctx context.Context, code string) (*contracts.Quote, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "1d")

	result, err := c.fetchChart(ctx, code, params)
	if err != nil {
		return nil, err
	}
	quote := result.Indicators.Quote[0]

	price := result.Meta.RegularMarketPrice
	if price == 0 {
		price = last(quote.Close)
	}
	prevClose := result.Meta.PreviousClose
	if prevClose == 0 {
		prevClose = result.Meta.ChartPreviousClose
	}
	if price <= 0 || prevClose <= 0 {
		return nil, fmt.Errorf("yahoo %s: %w", code, contracts.ErrNoData)
	}

	volume := last(quote.Volume)
	changePct := (price - prevClose) / prevClose * 100

	return &contracts.Quote{
		CurrentPrice:   math.Round(price),
		PriceChangePct: math.Round(changePct*100) / 100,
		Volume:         int64(volume),
		TradeValue:     math.Round(price * volume),
	}, nil
}

// GetDailyBars returns daily bars over the last `days` calendar days, oldest first
func (c *Client) GetDailyBars(ctx context.Context, code string, days int) ([]contracts.DailyBar, error) {
	period2 := c.now().Unix()
	period1 := period2 - int64(days)*24*60*60

	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", period1))
	params.Set("period2", fmt.Sprintf("%d", period2))
	params.Set("interval", "1d")

	result, err := c.fetchChart(ctx, code, params)
	if err != nil {
		return nil, err
	}
	quote := result.Indicators.Quote[0]

	bars := make([]contracts.DailyBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, cl, v := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i), at(quote.Volume, i)
		if o == nil || h == nil || l == nil || cl == nil || v == nil {
			continue // 휴장일 등 null 봉
		}

		bar := contracts.DailyBar{
			Date:   time.Unix(ts, 0).UTC(),
			Open:   math.Round(*o),
			High:   math.Round(*h),
			Low:    math.Round(*l),
			Close:  math.Round(*cl),
			Volume: int64(*v),
		}
		if !bar.IsComplete() || bar.Volume == 0 {
			continue
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

// last returns the final non-null value of a series
func last(values []*float64) float64 {
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != nil {
			return *values[i]
		}
	}
	return 0
}
