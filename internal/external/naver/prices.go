package naver

import (
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/pocscan/internal/contracts"
)

var priceRowPattern = regexp.MustCompile(`\["(\d{8})",\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+)`)

// GetDailyBars returns the most recent `days` trading-day bars, oldest first
// siseJson은 기간 조회만 지원하므로 휴장일 감안해 2배 구간을 요청 후 자름
func (c *Client) GetDailyBars(ctx context.Context, stockCode string, days int) ([]contracts.DailyBar, error) {
	to := c.now()
	from := to.AddDate(0, 0, -2*days)

	params := url.Values{}
	params.Set("symbol", stockCode)
	params.Set("requestType", "1")
	params.Set("startTime", from.Format("20060102"))
	params.Set("endTime", to.Format("20060102"))
	params.Set("timeframe", "day")

	body, err := c.fetch(ctx, c.chartURL, "/siseJson.naver", params)
	if err != nil {
		return nil, err
	}

	bars := parsePriceResponse(string(body))
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	if days > 0 && len(bars) > days {
		bars = bars[len(bars)-days:]
	}

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"count":      len(bars),
	}).Debug("Fetched daily bars")
	return bars, nil
}

// parsePriceResponse parses the siseJson body (작은따옴표 JS 배열)
func parsePriceResponse(body string) []contracts.DailyBar {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		return parsePriceJSON(rawData)
	}

	return parsePriceRegex(body)
}

// parsePriceJSON parses the JSON array format; the first row is the header
func parsePriceJSON(rawData [][]interface{}) []contracts.DailyBar {
	bars := make([]contracts.DailyBar, 0, len(rawData))
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		tradeDate, err := time.Parse("20060102", strings.TrimSpace(dateStr))
		if err != nil {
			continue
		}

		bar := contracts.DailyBar{
			Date:   tradeDate,
			Open:   toFloat(row[1]),
			High:   toFloat(row[2]),
			Low:    toFloat(row[3]),
			Close:  toFloat(row[4]),
			Volume: int64(toFloat(row[5])),
		}
		if bar.IsComplete() {
			bars = append(bars, bar)
		}
	}
	return bars
}

// parsePriceRegex parses using regex (fallback for malformed bodies)
func parsePriceRegex(body string) []contracts.DailyBar {
	matches := priceRowPattern.FindAllStringSubmatch(body, -1)

	bars := make([]contracts.DailyBar, 0, len(matches))
	for _, match := range matches {
		tradeDate, err := time.Parse("20060102", match[1])
		if err != nil {
			continue
		}

		volume, _ := strconv.ParseInt(match[6], 10, 64)
		bar := contracts.DailyBar{
			Date:   tradeDate,
			Open:   toFloat(match[2]),
			High:   toFloat(match[3]),
			Low:    toFloat(match[4]),
			Close:  toFloat(match[5]),
			Volume: volume,
		}
		if bar.IsComplete() {
			bars = append(bars, bar)
		}
	}
	return bars
}

// toFloat converts JSON numbers and numeric strings ("72,300") to float64
func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case string:
		return parseNum(val)
	default:
		return 0
	}
}

// parseNum strips thousands separators, signs and % from scraped numbers
func parseNum(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", "+", "", "%", "").Replace(s)
	if s == "" || s == "-" {
		return 0
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n
}
