package kis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/pocscan/internal/contracts"
)

// 국내주식 시세 tr_id
const (
	trIDCurrentPrice = "FHKST01010100" // 현재가
	trIDDailyPrice   = "FHKST01010400" // 일자별 시세
)

type responseHeader struct {
	RtCd  string `json:"rt_cd"`
	MsgCd string `json:"msg_cd"`
	Msg1  string `json:"msg1"`
}

func (h responseHeader) err() error {
	if h.RtCd != "0" {
		return fmt.Errorf("API error: %s - %s", h.MsgCd, h.Msg1)
	}
	return nil
}

// priceOutput is the inquire-price output block (숫자는 문자열로 내려옴)
type priceOutput struct {
	CurrentPrice string `json:"stck_prpr"`
	ChangeRate   string `json:"prdy_ctrt"`
	Volume       string `json:"acml_vol"`
	TradeValue   string `json:"acml_tr_pbmn"`
}

type priceResponse struct {
	responseHeader
	Output *priceOutput `json:"output"`
}

// dailyRow is one inquire-daily-price row (최신일자 우선)
type dailyRow struct {
	Date   string `json:"stck_bsop_date"`
	Open   string `json:"stck_oprc"`
	High   string `json:"stck_hgpr"`
	Low    string `json:"stck_lwpr"`
	Close  string `json:"stck_clpr"`
	Volume string `json:"acml_vol"`
}

type dailyResponse struct {
	responseHeader
	Output []dailyRow `json:"output"`
}

func (o *priceOutput) toQuote() (*contracts.Quote, error) {
	price := parseNumber(o.CurrentPrice)
	if price <= 0 {
		return nil, contracts.ErrNoData
	}

	return &contracts.Quote{
		CurrentPrice:   price,
		PriceChangePct: parseNumber(o.ChangeRate),
		Volume:         int64(parseNumber(o.Volume)),
		TradeValue:     parseNumber(o.TradeValue),
	}, nil
}

// toBar converts a row; ok=false when the date is unparsable
func (r dailyRow) toBar() (contracts.DailyBar, bool) {
	date, err := time.Parse("20060102", r.Date)
	if err != nil {
		return contracts.DailyBar{}, false
	}

	return contracts.DailyBar{
		Date:   date,
		Open:   parseNumber(r.Open),
		High:   parseNumber(r.High),
		Low:    parseNumber(r.Low),
		Close:  parseNumber(r.Close),
		Volume: int64(parseNumber(r.Volume)),
	}, true
}

// parseNumber parses KIS numeric strings; empty or malformed values are 0
func parseNumber(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
