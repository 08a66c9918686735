package naver

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/pocscan/internal/contracts"
)

// GetQuote scrapes the current price block of the item sise page
func (c *Client) GetQuote(ctx context.Context, stockCode string) (*contracts.Quote, error) {
	params := url.Values{}
	params.Set("code", stockCode)

	body, err := c.fetch(ctx, c.baseURL, "/item/sise.naver", params)
	if err != nil {
		return nil, err
	}

	quote, err := parseQuoteHTML(body)
	if err != nil {
		return nil, fmt.Errorf("parse quote %s: %w", stockCode, err)
	}
	if quote == nil {
		return nil, fmt.Errorf("naver %s: %w", stockCode, contracts.ErrNoData)
	}
	return quote, nil
}

// parseQuoteHTML reads 현재가/등락률/거래량/거래대금(백만) by element id.
// Returns nil when the page carries no price (unknown code).
func parseQuoteHTML(html []byte) (*contracts.Quote, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	price := parseNum(doc.Find("#_nowVal").First().Text())
	if price <= 0 {
		return nil, nil
	}

	rate := doc.Find("#_rate").First()
	changePct := parseNum(rate.Text())
	if isDown(rate) && changePct > 0 {
		changePct = -changePct
	}

	return &contracts.Quote{
		CurrentPrice:   price,
		PriceChangePct: changePct,
		Volume:         int64(parseNum(doc.Find("#_quant").First().Text())),
		TradeValue:     parseNum(doc.Find("#_amount").First().Text()) * 1_000_000,
	}, nil
}

// isDown detects a falling price from the rate element's styling (부호 없이 표기되는 경우)
func isDown(sel *goquery.Selection) bool {
	class, _ := sel.Attr("class")
	parentClass, _ := sel.Parent().Attr("class")
	return strings.Contains(class, "nv") || strings.Contains(parentClass, "nv")
}
