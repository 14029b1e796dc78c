// Package collector fetches daily prices, investor flows, and intraday
// quotes from upstream market data sources.
package collector

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"stockgravity/database"
)

// NaverClient scrapes daily price and investor flow tables from the Naver
// Finance ticker pages.
type NaverClient struct {
	baseURL    string
	httpClient *http.Client
	delay      time.Duration
}

// NewNaverClient creates a scraping client. The delay is applied between
// consecutive page fetches to stay polite.
func NewNaverClient(baseURL string, delay time.Duration) *NaverClient {
	return &NaverClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		delay: delay,
	}
}

func (c *NaverClient) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// The daily price pages reject requests without a browser user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch returned status %d for %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return doc, nil
}

// FetchDailyPrices scrapes up to pages of the daily price table for a
// ticker, newest rows first upstream, returned in chronological order.
func (c *NaverClient) FetchDailyPrices(ctx context.Context, ticker string, pages int) ([]database.DailyPrice, error) {
	var bars []database.DailyPrice
	for page := 1; page <= pages; page++ {
		url := fmt.Sprintf("%s/item/sise_day.naver?code=%s&page=%d", c.baseURL, ticker, page)
		doc, err := c.fetch(ctx, url)
		if err != nil {
			return nil, err
		}

		pageBars := parseDailyTable(doc, ticker)
		if len(pageBars) == 0 {
			break
		}
		bars = append(bars, pageBars...)

		if page < pages {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	// Upstream pages run newest to oldest.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

// parseDailyTable extracts bars from the daily price table. Rows with
// missing cells (separators, headers) are skipped.
func parseDailyTable(doc *goquery.Document, ticker string) []database.DailyPrice {
	var bars []database.DailyPrice
	doc.Find("table.type2 tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		date, err := parseKoreanDate(cells.Eq(0).Text())
		if err != nil {
			return
		}
		closePrice, err1 := parseNumber(cells.Eq(1).Text())
		openPrice, err2 := parseNumber(cells.Eq(3).Text())
		high, err3 := parseNumber(cells.Eq(4).Text())
		low, err4 := parseNumber(cells.Eq(5).Text())
		volume, err5 := parseNumber(cells.Eq(6).Text())
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			return
		}

		bars = append(bars, database.DailyPrice{
			Ticker: ticker,
			Date:   date,
			Open:   openPrice,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: int64(volume),
		})
	})
	return bars
}

// FetchInvestorFlows scrapes the institutional and foreign net-buy table
// for a ticker, returned in chronological order.
func (c *NaverClient) FetchInvestorFlows(ctx context.Context, ticker string) ([]database.InvestorFlow, error) {
	url := fmt.Sprintf("%s/item/frgn.naver?code=%s", c.baseURL, ticker)
	doc, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	flows := parseFlowTable(doc, ticker)
	for i, j := 0, len(flows)-1; i < j; i, j = i+1, j-1 {
		flows[i], flows[j] = flows[j], flows[i]
	}
	return flows, nil
}

// parseFlowTable extracts net-buy rows. The table carries date, close,
// change, ratio, volume, institutional net buy, and foreign net buy.
func parseFlowTable(doc *goquery.Document, ticker string) []database.InvestorFlow {
	var flows []database.InvestorFlow
	doc.Find("table.type2 tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		date, err := parseKoreanDate(cells.Eq(0).Text())
		if err != nil {
			return
		}
		institutional, err1 := parseNumber(cells.Eq(5).Text())
		foreigner, err2 := parseNumber(cells.Eq(6).Text())
		if err1 != nil || err2 != nil {
			return
		}

		flows = append(flows, database.InvestorFlow{
			Ticker:              ticker,
			Date:                date,
			InstitutionalNetBuy: int64(institutional),
			ForeignerNetBuy:     int64(foreigner),
		})
	})
	return flows
}

// FetchName scrapes the display name for a ticker.
func (c *NaverClient) FetchName(ctx context.Context, ticker string) (string, error) {
	url := fmt.Sprintf("%s/item/main.naver?code=%s", c.baseURL, ticker)
	doc, err := c.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	name := strings.TrimSpace(doc.Find(".wrap_company h2 a").First().Text())
	if name == "" {
		return "", fmt.Errorf("name not found for ticker %s", ticker)
	}
	return name, nil
}

// parseNumber parses a formatted cell value like "1,234,567" or "+1,200".
func parseNumber(s string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "+", "", " ", "").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("empty cell")
	}
	return strconv.ParseFloat(cleaned, 64)
}

// parseKoreanDate parses a cell value like "2026.08.28".
func parseKoreanDate(s string) (time.Time, error) {
	return time.Parse("2006.01.02", strings.TrimSpace(s))
}
