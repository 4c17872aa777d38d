package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/fscore/internal/contracts"
)

var priceRowRe = regexp.MustCompile(`\["(\d{8})",\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+),\s*([\d.]+)`)

// FetchPrices fetches daily bars between from and to, oldest first
// ⭐ SSOT: Naver Finance 가격 API 호출은 이 함수에서만
func (c *Client) FetchPrices(ctx context.Context, stockCode string, from, to time.Time) ([]contracts.PriceBar, error) {
	fullURL := fmt.Sprintf(
		"%s/siseJson.naver?symbol=%s&requestType=1&startTime=%s&endTime=%s&timeframe=day",
		c.chartURL, stockCode, from.Format("20060102"), to.Format("20060102"),
	)

	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("%w: prices %s: %v", contracts.ErrSourceUnavailable, stockCode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: prices %s: status %d", contracts.ErrSourceUnavailable, stockCode, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	bars := parsePriceResponse(string(body))

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"count":      len(bars),
	}).Debug("Fetched prices")
	return bars, nil
}

// parsePriceResponse parses the single-quoted JSON array, falling back to regex
func parsePriceResponse(body string) []contracts.PriceBar {
	body = strings.ReplaceAll(strings.TrimSpace(body), "'", "\"")

	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		return parsePriceJSON(rawData)
	}
	return parsePriceRegex(body)
}

func parsePriceJSON(rawData [][]interface{}) []contracts.PriceBar {
	var bars []contracts.PriceBar
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue // header
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		date, err := time.Parse("20060102", strings.TrimSpace(dateStr))
		if err != nil {
			continue
		}

		bars = append(bars, contracts.PriceBar{
			Date:   date,
			Open:   toFloat(row[1]),
			High:   toFloat(row[2]),
			Low:    toFloat(row[3]),
			Close:  toFloat(row[4]),
			Volume: toFloat(row[5]),
		})
	}
	return bars
}

func parsePriceRegex(body string) []contracts.PriceBar {
	var bars []contracts.PriceBar
	for _, m := range priceRowRe.FindAllStringSubmatch(body, -1) {
		date, err := time.Parse("20060102", m[1])
		if err != nil {
			continue
		}
		bars = append(bars, contracts.PriceBar{
			Date:   date,
			Open:   toFloat(m[2]),
			High:   toFloat(m[3]),
			Low:    toFloat(m[4]),
			Close:  toFloat(m[5]),
			Volume: toFloat(m[6]),
		})
	}
	return bars
}

func toFloat(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		n, _ := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return n
	default:
		return 0
	}
}
