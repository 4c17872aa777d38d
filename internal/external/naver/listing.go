package naver

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const listingPageSize = 100

// ListedStock is one entry of the exchange listing
type ListedStock struct {
	Code      string
	Name      string
	Market    Market
	EndType   string // stock, etf, etn ...
	MarketCap int64  // 억원
}

type marketValueResponse struct {
	Stocks []struct {
		ItemCode     string `json:"itemCode"`
		StockName    string `json:"stockName"`
		StockEndType string `json:"stockEndType"`
		MarketValue  string `json:"marketValue"`
	} `json:"stocks"`
	TotalCount int `json:"totalCount"`
}

// FetchListing pages through the full listing of one market, ordered by market cap.
// ⭐ SSOT: 전종목 목록 호출은 이 함수에서만
func (c *Client) FetchListing(ctx context.Context, market Market) ([]ListedStock, error) {
	var listing []ListedStock

	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/api/stocks/marketValue/%s?page=%d&pageSize=%d", c.stockURL, market, page, listingPageSize)

		var resp marketValueResponse
		if err := c.httpClient.GetJSON(ctx, url, &resp); err != nil {
			if page == 1 {
				return nil, fmt.Errorf("fetch %s listing: %w", market, err)
			}
			c.logger.WithError(err).WithField("page", page).Warn("Listing page failed, stopping")
			break
		}

		for _, s := range resp.Stocks {
			listing = append(listing, ListedStock{
				Code:      s.ItemCode,
				Name:      strings.TrimSpace(s.StockName),
				Market:    market,
				EndType:   s.StockEndType,
				MarketCap: parseInt(s.MarketValue),
			})
		}

		if len(resp.Stocks) < listingPageSize || len(listing) >= resp.TotalCount {
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"market": market,
		"count":  len(listing),
	}).Debug("Fetched listing")

	return listing, nil
}

func parseInt(s string) int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(n)
}
