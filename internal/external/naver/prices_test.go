package naver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fscore/pkg/config"
	"github.com/wonny/fscore/pkg/logger"
)

const siseBody = `[['날짜', '시가', '고가', '저가', '종가', '거래량', '외국인소진율'],
["20240115", 72300, 73000, 72000, 72500, 1000000, 53.1],
["20240116", 72500, 73500, 72300, 73000, 1200000, 53.2]
]`

func TestParsePriceJSON(t *testing.T) {
	tests := []struct {
		name    string
		rawData [][]interface{}
		want    int
	}{
		{
			name: "valid data with header",
			rawData: [][]interface{}{
				{"날짜", "시가", "고가", "저가", "종가", "거래량"},
				{"20240115", 72300.0, 73000.0, 72000.0, 72500.0, 1000000.0},
				{"20240116", 72500.0, 73500.0, 72300.0, 73000.0, 1200000.0},
			},
			want: 2,
		},
		{
			name: "string numbers",
			rawData: [][]interface{}{
				{"날짜", "시가", "고가", "저가", "종가", "거래량"},
				{"20240115", "72300", "73000", "72000", "72500", "1000000"},
			},
			want: 1,
		},
		{name: "empty data", rawData: [][]interface{}{}, want: 0},
		{
			name: "insufficient columns",
			rawData: [][]interface{}{
				{"날짜", "시가"},
				{"20240115", 72300.0, 73000.0},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, parsePriceJSON(tt.rawData), tt.want)
		})
	}
}

func TestParsePriceResponse(t *testing.T) {
	bars := parsePriceResponse(siseBody)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), bars[0].Date)
	assert.Equal(t, 72500.0, bars[0].Close)
	assert.Equal(t, 1200000.0, bars[1].Volume)
}

func TestParsePriceRegex(t *testing.T) {
	bars := parsePriceRegex(`garbage ["20240115", 100, 110, 90, 105, 5000] trailing`)
	require.Len(t, bars, 1)
	assert.Equal(t, 105.0, bars[0].Close)
}

func newTestClient(url string) *Client {
	cfg := &config.Config{Naver: config.NaverConfig{BaseURL: url, StockBaseURL: url}}
	return NewClient(cfg, logger.NewNop())
}

func TestFetchPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/siseJson.naver", r.URL.Path)
		assert.Equal(t, "005930", r.URL.Query().Get("symbol"))
		assert.Equal(t, "20240101", r.URL.Query().Get("startTime"))
		w.Write([]byte(siseBody))
	}))
	defer server.Close()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars, err := newTestClient(server.URL).FetchPrices(context.Background(), "005930", from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.Len(t, bars, 2)
}

func TestFetchListing_Pages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/stocks/marketValue/KOSDAQ", r.URL.Path)
		page := r.URL.Query().Get("page")

		stocks := ""
		count := listingPageSize
		if page == "2" {
			count = 3
		}
		for i := 0; i < count; i++ {
			if i > 0 {
				stocks += ","
			}
			stocks += fmt.Sprintf(`{"itemCode":"%s%03d","stockName":" 종목%d ","stockEndType":"stock","marketValue":"1,234"}`, page+"00", i, i)
		}
		fmt.Fprintf(w, `{"stocks":[%s],"totalCount":%d}`, stocks, listingPageSize+3)
	}))
	defer server.Close()

	listing, err := newTestClient(server.URL).FetchListing(context.Background(), MarketKOSDAQ)
	require.NoError(t, err)

	assert.Len(t, listing, listingPageSize+3)
	assert.Equal(t, "종목0", listing[0].Name)
	assert.Equal(t, int64(1234), listing[0].MarketCap)
	assert.Equal(t, MarketKOSDAQ, listing[0].Market)
}

func TestFetchListing_FirstPageFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchListing(context.Background(), MarketKOSPI)
	assert.Error(t, err)
}
