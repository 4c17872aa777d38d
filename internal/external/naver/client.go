package naver

import (
	"strings"

	"github.com/wonny/fscore/pkg/config"
	"github.com/wonny/fscore/pkg/httputil"
	"github.com/wonny/fscore/pkg/logger"
)

// Market is a KRX board
type Market string

const (
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
)

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	chartURL   string // 일봉 차트
	stockURL   string // 모바일 종목 API (전종목 목록)
}

// NewClient creates a new Naver Finance client
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: httputil.New(log).WithHeader("Referer", "https://finance.naver.com/"),
		logger:     log.WithComponent("naver"),
		chartURL:   strings.TrimRight(cfg.Naver.BaseURL, "/"),
		stockURL:   strings.TrimRight(cfg.Naver.StockBaseURL, "/"),
	}
}
