package krx

import (
	"strings"

	"github.com/wonny/fscore/pkg/config"
	"github.com/wonny/fscore/pkg/httputil"
	"github.com/wonny/fscore/pkg/logger"
)

const jsonDataPath = "/comm/bldAttendant/getJsonData.cmd"

// Client handles communication with the KRX data portal
// ⭐ SSOT: KRX 정보데이터시스템 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new KRX client.
// KRX는 브라우저 헤더가 없으면 요청을 차단함
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	baseURL := strings.TrimRight(cfg.KRX.BaseURL, "/")

	httpClient := httputil.New(log).
		WithRetry(1, 0).
		WithHeader("Accept", "application/json, text/javascript, */*; q=0.01").
		WithHeader("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7").
		WithHeader("Origin", baseURL).
		WithHeader("Referer", baseURL+"/contents/MDC/MDI/mdiLoader/index.cmd?menuId=MDC0201020506")

	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("krx"),
		baseURL:    baseURL,
	}
}
