package dart

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/pkg/config"
	"github.com/wonny/fscore/pkg/httputil"
	"github.com/wonny/fscore/pkg/logger"
	"github.com/wonny/fscore/pkg/redis"
)

// DART API status codes
const (
	StatusOK            = "000"
	StatusNoData        = "013"
	StatusRateLimited   = "020"
	StatusUnregistered  = "010"
	StatusNoPermission  = "011"
	StatusIPNotAllowed  = "012"
	StatusKeyExpired    = "901"
	defaultDARTBaseURL  = "https://opendart.fss.or.kr/api"
	maxRequestAttempts  = 3
	initialRetryBackoff = 500 * time.Millisecond
	maxRetryBackoff     = 5 * time.Second
)

// Client handles communication with the OpenDART API
// ⭐ SSOT: DART API 호출은 이 클라이언트에서만
type Client struct {
	http    *httputil.Client
	logger  *logger.Logger
	apiKey  string
	baseURL string
	cache   *redis.Cache
}

// NewClient creates a new DART API client.
// DART API requires legacy TLS configuration (RSA key exchange)
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	baseURL := strings.TrimRight(cfg.DART.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultDARTBaseURL
	}

	// 네트워크 오류 재시도는 withRetry에서 처리
	httpClient := httputil.NewWithTimeout(log, 30*time.Second).
		WithTransport(newLegacyCompatibleTransport()).
		WithRateLimit(cfg.DART.RateLimit).
		DisableRetry()

	return &Client{
		http:    httpClient,
		logger:  log.WithComponent("dart"),
		apiKey:  cfg.DART.APIKey,
		baseURL: baseURL,
	}
}

// WithCache enables the redis snapshot cache for the corp-code table
func (c *Client) WithCache(cache *redis.Cache) *Client {
	c.cache = cache
	return c
}

// newLegacyCompatibleTransport creates a transport compatible with legacy TLS servers.
// DART server requires RSA key exchange cipher suites which Go 1.22+ no longer offers by default
func newLegacyCompatibleTransport() *http.Transport {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,

			// RSA KEX (legacy) - required for DART API
			tls.TLS_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_RSA_WITH_AES_128_CBC_SHA,
			tls.TLS_RSA_WITH_AES_256_CBC_SHA,
		},
	}

	return &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: false,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		TLSClientConfig:       tlsCfg,
		MaxIdleConns:          20,
		MaxConnsPerHost:       10, // Full 워커 수와 맞춤
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

func (c *Client) endpoint(path string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("crtfc_key", c.apiKey)
	return fmt.Sprintf("%s/%s?%s", c.baseURL, path, params.Encode())
}

// statusError maps a non-success DART status to the pipeline taxonomy
func statusError(status, message string) error {
	switch status {
	case StatusNoData:
		return fmt.Errorf("%w: DART %s %s", contracts.ErrInsufficientData, status, message)
	case StatusRateLimited:
		return fmt.Errorf("%w: DART %s %s", contracts.ErrRateLimited, status, message)
	case StatusUnregistered, StatusNoPermission, StatusIPNotAllowed, StatusKeyExpired:
		return fmt.Errorf("%w: DART %s %s", config.ErrConfiguration, status, message)
	default:
		return fmt.Errorf("%w: DART %s %s", contracts.ErrSourceUnavailable, status, message)
	}
}

// withRetry runs fn with exponential backoff while the error looks transient
func (c *Client) withRetry(ctx context.Context, label string, fn func() error) error {
	var lastErr error
	backoff := initialRetryBackoff

	for attempt := 0; attempt < maxRequestAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableError(err) || attempt == maxRequestAttempts-1 {
			break
		}

		c.logger.WithError(err).WithFields(map[string]interface{}{
			"attempt": attempt + 1,
			"call":    label,
			"backoff": backoff,
		}).Debug("Retrying DART API call")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}

		backoff *= 2
		if backoff > maxRetryBackoff {
			backoff = maxRetryBackoff
		}
	}

	return lastErr
}

// isRetryableError checks if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection reset by peer",
		"eof",
		"connection refused",
		"network unreachable",
		"timeout",
		"status code: 5",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}
