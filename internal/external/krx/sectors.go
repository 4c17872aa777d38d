package krx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/fscore/internal/contracts"
)

// MarketID is the KRX board identifier used by the data portal
type MarketID string

const (
	MarketKOSPI  MarketID = "STK"
	MarketKOSDAQ MarketID = "KSQ"
)

// Markets lists the boards covered by the sector lookup, in lookup order
var Markets = []MarketID{MarketKOSPI, MarketKOSDAQ}

const sectorBld = "dbms/MDC/STAT/standard/MDCSTAT03901"

// SectorRow is one security's industry classification
type SectorRow struct {
	Code   string `json:"ISU_SRT_CD"` // 종목코드 (단축)
	Name   string `json:"ISU_ABBRV"`  // 종목명
	Sector string `json:"IDX_IND_NM"` // 업종명
}

type sectorResponse struct {
	Block1 []SectorRow `json:"block1"`
}

// FetchSectors fetches the industry classification of one board on one trade date.
// 휴장일에는 빈 결과가 반환됨 (오류 아님)
// ⭐ SSOT: KRX 업종 분류 조회는 이 함수에서만
func (c *Client) FetchSectors(ctx context.Context, date time.Time, market MarketID) ([]SectorRow, error) {
	trdDd := date.Format("20060102")
	formData := url.Values{
		"bld":         {sectorBld},
		"locale":      {"ko_KR"},
		"mktId":       {string(market)},
		"trdDd":       {trdDd},
		"money":       {"1"},
		"csvxls_isNo": {"false"},
	}

	resp, err := c.httpClient.PostForm(ctx, c.baseURL+jsonDataPath, formData)
	if err != nil {
		return nil, fmt.Errorf("%w: KRX sectors %s %s: %v", contracts.ErrSourceUnavailable, market, trdDd, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: KRX returned status %d", contracts.ErrSourceUnavailable, resp.StatusCode)
	}

	var apiResp sectorResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200]
		}
		c.logger.WithField("response_preview", preview).Debug("Failed to parse KRX response")
		return nil, fmt.Errorf("%w: decode KRX response: %v", contracts.ErrSourceUnavailable, err)
	}

	rows := make([]SectorRow, 0, len(apiResp.Block1))
	for _, row := range apiResp.Block1 {
		code := strings.TrimSpace(row.Code)
		if code == "" {
			continue
		}
		rows = append(rows, SectorRow{
			Code:   contracts.NormalizeCode(code),
			Name:   strings.TrimSpace(row.Name),
			Sector: strings.TrimSpace(row.Sector),
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"market":     market,
		"trade_date": trdDd,
		"count":      len(rows),
	}).Debug("Fetched sector classification")

	return rows, nil
}
