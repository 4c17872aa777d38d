package fnguide

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/pkg/config"
	"github.com/wonny/fscore/pkg/httputil"
	"github.com/wonny/fscore/pkg/logger"
)

// Highlight table ids on the company snapshot page
const (
	tableConsolidated = "#highlight_D_A" // 연결 Annual
	tableStandalone   = "#highlight_B_A" // 별도 Annual
	snapshotPath      = "/SVO2/ASP/SVD_Main.asp"
)

// Row labels of the six series
const (
	labelNetIncome       = "당기순이익"
	labelTotalAssets     = "자산총계"
	labelTotalDebt       = "부채총계"
	labelShares          = "발행주식수"
	labelRevenue         = "매출액"
	labelOperatingIncome = "영업이익"
)

// Client scrapes annual fundamentals from the FnGuide company snapshot
// ⭐ SSOT: 1차 재무 데이터(FnGuide) 호출은 이 클라이언트에서만
type Client struct {
	http    *httputil.Client
	logger  *logger.Logger
	baseURL string
}

// NewClient creates a new FnGuide client
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		http: httputil.New(log).
			WithRetry(1, 0).
			WithRateLimit(cfg.FnGuide.RateLimit).
			WithHeader("Referer", cfg.FnGuide.BaseURL),
		logger:  log.WithComponent("fnguide"),
		baseURL: strings.TrimRight(cfg.FnGuide.BaseURL, "/"),
	}
}

// FetchAnnual fetches the six annual series of one security
func (c *Client) FetchAnnual(ctx context.Context, code string) (*contracts.Fundamentals, error) {
	params := url.Values{
		"pGB":       {"1"},
		"gicode":    {"A" + code},
		"cID":       {""},
		"MenuYn":    {"Y"},
		"ReportGB":  {""},
		"NewMenuID": {"11"},
		"stkGb":     {"701"},
	}

	resp, err := c.http.Get(ctx, c.baseURL+snapshotPath+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("%w: fnguide %s: %v", contracts.ErrSourceUnavailable, code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fnguide %s: status %d", contracts.ErrSourceUnavailable, code, resp.StatusCode)
	}

	return ParseSnapshot(resp.Body)
}

// ParseSnapshot extracts the annual highlight table, consolidated first
func ParseSnapshot(r io.Reader) (*contracts.Fundamentals, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	for _, id := range []string{tableConsolidated, tableStandalone} {
		table := doc.Find(id + " table").First()
		if table.Length() == 0 {
			continue
		}

		rows := parseHighlight(table)
		if len(rows) == 0 {
			continue
		}

		return &contracts.Fundamentals{
			NetIncome:         lookup(rows, labelNetIncome),
			TotalAssets:       lookup(rows, labelTotalAssets),
			TotalDebt:         lookup(rows, labelTotalDebt),
			SharesOutstanding: lookup(rows, labelShares),
			Revenue:           lookup(rows, labelRevenue),
			OperatingIncome:   lookup(rows, labelOperatingIncome),
		}, nil
	}

	return nil, fmt.Errorf("%w: highlight table not found", contracts.ErrInsufficientData)
}

type highlightRow struct {
	label  string
	values contracts.FinancialSeries
}

// parseHighlight reads the Annual column group of the highlight table.
// 추정치 컬럼 "(E)"는 제외
func parseHighlight(table *goquery.Selection) []highlightRow {
	headerRows := table.Find("thead tr")
	annualCols := 4
	headerRows.First().Find("th").Each(func(_ int, th *goquery.Selection) {
		if strings.Contains(th.Text(), "Annual") {
			if span, err := strconv.Atoi(th.AttrOr("colspan", "")); err == nil && span > 0 {
				annualCols = span
			}
		}
	})

	skip := make(map[int]bool)
	headerRows.Eq(1).Find("th").Each(func(i int, th *goquery.Selection) {
		if i < annualCols && strings.Contains(th.Text(), "(E)") {
			skip[i] = true
		}
	})

	var rows []highlightRow
	table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		label := compact(tr.Find("th").First().Text())
		if label == "" {
			return
		}

		var values contracts.FinancialSeries
		tr.Find("td").Each(func(i int, td *goquery.Selection) {
			if i >= annualCols || skip[i] {
				return
			}
			if v, ok := parseNumber(td.Text()); ok {
				values = append(values, v)
			}
		})

		rows = append(rows, highlightRow{label: label, values: values})
	})

	return rows
}

// lookup returns the first row whose label equals target, or starts with target followed by "("
func lookup(rows []highlightRow, target string) contracts.FinancialSeries {
	for _, row := range rows {
		if row.label == target {
			return row.values
		}
	}
	for _, row := range rows {
		if strings.HasPrefix(row.label, target+"(") {
			return row.values
		}
	}
	return nil
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" || s == "N/A" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
