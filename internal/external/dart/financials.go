package dart

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/wonny/fscore/internal/contracts"
)

// ReportCode selects the filing period
type ReportCode string

const (
	ReportAnnual    ReportCode = "11011" // 사업보고서
	ReportHalf      ReportCode = "11012" // 반기보고서
	ReportQ1        ReportCode = "11013" // 1분기보고서
	ReportQ3        ReportCode = "11014" // 3분기보고서
	defaultReport              = ReportAnnual
	statementsPath             = "fnlttSinglAcntAll.json"
)

// StatementType selects consolidated or standalone statements
type StatementType string

const (
	FSConsolidated StatementType = "CFS" // 연결
	FSStandalone   StatementType = "OFS" // 별도
)

// alternate returns the fallback statement type
func (s StatementType) alternate() StatementType {
	if s == FSConsolidated {
		return FSStandalone
	}
	return FSConsolidated
}

// Statement sections (sj_div)
const (
	SectionBalanceSheet  = "BS"
	SectionIncome        = "IS"
	SectionComprehensive = "CIS"
	SectionCashFlow      = "CF"
)

// AccountRow is one financial statement line item
type AccountRow struct {
	Section       string `json:"sj_div"`
	AccountName   string `json:"account_nm"`
	CurrentAmount string `json:"thstrm_amount"`
	PriorAmount   string `json:"frmtrm_amount"`
}

type statementsResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	List    []AccountRow `json:"list"`
}

// Statements is the row set of one filing
type Statements struct {
	CorpCode   string
	FiscalYear int
	Type       StatementType
	Rows       []AccountRow
}

// FetchFinancials fetches statement rows, retrying once with the alternate statement type
func (c *Client) FetchFinancials(ctx context.Context, corpCode string, fiscalYear int, report ReportCode, fsDiv StatementType) (*Statements, error) {
	rows, err := c.fetchStatements(ctx, corpCode, fiscalYear, report, fsDiv)
	if err == nil {
		return &Statements{CorpCode: corpCode, FiscalYear: fiscalYear, Type: fsDiv, Rows: rows}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	fallback := fsDiv.alternate()
	c.logger.WithError(err).WithFields(map[string]interface{}{
		"corp_code": corpCode,
		"year":      fiscalYear,
		"fallback":  fallback,
	}).Debug("Statement fetch failed, trying alternate type")

	rows, fbErr := c.fetchStatements(ctx, corpCode, fiscalYear, report, fallback)
	if fbErr != nil {
		return nil, fmt.Errorf("fetch statements %s/%d (%s, %s): %w", corpCode, fiscalYear, fsDiv, fallback, fbErr)
	}
	return &Statements{CorpCode: corpCode, FiscalYear: fiscalYear, Type: fallback, Rows: rows}, nil
}

func (c *Client) fetchStatements(ctx context.Context, corpCode string, fiscalYear int, report ReportCode, fsDiv StatementType) ([]AccountRow, error) {
	params := url.Values{
		"corp_code":  {corpCode},
		"bsns_year":  {strconv.Itoa(fiscalYear)},
		"reprt_code": {string(report)},
		"fs_div":     {string(fsDiv)},
	}

	var result statementsResponse
	err := c.withRetry(ctx, statementsPath, func() error {
		resp, err := c.http.Get(ctx, c.endpoint(statementsPath, params))
		if err != nil {
			return fmt.Errorf("HTTP request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		result = statementsResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrSourceUnavailable, err)
	}

	if result.Status != StatusOK {
		return nil, statusError(result.Status, result.Message)
	}
	if len(result.List) == 0 {
		return nil, statusError(StatusNoData, "empty list")
	}

	return result.List, nil
}

// AmountPair is a line item's current and prior period amounts
type AmountPair struct {
	Current  *float64
	Previous *float64
}

// CurrentRatioInputs are current assets and liabilities for two years
type CurrentRatioInputs struct {
	AssetsCurrent       *float64
	AssetsPrevious      *float64
	LiabilitiesCurrent  *float64
	LiabilitiesPrevious *float64
}

var (
	operatingCFKeywords = []string{"영업활동으로인한현금흐름", "영업활동현금흐름"}
	netIncomeLabels     = []string{"당기순이익", "당기순이익(손실)"}
)

// Cashflow finds operating cash flow in the CF section (substring match, spaces ignored)
func (s *Statements) Cashflow() *AmountPair {
	for _, keyword := range operatingCFKeywords {
		if row := s.find(func(r AccountRow) bool {
			return r.Section == SectionCashFlow && strings.Contains(compact(r.AccountName), keyword)
		}); row != nil {
			return row.amounts()
		}
	}
	return nil
}

// CurrentRatioInputs finds 유동자산/유동부채 in the BS section; nil unless all four values parse
func (s *Statements) CurrentRatioInputs() *CurrentRatioInputs {
	assets := s.find(exactBS("유동자산"))
	liabilities := s.find(exactBS("유동부채"))
	if assets == nil || liabilities == nil {
		return nil
	}

	a, l := assets.amounts(), liabilities.amounts()
	if a.Current == nil || a.Previous == nil || l.Current == nil || l.Previous == nil {
		return nil
	}

	return &CurrentRatioInputs{
		AssetsCurrent:       a.Current,
		AssetsPrevious:      a.Previous,
		LiabilitiesCurrent:  l.Current,
		LiabilitiesPrevious: l.Previous,
	}
}

// NetIncome finds net income in the IS section, then in CIS for single-statement filers
func (s *Statements) NetIncome() *AmountPair {
	for _, section := range []string{SectionIncome, SectionComprehensive} {
		for _, label := range netIncomeLabels {
			if row := s.find(func(r AccountRow) bool {
				return r.Section == section && compact(r.AccountName) == label
			}); row != nil {
				return row.amounts()
			}
		}
	}
	return nil
}

func exactBS(label string) func(AccountRow) bool {
	return func(r AccountRow) bool {
		return r.Section == SectionBalanceSheet && compact(r.AccountName) == label
	}
}

func (s *Statements) find(match func(AccountRow) bool) *AccountRow {
	if s == nil {
		return nil
	}
	for i := range s.Rows {
		if match(s.Rows[i]) {
			return &s.Rows[i]
		}
	}
	return nil
}

func (r *AccountRow) amounts() *AmountPair {
	return &AmountPair{
		Current:  ParseAmount(r.CurrentAmount),
		Previous: ParseAmount(r.PriorAmount),
	}
}

// compact removes all whitespace from a label
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// ParseAmount parses a comma-formatted amount. "-", empty or garbage yields nil.
func ParseAmount(s string) *float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
