package contracts

// FinancialSeries is one line item's yearly values, oldest → newest
type FinancialSeries []float64

// Latest returns the newest value
func (s FinancialSeries) Latest() (float64, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1], true
}

// Prior returns the value one year before the newest
func (s FinancialSeries) Prior() (float64, bool) {
	if len(s) < 2 {
		return 0, false
	}
	return s[len(s)-2], true
}

// Fundamentals holds the six annual series the Lite score needs
// ⭐ SSOT: 1차 소스(FnGuide) → Lite 엔진 전달
type Fundamentals struct {
	NetIncome         FinancialSeries `json:"net_income"`
	TotalAssets       FinancialSeries `json:"total_assets"`
	TotalDebt         FinancialSeries `json:"total_debt"`
	SharesOutstanding FinancialSeries `json:"shares_outstanding"`
	Revenue           FinancialSeries `json:"revenue"`
	OperatingIncome   FinancialSeries `json:"operating_income"`
}

// Series returns every series keyed by its line-item name
func (f *Fundamentals) Series() map[string]FinancialSeries {
	return map[string]FinancialSeries{
		"net_income":         f.NetIncome,
		"total_assets":       f.TotalAssets,
		"total_debt":         f.TotalDebt,
		"shares_outstanding": f.SharesOutstanding,
		"revenue":            f.Revenue,
		"operating_income":   f.OperatingIncome,
	}
}

// RegistryFigures are the regulatory-filing values used by the three Full checks.
// nil 값은 공시에서 해당 계정을 찾지 못했음을 의미
type RegistryFigures struct {
	CorpCode   string `json:"corp_code"`
	FiscalYear int    `json:"fiscal_year"`

	OperatingCFCurrent  *float64 `json:"operating_cf_current"`
	OperatingCFPrevious *float64 `json:"operating_cf_previous"`

	NetIncomeCurrent  *float64 `json:"net_income_current"`
	NetIncomePrevious *float64 `json:"net_income_previous"`

	CurrentAssetsCurrent       *float64 `json:"current_assets_current"`
	CurrentAssetsPrevious      *float64 `json:"current_assets_previous"`
	CurrentLiabilitiesCurrent  *float64 `json:"current_liabilities_current"`
	CurrentLiabilitiesPrevious *float64 `json:"current_liabilities_previous"`
}
