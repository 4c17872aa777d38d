package fscore

import (
	"context"
	"fmt"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/pkg/logger"
)

// FundamentalsSource fetches the annual series of one security (FnGuide in production)
type FundamentalsSource interface {
	FetchAnnual(ctx context.Context, code string) (*contracts.Fundamentals, error)
}

// LiteEngine scores the six single-source checks
// ⭐ SSOT: Lite F-Score (0~6) 계산은 여기서만
type LiteEngine struct {
	source FundamentalsSource
	logger *logger.Logger
}

// NewLiteEngine creates a Lite engine over a fundamentals source
func NewLiteEngine(source FundamentalsSource, log *logger.Logger) *LiteEngine {
	return &LiteEngine{
		source: source,
		logger: log.WithComponent("lite_engine"),
	}
}

// Score fetches fundamentals for code and evaluates the six checks.
// A nil details with ErrInsufficientData means the security cannot be scored.
func (e *LiteEngine) Score(ctx context.Context, code string) (int, *contracts.LiteDetails, error) {
	fundamentals, err := e.source.FetchAnnual(ctx, code)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch fundamentals %s: %w", code, err)
	}

	if err := Validate(fundamentals); err != nil {
		e.logger.WithStock(code).WithError(err).Debug("Lite score skipped")
		return 0, nil, err
	}

	details := EvaluateLite(fundamentals)
	return details.Score(), details, nil
}

// Validate rejects fundamentals missing a series or with a short net income series
func Validate(f *contracts.Fundamentals) error {
	if f == nil {
		return fmt.Errorf("%w: no fundamentals", contracts.ErrInsufficientData)
	}

	for name, series := range f.Series() {
		if len(series) == 0 {
			return fmt.Errorf("%w: missing %s", contracts.ErrInsufficientData, name)
		}
	}

	// 당기순이익이 기준 시계열 (최소 2개년)
	if len(f.NetIncome) < 2 {
		return fmt.Errorf("%w: net_income has %d years, need 2", contracts.ErrInsufficientData, len(f.NetIncome))
	}

	return nil
}

// EvaluateLite runs the six checks. Each check degrades to indeterminate on its own.
func EvaluateLite(f *contracts.Fundamentals) *contracts.LiteDetails {
	return &contracts.LiteDetails{
		NetIncomePositive:         netIncomePositive(f.NetIncome),
		ROAIncreasing:             higherIsBetter(f.NetIncome, f.TotalAssets, "roa", 100),
		DebtRatioDecreasing:       lowerIsBetter(f.TotalDebt, f.TotalAssets, "debt_ratio", 100),
		SharesNotIncreased:        sharesNotIncreased(f.SharesOutstanding),
		OperatingMarginIncreasing: higherIsBetter(f.OperatingIncome, f.Revenue, "operating_margin", 100),
		AssetTurnoverIncreasing:   higherIsBetter(f.Revenue, f.TotalAssets, "asset_turnover", 1),
	}
}

func netIncomePositive(ni contracts.FinancialSeries) contracts.CheckResult {
	cur, err := at(ni, "net_income", 0)
	if err != nil {
		return contracts.Indeterminate(err)
	}
	prev, err := at(ni, "net_income", 1)
	if err != nil {
		return contracts.Indeterminate(err)
	}
	return compare(cur, prev, cur > 0, 1)
}

func sharesNotIncreased(shares contracts.FinancialSeries) contracts.CheckResult {
	cur, err := at(shares, "shares_outstanding", 0)
	if err != nil {
		return contracts.Indeterminate(err)
	}
	prev, err := at(shares, "shares_outstanding", 1)
	if err != nil {
		return contracts.Indeterminate(err)
	}
	return compare(cur, prev, cur <= prev, 1)
}
