package fscore

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/pkg/logger"
)

// LiteScorer is the Lite contract the Full engine delegates to
type LiteScorer interface {
	Score(ctx context.Context, code string) (int, *contracts.LiteDetails, error)
}

// RegistrySource supplies the regulatory figures for the three Full checks (OpenDART in production)
type RegistrySource interface {
	FetchFScoreInputs(ctx context.Context, code string, fiscalYear int) (*contracts.RegistryFigures, error)
}

// FullEngine wraps the Lite engine and adds the registry checks
// ⭐ SSOT: Full F-Score (0~9) 계산은 여기서만
type FullEngine struct {
	lite     LiteScorer
	registry RegistrySource
	logger   *logger.Logger
	now      func() time.Time
}

// NewFullEngine creates a Full engine
func NewFullEngine(lite LiteScorer, registry RegistrySource, log *logger.Logger) *FullEngine {
	return &FullEngine{
		lite:     lite,
		registry: registry,
		logger:   log.WithComponent("full_engine"),
		now:      time.Now,
	}
}

// DefaultFiscalYear is the prior calendar year
func (e *FullEngine) DefaultFiscalYear() int {
	return e.now().Year() - 1
}

// Score evaluates the Lite checks then the registry checks for fiscalYear (0 = prior year).
// A Lite failure fails the Full score identically. A registry failure leaves the
// three extra checks indeterminate and keeps the Lite score.
func (e *FullEngine) Score(ctx context.Context, code string, fiscalYear int) (int, *contracts.FullDetails, error) {
	liteScore, liteDetails, err := e.lite.Score(ctx, code)
	if err != nil {
		return 0, nil, err
	}

	if fiscalYear <= 0 {
		fiscalYear = e.DefaultFiscalYear()
	}

	details := &contracts.FullDetails{
		Lite:       *liteDetails,
		LiteScore:  liteScore,
		FiscalYear: fiscalYear,
	}

	figures, err := e.registry.FetchFScoreInputs(ctx, code, fiscalYear)
	if err != nil || figures == nil {
		if err == nil {
			err = fmt.Errorf("%w: no registry figures", contracts.ErrSourceUnavailable)
		}
		e.logger.WithStock(code).WithError(err).Debug("Registry figures unavailable")
		details.RegistryErr = err
		details.OperatingCFPositive = contracts.Indeterminate(err)
		details.AccrualQuality = contracts.Indeterminate(err)
		details.CurrentRatioIncreasing = contracts.Indeterminate(err)
		return liteScore, details, nil
	}

	EvaluateAdditional(details, figures)
	return details.LiteScore + details.AdditionalScore, details, nil
}

// EvaluateAdditional fills the three registry checks and the additional score
func EvaluateAdditional(details *contracts.FullDetails, fig *contracts.RegistryFigures) {
	details.OperatingCFPositive = operatingCFPositive(fig)
	details.AccrualQuality = accrualQuality(fig)
	details.CurrentRatioIncreasing = currentRatioIncreasing(fig)

	details.AdditionalScore = 0
	for _, c := range details.AdditionalChecks() {
		details.AdditionalScore += c.Points()
	}
}

func missing(name string) contracts.CheckResult {
	return contracts.Indeterminate(fmt.Errorf("%w: %s not reported", contracts.ErrComputation, name))
}

func operatingCFPositive(fig *contracts.RegistryFigures) contracts.CheckResult {
	if fig.OperatingCFCurrent == nil {
		return missing("operating_cf")
	}
	cf := *fig.OperatingCFCurrent
	result := compare(cf, 0, cf > 0, 1)
	result.Previous = fig.OperatingCFPrevious
	return result
}

// accrualQuality passes when operating cash flow exceeds net income
func accrualQuality(fig *contracts.RegistryFigures) contracts.CheckResult {
	if fig.OperatingCFCurrent == nil {
		return missing("operating_cf")
	}
	if fig.NetIncomeCurrent == nil {
		return missing("net_income")
	}
	cf, ni := *fig.OperatingCFCurrent, *fig.NetIncomeCurrent
	return compare(cf, ni, cf > ni, 1)
}

func currentRatioIncreasing(fig *contracts.RegistryFigures) contracts.CheckResult {
	if fig.CurrentAssetsCurrent == nil || fig.CurrentAssetsPrevious == nil ||
		fig.CurrentLiabilitiesCurrent == nil || fig.CurrentLiabilitiesPrevious == nil {
		return missing("current_ratio inputs")
	}

	// 유동부채 0 이하는 비율 계산 불가
	if *fig.CurrentLiabilitiesCurrent <= 0 || *fig.CurrentLiabilitiesPrevious <= 0 {
		return contracts.Indeterminate(fmt.Errorf("%w: current liabilities not positive", contracts.ErrComputation))
	}

	cur, err := divide(*fig.CurrentAssetsCurrent, *fig.CurrentLiabilitiesCurrent, "current_ratio")
	if err != nil {
		return contracts.Indeterminate(err)
	}
	prev, err := divide(*fig.CurrentAssetsPrevious, *fig.CurrentLiabilitiesPrevious, "current_ratio")
	if err != nil {
		return contracts.Indeterminate(err)
	}
	return compare(cur, prev, cur > prev, 1)
}
