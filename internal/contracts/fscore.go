package contracts

// Stage tags which engine produced a score
type ScoreStage string

const (
	StageLite ScoreStage = "lite"
	StageFull ScoreStage = "full"
)

// Maximum points per engine
const (
	MaxLiteScore       = 6
	MaxAdditionalScore = 3
	MaxFullScore       = MaxLiteScore + MaxAdditionalScore
)

// CheckOutcome is the tri-state result of one F-Score check
type CheckOutcome string

const (
	OutcomePass          CheckOutcome = "pass"
	OutcomeFail          CheckOutcome = "fail"
	OutcomeIndeterminate CheckOutcome = "indeterminate"
)

// CheckResult is one year-over-year check with the metrics it compared.
// Indeterminate checks carry the reason in Err and contribute 0 points.
type CheckResult struct {
	Outcome  CheckOutcome `json:"outcome"`
	Current  *float64     `json:"current,omitempty"`
	Previous *float64     `json:"previous,omitempty"`
	Err      error        `json:"-"`
}

// Passed reports a confirmed pass
func (c CheckResult) Passed() bool {
	return c.Outcome == OutcomePass
}

// Value returns true/false, or nil when indeterminate
func (c CheckResult) Value() *bool {
	switch c.Outcome {
	case OutcomePass:
		v := true
		return &v
	case OutcomeFail:
		v := false
		return &v
	default:
		return nil
	}
}

// Points returns 1 for a pass, otherwise 0
func (c CheckResult) Points() int {
	if c.Passed() {
		return 1
	}
	return 0
}

// Indeterminate builds a check that could not be evaluated
func Indeterminate(err error) CheckResult {
	return CheckResult{Outcome: OutcomeIndeterminate, Err: err}
}

// LiteDetails is the rationale of a Lite score
// ⭐ SSOT: Lite 6개 체크 항목
type LiteDetails struct {
	NetIncomePositive         CheckResult `json:"net_income_positive"`
	ROAIncreasing             CheckResult `json:"roa_increasing"`
	DebtRatioDecreasing       CheckResult `json:"debt_ratio_decreasing"`
	SharesNotIncreased        CheckResult `json:"shares_not_increased"`
	OperatingMarginIncreasing CheckResult `json:"operating_margin_increasing"`
	AssetTurnoverIncreasing   CheckResult `json:"asset_turnover_increasing"`
}

// Checks returns the six checks in scoring order
func (d *LiteDetails) Checks() []CheckResult {
	return []CheckResult{
		d.NetIncomePositive,
		d.ROAIncreasing,
		d.DebtRatioDecreasing,
		d.SharesNotIncreased,
		d.OperatingMarginIncreasing,
		d.AssetTurnoverIncreasing,
	}
}

// Score counts confirmed passes
func (d *LiteDetails) Score() int {
	score := 0
	for _, c := range d.Checks() {
		score += c.Points()
	}
	return score
}

// FullDetails is the rationale of a Full score: the embedded Lite rationale plus three registry checks
// ⭐ SSOT: Full 9개 체크 항목 (Lite 6 + 공시 3)
type FullDetails struct {
	Lite            LiteDetails `json:"lite"`
	LiteScore       int         `json:"lite_score"`
	AdditionalScore int         `json:"additional_score"`
	FiscalYear      int         `json:"fiscal_year"`

	OperatingCFPositive    CheckResult `json:"operating_cf_positive"`
	AccrualQuality         CheckResult `json:"accrual_quality"`
	CurrentRatioIncreasing CheckResult `json:"current_ratio_increasing"`

	// RegistryErr is set when the registry figures could not be fetched at all
	RegistryErr error `json:"-"`
}

// AdditionalChecks returns the three registry checks in scoring order
func (d *FullDetails) AdditionalChecks() []CheckResult {
	return []CheckResult{d.OperatingCFPositive, d.AccrualQuality, d.CurrentRatioIncreasing}
}

// ScoreResult is one scored security
type ScoreResult struct {
	Code  string       `json:"code"`
	Name  string       `json:"name"`
	Stage ScoreStage   `json:"stage"`
	Score int          `json:"score"`
	Lite  LiteDetails  `json:"lite"`
	Full  *FullDetails `json:"full,omitempty"`
}

// MaxScore returns the ceiling for the stage that produced the score
func (r *ScoreResult) MaxScore() int {
	if r.Stage == StageFull {
		return MaxFullScore
	}
	return MaxLiteScore
}
