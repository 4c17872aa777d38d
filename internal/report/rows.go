package report

import (
	"strings"

	"github.com/wonny/fscore/internal/contracts"
)

// ResultRow is the flat file shape of one ranked score.
// ⭐ SSOT: Lite/Full/최종 결과 파일 컬럼 정의
type ResultRow struct {
	Rank              int      `csv:"rank"`
	Code              string   `csv:"code"`
	Name              string   `csv:"name"`
	Stage             string   `csv:"stage"`
	Score             int      `csv:"score"`
	MaxScore          int      `csv:"max_score"`
	LiteScore         int      `csv:"lite_score"`
	AdditionalScore   int      `csv:"additional_score"`
	Sector            string   `csv:"sector"`
	RelativeStrength  float64  `csv:"sector_relative_strength"`
	AdjustedScore     OptFloat `csv:"adjusted_score"`
	LiteAdjustedScore OptFloat `csv:"lite_adjusted_score"`
	FiscalYear        int      `csv:"fiscal_year"`

	NetIncomePositive         Flag `csv:"net_income_positive"`
	ROAIncreasing             Flag `csv:"roa_increasing"`
	DebtRatioDecreasing       Flag `csv:"debt_ratio_decreasing"`
	SharesNotIncreased        Flag `csv:"shares_not_increased"`
	OperatingMarginIncreasing Flag `csv:"operating_margin_increasing"`
	AssetTurnoverIncreasing   Flag `csv:"asset_turnover_increasing"`
	OperatingCFPositive       Flag `csv:"operating_cf_positive"`
	AccrualQuality            Flag `csv:"accrual_quality"`
	CurrentRatioIncreasing    Flag `csv:"current_ratio_increasing"`

	// 섹터 중앙값 비교에 쓰인 당기 비율
	ROA             OptFloat `csv:"roa"`
	DebtRatio       OptFloat `csv:"debt_ratio"`
	OperatingMargin OptFloat `csv:"operating_margin"`
	AssetTurnover   OptFloat `csv:"asset_turnover"`
}

// FromRanked flattens ranked results into rows
func FromRanked(results []contracts.RankedResult) []*ResultRow {
	rows := make([]*ResultRow, 0, len(results))
	for i := range results {
		r := &results[i]
		lite := r.Lite

		row := &ResultRow{
			Rank:              r.Rank,
			Code:              r.Code,
			Name:              r.Name,
			Stage:             string(r.Stage),
			Score:             r.Score,
			MaxScore:          r.MaxScore(),
			LiteScore:         lite.Score(),
			Sector:            r.Sector,
			RelativeStrength:  r.RelativeStrength,
			AdjustedScore:     OptFloat{V: r.AdjustedScore},
			LiteAdjustedScore: OptFloat{V: r.LiteAdjustedScore},

			NetIncomePositive:         flagOf(lite.NetIncomePositive),
			ROAIncreasing:             flagOf(lite.ROAIncreasing),
			DebtRatioDecreasing:       flagOf(lite.DebtRatioDecreasing),
			SharesNotIncreased:        flagOf(lite.SharesNotIncreased),
			OperatingMarginIncreasing: flagOf(lite.OperatingMarginIncreasing),
			AssetTurnoverIncreasing:   flagOf(lite.AssetTurnoverIncreasing),

			ROA:             OptFloat{V: lite.ROAIncreasing.Current},
			DebtRatio:       OptFloat{V: lite.DebtRatioDecreasing.Current},
			OperatingMargin: OptFloat{V: lite.OperatingMarginIncreasing.Current},
			AssetTurnover:   OptFloat{V: lite.AssetTurnoverIncreasing.Current},
		}

		if full := r.Full; full != nil {
			row.LiteScore = full.LiteScore
			row.AdditionalScore = full.AdditionalScore
			row.FiscalYear = full.FiscalYear
			row.OperatingCFPositive = flagOf(full.OperatingCFPositive)
			row.AccrualQuality = flagOf(full.AccrualQuality)
			row.CurrentRatioIncreasing = flagOf(full.CurrentRatioIncreasing)
		}

		rows = append(rows, row)
	}
	return rows
}

// ToRanked restores ranked results from rows.
// 판정값과 당기 비율만 복원됨 (전기 값은 파일에 없음)
func ToRanked(rows []*ResultRow) []contracts.RankedResult {
	results := make([]contracts.RankedResult, 0, len(rows))
	for _, row := range rows {
		lite := contracts.LiteDetails{
			NetIncomePositive:         row.NetIncomePositive.check(OptFloat{}),
			ROAIncreasing:             row.ROAIncreasing.check(row.ROA),
			DebtRatioDecreasing:       row.DebtRatioDecreasing.check(row.DebtRatio),
			SharesNotIncreased:        row.SharesNotIncreased.check(OptFloat{}),
			OperatingMarginIncreasing: row.OperatingMarginIncreasing.check(row.OperatingMargin),
			AssetTurnoverIncreasing:   row.AssetTurnoverIncreasing.check(row.AssetTurnover),
		}

		stage := contracts.ScoreStage(strings.ToLower(strings.TrimSpace(row.Stage)))
		if stage != contracts.StageFull {
			stage = contracts.StageLite
		}

		result := contracts.RankedResult{
			ScoreResult: contracts.ScoreResult{
				Code:  contracts.NormalizeCode(row.Code),
				Name:  row.Name,
				Stage: stage,
				Score: row.Score,
				Lite:  lite,
			},
			Sector:            row.Sector,
			RelativeStrength:  row.RelativeStrength,
			AdjustedScore:     row.AdjustedScore.V,
			LiteAdjustedScore: row.LiteAdjustedScore.V,
			Rank:              row.Rank,
		}
		if result.Sector == "" {
			result.Sector = contracts.DefaultSector
		}

		if stage == contracts.StageFull {
			result.Full = &contracts.FullDetails{
				Lite:                   lite,
				LiteScore:              row.LiteScore,
				AdditionalScore:        row.AdditionalScore,
				FiscalYear:             row.FiscalYear,
				OperatingCFPositive:    row.OperatingCFPositive.check(OptFloat{}),
				AccrualQuality:         row.AccrualQuality.check(OptFloat{}),
				CurrentRatioIncreasing: row.CurrentRatioIncreasing.check(OptFloat{}),
			}
		}

		results = append(results, result)
	}
	return results
}

// TimingRow is the flat file shape of one timing evaluation (also the checkpoint row)
type TimingRow struct {
	Code          string  `csv:"code"`
	Name          string  `csv:"name"`
	FScore        int     `csv:"fscore"`
	TimingScore   float64 `csv:"timing_score"`
	Rating        string  `csv:"rating"`
	CombinedScore float64 `csv:"combined_score"`
	Signals       string  `csv:"signals"`
	Close         float64 `csv:"close"`
	RSI           float64 `csv:"rsi"`
	VolumeRatio   float64 `csv:"volume_ratio"`
}

const signalSeparator = " | "

// FromTiming flattens a timing result
func FromTiming(r contracts.TimingResult) *TimingRow {
	return &TimingRow{
		Code:          r.Code,
		Name:          r.Name,
		FScore:        r.FScore,
		TimingScore:   r.TimingScore,
		Rating:        string(r.Rating),
		CombinedScore: r.CombinedScore,
		Signals:       strings.Join(r.Signals, signalSeparator),
		Close:         r.Close,
		RSI:           r.RSI,
		VolumeRatio:   r.VolumeRatio,
	}
}

// ToTiming restores a timing result
func (row *TimingRow) ToTiming() contracts.TimingResult {
	var signals []string
	if row.Signals != "" {
		signals = strings.Split(row.Signals, signalSeparator)
	}
	return contracts.TimingResult{
		Code:          contracts.NormalizeCode(row.Code),
		Name:          row.Name,
		FScore:        row.FScore,
		TimingScore:   row.TimingScore,
		Rating:        contracts.TimingRating(row.Rating),
		CombinedScore: row.CombinedScore,
		Signals:       signals,
		Close:         row.Close,
		RSI:           row.RSI,
		VolumeRatio:   row.VolumeRatio,
	}
}
