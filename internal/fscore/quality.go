package fscore

import (
	"time"

	"github.com/wonny/fscore/internal/contracts"
)

// check keys in scoring order
var (
	liteCheckNames = []string{
		"net_income_positive",
		"roa_increasing",
		"debt_ratio_decreasing",
		"shares_not_increased",
		"operating_margin_increasing",
		"asset_turnover_increasing",
	}
	additionalCheckNames = []string{
		"operating_cf_positive",
		"accrual_quality",
		"current_ratio_increasing",
	}
)

// Quality measures how many checks were determinate across scored securities.
// QualityScore는 체크별 판정 비율의 평균, 모든 체크가 판정된 종목은 ValidStocks로 집계
func Quality(results []contracts.ScoreResult, date time.Time) *contracts.DataQualitySnapshot {
	snapshot := &contracts.DataQualitySnapshot{
		Date:        date,
		TotalStocks: len(results),
		Coverage:    make(map[string]float64),
	}
	if len(results) == 0 {
		return snapshot
	}

	determinate := make(map[string]int)
	for _, r := range results {
		complete := true
		count := func(names []string, checks []contracts.CheckResult) {
			for i, c := range checks {
				if c.Outcome == contracts.OutcomeIndeterminate {
					complete = false
					continue
				}
				determinate[names[i]]++
			}
		}

		count(liteCheckNames, r.Lite.Checks())
		if r.Full != nil {
			count(additionalCheckNames, r.Full.AdditionalChecks())
		}
		if complete {
			snapshot.ValidStocks++
		}
	}

	names := liteCheckNames
	if hasFull(results) {
		names = append(append([]string{}, liteCheckNames...), additionalCheckNames...)
	}
	for _, name := range names {
		snapshot.Coverage[name] = float64(determinate[name]) / float64(len(results))
	}

	snapshot.QualityScore = snapshot.CoverageRate()
	snapshot.Passed = snapshot.IsValid()
	return snapshot
}

func hasFull(results []contracts.ScoreResult) bool {
	for _, r := range results {
		if r.Full != nil {
			return true
		}
	}
	return false
}
