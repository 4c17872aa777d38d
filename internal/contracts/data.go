package contracts

import "time"

// MinQualityScore is the determinate-check ratio a scan needs to be trusted
const MinQualityScore = 0.7

// DataQualitySnapshot summarises how many F-Score checks could actually be evaluated in one scan
// ⭐ SSOT: 스캔 결과 데이터 품질 (체크별 판정 가능 비율)
type DataQualitySnapshot struct {
	Date         time.Time          `json:"date"`
	TotalStocks  int                `json:"total_stocks"`  // 점수 계산된 종목 수
	ValidStocks  int                `json:"valid_stocks"`  // 모든 체크가 판정된 종목 수
	Coverage     map[string]float64 `json:"coverage"`      // 체크별 판정 비율
	QualityScore float64            `json:"quality_score"` // 0.0 ~ 1.0
	Passed       bool               `json:"passed"`        // 품질 검증 통과 여부
}

// IsValid checks if the data quality snapshot meets minimum requirements
func (d *DataQualitySnapshot) IsValid() bool {
	return d.QualityScore >= MinQualityScore && d.ValidStocks > 0
}

// CoverageRate returns the average coverage rate across all checks
func (d *DataQualitySnapshot) CoverageRate() float64 {
	if len(d.Coverage) == 0 {
		return 0.0
	}

	total := 0.0
	for _, rate := range d.Coverage {
		total += rate
	}

	return total / float64(len(d.Coverage))
}
