package contracts

// DefaultSector is assigned when sector lookup fails
const DefaultSector = "UNKNOWN"

// SectorContext is the Lite-stage sector information carried into the Full stage
type SectorContext struct {
	Sector           string  `json:"sector"`
	RelativeStrength float64 `json:"sector_relative_strength"`
	AdjustedScore    float64 `json:"adjusted_score"`
}

// RankedResult is a score extended with sector context. Ordering key for ranking.
// ⭐ SSOT: 섹터 보정 후 랭킹 결과
type RankedResult struct {
	ScoreResult

	Sector           string   `json:"sector"`
	RelativeStrength float64  `json:"sector_relative_strength"`
	AdjustedScore    *float64 `json:"adjusted_score,omitempty"`

	// LiteAdjustedScore keeps the Lite-stage adjusted score on Full rows
	LiteAdjustedScore *float64 `json:"lite_adjusted_score,omitempty"`

	Rank int `json:"rank"`
}

// RankingKey is the adjusted score when present, otherwise the raw score
func (r *RankedResult) RankingKey() float64 {
	if r.AdjustedScore != nil {
		return *r.AdjustedScore
	}
	return float64(r.Score)
}

// Context extracts the sector context of a ranked row
func (r *RankedResult) Context() SectorContext {
	return SectorContext{
		Sector:           r.Sector,
		RelativeStrength: r.RelativeStrength,
		AdjustedScore:    r.RankingKey(),
	}
}

// Unranked wraps raw scores without sector context
func Unranked(results []ScoreResult) []RankedResult {
	ranked := make([]RankedResult, len(results))
	for i, r := range results {
		ranked[i] = RankedResult{ScoreResult: r, Sector: DefaultSector}
	}
	return ranked
}
