package sector

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/wonny/fscore/internal/contracts"
)

// Ratio is one of the four peer-compared ratios
type Ratio int

const (
	RatioROA Ratio = iota
	RatioOperatingMargin
	RatioAssetTurnover
	RatioDebt
)

// Ratios lists the compared ratios in a fixed order
var Ratios = []Ratio{RatioROA, RatioOperatingMargin, RatioAssetTurnover, RatioDebt}

func (r Ratio) String() string {
	switch r {
	case RatioROA:
		return "roa"
	case RatioOperatingMargin:
		return "operating_margin"
	case RatioAssetTurnover:
		return "asset_turnover"
	case RatioDebt:
		return "debt_ratio"
	default:
		return "unknown"
	}
}

// higherIsBetter is false only for the debt ratio
func (r Ratio) higherIsBetter() bool {
	return r != RatioDebt
}

// value extracts the current-year ratio recorded by the Lite checks
func (r Ratio) value(d *contracts.LiteDetails) *float64 {
	switch r {
	case RatioROA:
		return d.ROAIncreasing.Current
	case RatioOperatingMargin:
		return d.OperatingMarginIncreasing.Current
	case RatioAssetTurnover:
		return d.AssetTurnoverIncreasing.Current
	case RatioDebt:
		return d.DebtRatioDecreasing.Current
	default:
		return nil
	}
}

// Medians maps sector → ratio → peer median. Immutable once computed.
type Medians map[string]map[Ratio]float64

// Median returns the sector median for a ratio
func (m Medians) Median(sector string, r Ratio) (float64, bool) {
	v, ok := m[sector][r]
	return v, ok
}

// Rank wraps raw scores and orders them by raw score
func Rank(results []contracts.ScoreResult) []contracts.RankedResult {
	ranked := contracts.Unranked(results)
	Sort(ranked)
	return ranked
}

// Assign returns a copy of ranked with sectors looked up in table
func Assign(ranked []contracts.RankedResult, table *Table) []contracts.RankedResult {
	out := make([]contracts.RankedResult, len(ranked))
	for i, r := range ranked {
		r.Sector = table.Sector(r.Code)
		out[i] = r
	}
	return out
}

// ComputeMedians computes per-sector medians over the available ratio values
func ComputeMedians(ranked []contracts.RankedResult) Medians {
	values := make(map[string]map[Ratio][]float64)
	for i := range ranked {
		r := &ranked[i]
		for _, ratio := range Ratios {
			v := ratio.value(&r.Lite)
			if v == nil {
				continue
			}
			if values[r.Sector] == nil {
				values[r.Sector] = make(map[Ratio][]float64)
			}
			values[r.Sector][ratio] = append(values[r.Sector][ratio], *v)
		}
	}

	medians := make(Medians, len(values))
	for sector, byRatio := range values {
		medians[sector] = make(map[Ratio]float64, len(byRatio))
		for ratio, vs := range byRatio {
			m, err := stats.Median(vs)
			if err != nil {
				continue
			}
			medians[sector][ratio] = m
		}
	}
	return medians
}

// RelativeStrength is the share of available ratios beating the sector median, in [0,1].
// 비교 가능한 비율이 없으면 0
func RelativeStrength(r *contracts.RankedResult, medians Medians) float64 {
	beats, available := 0, 0
	for _, ratio := range Ratios {
		v := ratio.value(&r.Lite)
		if v == nil {
			continue
		}
		median, ok := medians.Median(r.Sector, ratio)
		if !ok {
			continue
		}
		available++

		if ratio.higherIsBetter() && *v > median || !ratio.higherIsBetter() && *v < median {
			beats++
		}
	}

	if available == 0 {
		return 0
	}
	return float64(beats) / float64(available)
}

// Adjust returns a new slice with relative strength and adjusted score set, then ranked.
// 입력은 변경하지 않음 (같은 입력에 반복 적용해도 결과 동일)
func Adjust(ranked []contracts.RankedResult, medians Medians) []contracts.RankedResult {
	out := make([]contracts.RankedResult, len(ranked))
	for i, r := range ranked {
		r.RelativeStrength = RelativeStrength(&r, medians)
		adjusted := float64(r.Score) + r.RelativeStrength
		r.AdjustedScore = &adjusted
		out[i] = r
	}
	Sort(out)
	return out
}

// Normalize runs the whole sector pass: assign sectors, compute peer medians, adjust
// ⭐ SSOT: 섹터 상대강도 보정
func Normalize(ranked []contracts.RankedResult, table *Table) ([]contracts.RankedResult, Medians) {
	if len(ranked) == 0 {
		return ranked, Medians{}
	}
	assigned := Assign(ranked, table)
	medians := ComputeMedians(assigned)
	return Adjust(assigned, medians), medians
}

// ContextByCode indexes each row's sector context for carrying into the Full stage
func ContextByCode(ranked []contracts.RankedResult) map[string]contracts.SectorContext {
	out := make(map[string]contracts.SectorContext, len(ranked))
	for i := range ranked {
		out[ranked[i].Code] = ranked[i].Context()
	}
	return out
}

// AttachContext carries Lite-stage sector context onto Full results.
// Full 단계에서는 중앙값을 다시 계산하지 않음
func AttachContext(full []contracts.ScoreResult, contexts map[string]contracts.SectorContext) []contracts.RankedResult {
	out := make([]contracts.RankedResult, len(full))
	for i, res := range full {
		row := contracts.RankedResult{ScoreResult: res, Sector: contracts.DefaultSector}
		if sc, ok := contexts[res.Code]; ok {
			row.Sector = sc.Sector
			row.RelativeStrength = sc.RelativeStrength
			adjusted := float64(res.Score) + sc.RelativeStrength
			row.AdjustedScore = &adjusted
			liteAdjusted := sc.AdjustedScore
			row.LiteAdjustedScore = &liteAdjusted
		}
		out[i] = row
	}
	return out
}

// Sort orders by ranking key desc, raw score desc, code asc and assigns 1-based ranks
func Sort(ranked []contracts.RankedResult) {
	sort.SliceStable(ranked, func(i, j int) bool {
		ki, kj := ranked[i].RankingKey(), ranked[j].RankingKey()
		if ki != kj {
			return ki > kj
		}
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Code < ranked[j].Code
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
}

// TopN returns the first n rows of an already sorted slice
func TopN(ranked []contracts.RankedResult, n int) []contracts.RankedResult {
	if n <= 0 || n >= len(ranked) {
		out := make([]contracts.RankedResult, len(ranked))
		copy(out, ranked)
		return out
	}
	out := make([]contracts.RankedResult, n)
	copy(out, ranked[:n])
	return out
}
