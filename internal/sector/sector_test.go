package sector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/internal/external/krx"
	"github.com/wonny/fscore/pkg/logger"
)

func ptr(v float64) *float64 { return &v }

func current(v *float64) contracts.CheckResult {
	if v == nil {
		return contracts.Indeterminate(contracts.ErrComputation)
	}
	return contracts.CheckResult{Outcome: contracts.OutcomeFail, Current: v}
}

// result builds a Lite score with roa, margin, turnover, debt current values
func result(code string, score int, roa, margin, turnover, debt *float64) contracts.ScoreResult {
	return contracts.ScoreResult{
		Code:  code,
		Stage: contracts.StageLite,
		Score: score,
		Lite: contracts.LiteDetails{
			ROAIncreasing:             current(roa),
			OperatingMarginIncreasing: current(margin),
			AssetTurnoverIncreasing:   current(turnover),
			DebtRatioDecreasing:       current(debt),
		},
	}
}

func byCode(ranked []contracts.RankedResult) map[string]contracts.RankedResult {
	out := make(map[string]contracts.RankedResult)
	for _, r := range ranked {
		out[r.Code] = r
	}
	return out
}

func TestNormalize_SameScoreDifferentStrength(t *testing.T) {
	table := NewTable(map[string]string{"000001": "전기전자", "000002": "전기전자"})
	ranked := Rank([]contracts.ScoreResult{
		result("000001", 4, ptr(10), nil, nil, nil),
		result("000002", 4, ptr(5), nil, nil, nil),
	})

	adjusted, medians := Normalize(ranked, table)
	got := byCode(adjusted)

	m, ok := medians.Median("전기전자", RatioROA)
	require.True(t, ok)
	assert.Equal(t, 7.5, m)

	assert.Equal(t, 1.0, got["000001"].RelativeStrength)
	assert.Equal(t, 0.0, got["000002"].RelativeStrength)
	assert.Equal(t, 5.0, *got["000001"].AdjustedScore)
	assert.Equal(t, 4.0, *got["000002"].AdjustedScore)
	assert.Equal(t, 1, got["000001"].Rank)
}

func TestRelativeStrength_DirectionAndMissing(t *testing.T) {
	table := NewTable(map[string]string{"000001": "화학", "000002": "화학", "000003": "화학"})
	ranked := Rank([]contracts.ScoreResult{
		// 모든 비율 우수 (부채비율은 낮을수록 우수)
		result("000001", 3, ptr(9), ptr(20), ptr(1.5), ptr(20)),
		result("000002", 3, ptr(5), ptr(10), ptr(1.0), ptr(50)),
		result("000003", 3, ptr(1), ptr(5), ptr(0.5), ptr(80)),
	})
	ranked = append(ranked, contracts.RankedResult{
		ScoreResult: result("000004", 3, nil, nil, nil, nil),
	})

	adjusted, _ := Normalize(ranked, table)
	got := byCode(adjusted)

	assert.Equal(t, 1.0, got["000001"].RelativeStrength)
	assert.Equal(t, 0.0, got["000002"].RelativeStrength, "equal to the median does not beat it")
	assert.Equal(t, 0.0, got["000003"].RelativeStrength)
	assert.Equal(t, 0.0, got["000004"].RelativeStrength, "all ratios missing")
	assert.Equal(t, contracts.DefaultSector, got["000004"].Sector)

	for _, r := range adjusted {
		assert.GreaterOrEqual(t, r.RelativeStrength, 0.0)
		assert.LessOrEqual(t, r.RelativeStrength, 1.0)
	}
}

func TestRelativeStrength_PartialRatios(t *testing.T) {
	table := NewTable(map[string]string{"000001": "A", "000002": "A"})
	ranked := Rank([]contracts.ScoreResult{
		result("000001", 2, ptr(10), ptr(1), nil, nil),
		result("000002", 2, ptr(5), ptr(3), nil, nil),
	})

	adjusted, _ := Normalize(ranked, table)
	got := byCode(adjusted)

	// 2개 비율 중 1개 우수 → 0.5 (누락 비율은 분모에서 제외)
	assert.Equal(t, 0.5, got["000001"].RelativeStrength)
	assert.Equal(t, 0.5, got["000002"].RelativeStrength)
}

func TestNormalize_Idempotent(t *testing.T) {
	table := NewTable(map[string]string{"000001": "A", "000002": "A", "000003": "B"})
	ranked := Rank([]contracts.ScoreResult{
		result("000001", 5, ptr(3), ptr(7), ptr(0.9), ptr(40)),
		result("000002", 4, ptr(6), ptr(2), ptr(1.1), ptr(30)),
		result("000003", 6, ptr(1), nil, ptr(2.0), ptr(10)),
	})

	once, medians := Normalize(ranked, table)
	twice, _ := Normalize(once, table)
	again := Adjust(once, medians)

	for i := range once {
		assert.Equal(t, *once[i].AdjustedScore, *twice[i].AdjustedScore)
		assert.Equal(t, *once[i].AdjustedScore, *again[i].AdjustedScore)
		assert.Equal(t, once[i].Code, twice[i].Code)
	}
	assert.Nil(t, ranked[0].AdjustedScore, "input left untouched")
}

func TestNormalize_Empty(t *testing.T) {
	out, medians := Normalize(nil, NewTable(nil))
	assert.Empty(t, out)
	assert.Empty(t, medians)
}

func TestSortAndTopN(t *testing.T) {
	ranked := []contracts.RankedResult{
		{ScoreResult: contracts.ScoreResult{Code: "000003", Score: 5}},
		{ScoreResult: contracts.ScoreResult{Code: "000001", Score: 5}},
		{ScoreResult: contracts.ScoreResult{Code: "000002", Score: 4}, AdjustedScore: ptr(6.0)},
	}
	Sort(ranked)

	assert.Equal(t, []string{"000002", "000001", "000003"}, []string{ranked[0].Code, ranked[1].Code, ranked[2].Code})
	assert.Equal(t, 3, ranked[2].Rank)

	assert.Len(t, TopN(ranked, 2), 2)
	assert.Len(t, TopN(ranked, 10), 3)
	assert.Len(t, TopN(ranked, 0), 3)
}

func TestAttachContext(t *testing.T) {
	contexts := map[string]contracts.SectorContext{
		"000001": {Sector: "은행", RelativeStrength: 0.75, AdjustedScore: 5.75},
	}
	full := []contracts.ScoreResult{
		{Code: "000001", Stage: contracts.StageFull, Score: 8},
		{Code: "000009", Stage: contracts.StageFull, Score: 7},
	}

	got := byCode(AttachContext(full, contexts))

	assert.Equal(t, "은행", got["000001"].Sector)
	assert.Equal(t, 8.75, *got["000001"].AdjustedScore)
	assert.Equal(t, 5.75, *got["000001"].LiteAdjustedScore)

	assert.Equal(t, contracts.DefaultSector, got["000009"].Sector)
	assert.Nil(t, got["000009"].AdjustedScore)
	unknown := got["000009"]
	assert.Equal(t, 7.0, unknown.RankingKey())
}

func TestTable(t *testing.T) {
	var nilTable *Table
	assert.Equal(t, contracts.DefaultSector, nilTable.Sector("005930"))
	assert.Zero(t, nilTable.Len())

	table := NewTable(map[string]string{"5930": "전기전자", "000660": ""})
	assert.Equal(t, "전기전자", table.Sector("005930"))
	assert.Equal(t, contracts.DefaultSector, table.Sector("000660"))
}

type fakeFetcher struct {
	calls int
	rows  map[string][]krx.SectorRow // date|market → rows
	err   error
}

func (f *fakeFetcher) FetchSectors(ctx context.Context, date time.Time, market krx.MarketID) ([]krx.SectorRow, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[date.Format("20060102")+"|"+string(market)], nil
}

func TestLoader_WalksBackToTradingDay(t *testing.T) {
	fetcher := &fakeFetcher{rows: map[string][]krx.SectorRow{
		"20240315|STK": {{Code: "005930", Sector: "전기전자"}},
		"20240315|KSQ": {{Code: "005930", Sector: "중복"}, {Code: "035720", Sector: "서비스업"}},
	}}
	loader := NewLoader(fetcher, nil, 5, logger.NewNop()).WithPause(0)
	// 2024-03-18(월) 휴장 가정 → 주말 건너뛰고 03-15(금)
	loader.now = func() time.Time { return time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC) }

	table := loader.Load(context.Background())

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, "전기전자", table.Sector("005930"))
	assert.Equal(t, "서비스업", table.Sector("035720"))
	assert.Equal(t, 4, fetcher.calls, "monday (2) + friday (2), weekend skipped")
	assert.Equal(t, 15, table.TradeDate().Day())
}

func TestLoader_NeverFails(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("blocked")}
	loader := NewLoader(fetcher, nil, 3, logger.NewNop()).WithPause(0)

	table := loader.Load(context.Background())
	require.NotNil(t, table)
	assert.Zero(t, table.Len())
	assert.Equal(t, contracts.DefaultSector, table.Sector("005930"))
}
