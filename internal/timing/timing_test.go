package timing

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/internal/report"
	"github.com/wonny/fscore/pkg/logger"
)

var batchDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

// risingBars builds n bars with linearly increasing closes and flat volume
func risingBars(n int) []contracts.PriceBar {
	bars := make([]contracts.PriceBar, n)
	start := batchDate.AddDate(0, 0, -n)
	for i := range bars {
		c := 10000 + float64(i)*50
		bars[i] = contracts.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Open:   c - 20,
			High:   c + 30,
			Low:    c - 30,
			Close:  c,
			Volume: 100000,
		}
	}
	return bars
}

func signalNames(e Evaluation) []string {
	names := make([]string, 0, len(e.Signals))
	for _, s := range e.Signals {
		names = append(names, s.Name)
	}
	return names
}

func TestCompute_InsufficientBars(t *testing.T) {
	_, err := Compute(risingBars(MinBars - 1))
	assert.ErrorIs(t, err, contracts.ErrInsufficientData)

	ind, err := Compute(risingBars(MinBars))
	require.NoError(t, err)
	assert.Len(t, ind.SMA60, MinBars)
}

func TestEvaluate_RisingSeries(t *testing.T) {
	ind, err := Compute(risingBars(90))
	require.NoError(t, err)

	eval := Evaluate(ind)
	names := signalNames(eval)

	assert.Contains(t, names, "golden_cross")
	assert.Contains(t, names, "ma_alignment")
	assert.Contains(t, names, "volume")
	assert.Contains(t, names, "bollinger")
	assert.NotContains(t, names, "rsi", "monotonic gains push RSI above 70")

	assert.Equal(t, 1.0, eval.Signals[0].Points, "trend already established, no fresh cross")
	assert.InDelta(t, 1.0, eval.VolumeRatio, 1e-9)
	assert.Equal(t, 10000+89*50.0, eval.Close)
	assert.LessOrEqual(t, eval.Score, MaxScore)
	assert.Equal(t, Rate(eval.Score), eval.Rating)
}

func TestChecks(t *testing.T) {
	tests := []struct {
		name string
		fn   check
		ind  *Indicators
		want float64
	}{
		{
			name: "fresh golden cross",
			fn:   checkGoldenCross,
			ind:  &Indicators{SMA20: []float64{1, 1.5, 1.8, 2.1, 2.5}, SMA60: []float64{2, 2, 2, 2, 2}},
			want: 2,
		},
		{
			name: "sma20 above sma60",
			fn:   checkGoldenCross,
			ind:  &Indicators{SMA20: []float64{3, 3, 3, 3, 3}, SMA60: []float64{2, 2, 2, 2, 2}},
			want: 1,
		},
		{
			name: "sma20 below sma60",
			fn:   checkGoldenCross,
			ind:  &Indicators{SMA20: []float64{1, 1, 1, 1, 1}, SMA60: []float64{2, 2, 2, 2, 2}},
			want: 0,
		},
		{
			name: "full alignment",
			fn:   checkMAAlignment,
			ind:  &Indicators{SMA5: []float64{3}, SMA20: []float64{2}, SMA60: []float64{1}},
			want: 1,
		},
		{
			name: "short alignment",
			fn:   checkMAAlignment,
			ind:  &Indicators{SMA5: []float64{3}, SMA20: []float64{2}, SMA60: []float64{5}},
			want: 0.5,
		},
		{"rsi lower bound", checkRSI, &Indicators{RSI: []float64{30}}, 1},
		{"rsi upper bound", checkRSI, &Indicators{RSI: []float64{70}}, 1},
		{"rsi overbought", checkRSI, &Indicators{RSI: []float64{70.1}}, 0},
		{"rsi oversold", checkRSI, &Indicators{RSI: []float64{29.9}}, 0},
		{
			name: "macd above signal positive hist",
			fn:   checkMACD,
			ind:  &Indicators{MACD: []float64{2}, MACDSignal: []float64{1}, MACDHist: []float64{1}},
			want: 2,
		},
		{
			name: "macd above signal",
			fn:   checkMACD,
			ind:  &Indicators{MACD: []float64{2}, MACDSignal: []float64{1}, MACDHist: []float64{0}},
			want: 1,
		},
		{
			name: "macd above zero only",
			fn:   checkMACD,
			ind:  &Indicators{MACD: []float64{1}, MACDSignal: []float64{2}, MACDHist: []float64{-1}},
			want: 0.5,
		},
		{
			name: "macd bearish",
			fn:   checkMACD,
			ind:  &Indicators{MACD: []float64{-1}, MACDSignal: []float64{0}, MACDHist: []float64{-1}},
			want: 0,
		},
		{"volume surge", checkVolume, &Indicators{VolumeRatio: []float64{2.0}}, 1.5},
		{"volume up", checkVolume, &Indicators{VolumeRatio: []float64{1.5}}, 1},
		{"volume normal", checkVolume, &Indicators{VolumeRatio: []float64{0.8}}, 0.5},
		{"volume weak", checkVolume, &Indicators{VolumeRatio: []float64{0.79}}, 0},
		{
			name: "bollinger lower bounce",
			fn:   checkBollinger,
			ind: &Indicators{
				Close: []float64{95, 93, 92}, Low: []float64{94, 90.5, 91},
				BBLower: []float64{90}, BBMiddle: []float64{100},
			},
			want: 1,
		},
		{
			name: "bollinger lower zone without touch",
			fn:   checkBollinger,
			ind: &Indicators{
				Close: []float64{95, 93, 92}, Low: []float64{94, 92.5, 92},
				BBLower: []float64{90}, BBMiddle: []float64{100},
			},
			want: 0.5,
		},
		{
			name: "bollinger above middle",
			fn:   checkBollinger,
			ind:  &Indicators{Close: []float64{105}, Low: []float64{104}, BBLower: []float64{90}, BBMiddle: []float64{100}},
			want: 0.5,
		},
		{
			name: "bollinger neutral",
			fn:   checkBollinger,
			ind:  &Indicators{Close: []float64{97}, Low: []float64{96}, BBLower: []float64{90}, BBMiddle: []float64{100}},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, desc := tt.fn(tt.ind)
			assert.Equal(t, tt.want, got)
			if got > 0 {
				assert.NotEmpty(t, desc)
			}
		})
	}
}

func TestRateAndCombined(t *testing.T) {
	tests := []struct {
		score float64
		want  contracts.TimingRating
	}{
		{10, contracts.RatingA},
		{7, contracts.RatingA},
		{6.99, contracts.RatingB},
		{5, contracts.RatingB},
		{3, contracts.RatingC},
		{2.5, contracts.RatingD},
		{0, contracts.RatingD},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Rate(tt.score), "score %v", tt.score)
	}

	assert.Equal(t, 140.0, Combined(9, 10))
	assert.Equal(t, 92.5, Combined(8, 2.5))
	assert.Equal(t, "관망", Recommendation(contracts.RatingC))
}

type fakePrices struct {
	bars  map[string][]contracts.PriceBar
	calls int32
}

func (f *fakePrices) FetchPrices(ctx context.Context, code string, from, to time.Time) ([]contracts.PriceBar, error) {
	atomic.AddInt32(&f.calls, 1)
	if !from.Before(to) {
		return nil, contracts.ErrSourceUnavailable
	}
	return f.bars[code], nil
}

func writeFScoreFile(t *testing.T, dir string) string {
	t.Helper()
	path := report.ArtifactPath(dir, report.PrefixFinal, batchDate)
	rows := []*report.ResultRow{
		{Rank: 1, Code: "000001", Name: "가", Stage: "full", Score: 8},
		{Rank: 2, Code: "000002", Name: "나", Stage: "full", Score: 6},
		{Rank: 3, Code: "000003", Name: "다", Stage: "full", Score: 4},
	}
	require.NoError(t, report.WriteCSV(path, rows))
	return path
}

func TestLoadScreened(t *testing.T) {
	path := writeFScoreFile(t, t.TempDir())

	screened, err := LoadScreened(path, 5)
	require.NoError(t, err)
	require.Len(t, screened, 2)
	assert.Equal(t, "000001", screened[0].Code)

	_, err = LoadScreened("/nonexistent.csv", 5)
	assert.Error(t, err)
}

func TestBatch_RunAndResume(t *testing.T) {
	dir := t.TempDir()
	input := writeFScoreFile(t, dir)

	prices := &fakePrices{bars: map[string][]contracts.PriceBar{
		"000001": risingBars(90),
		"000002": risingBars(30), // 데이터 부족
		"000003": risingBars(90), // F-Score 미달로 제외
	}}
	cfg := BatchConfig{
		Date:               batchDate,
		Input:              input,
		MinFScore:          5,
		Workers:            2,
		OutputDir:          dir,
		CheckpointInterval: 1,
	}

	batch := NewBatch(prices, nil, logger.NewNop())
	result, err := batch.Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Candidates)
	assert.Equal(t, 1, result.Progress.Failed)
	require.Len(t, result.Results, 1)

	got := result.Results[0]
	assert.Equal(t, "000001", got.Code)
	assert.Equal(t, 8, got.FScore)
	assert.Equal(t, Combined(8, got.TimingScore), got.CombinedScore)
	assert.NotEmpty(t, got.Signals)

	assert.Contains(t, result.Artifact, "timing_checkpoint_20240315.csv")
	_, err = os.Stat(result.Artifact)
	require.NoError(t, err)

	// 재실행: 체크포인트에 있는 종목은 건너뜀
	atomic.StoreInt32(&prices.calls, 0)
	again, err := batch.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&prices.calls))
	require.Len(t, again.Results, 1)
	assert.Equal(t, got.Signals, again.Results[0].Signals)
}

func TestBatch_ResumeWithHigherMinFScore(t *testing.T) {
	dir := t.TempDir()
	input := writeFScoreFile(t, dir)

	prices := &fakePrices{bars: map[string][]contracts.PriceBar{
		"000001": risingBars(90),
		"000003": risingBars(90),
	}}
	cfg := BatchConfig{
		Date:               batchDate,
		Input:              input,
		MinFScore:          0,
		Workers:            2,
		OutputDir:          dir,
		CheckpointInterval: 1,
	}

	batch := NewBatch(prices, nil, logger.NewNop())
	first, err := batch.Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, first.Results, 2)

	// 같은 날짜에 기준을 올려 재실행: 000003 은 체크포인트에 남아 있어도 제외
	cfg.MinFScore = 5
	again, err := batch.Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Candidates)
	require.Len(t, again.Results, 1)
	assert.Equal(t, "000001", again.Results[0].Code)
}

func TestSortByCombined(t *testing.T) {
	results := []contracts.TimingResult{
		{Code: "000003", CombinedScore: 80},
		{Code: "000002", CombinedScore: 95},
		{Code: "000001", CombinedScore: 80},
	}
	SortByCombined(results)
	assert.Equal(t, "000002", results[0].Code)
	assert.Equal(t, "000001", results[1].Code)
}
