package hybrid

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/internal/sector"
	"github.com/wonny/fscore/internal/universe"
	"github.com/wonny/fscore/pkg/logger"
)

var runDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func ptr(v float64) *float64 { return &v }

// liteFixture: code → (score, roa). Missing codes fail with ErrInsufficientData.
type liteFixture map[string]struct {
	score int
	roa   float64
}

func (f liteFixture) task(calls *int32) ScoreTask {
	return func(ctx context.Context, c contracts.Candidate) (contracts.ScoreResult, error) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		entry, ok := f[c.Code]
		if !ok {
			return contracts.ScoreResult{}, contracts.ErrInsufficientData
		}
		return contracts.ScoreResult{
			Code:  c.Code,
			Name:  c.Name,
			Stage: contracts.StageLite,
			Score: entry.score,
			Lite: contracts.LiteDetails{
				ROAIncreasing: contracts.CheckResult{Outcome: contracts.OutcomePass, Current: ptr(entry.roa)},
			},
		}, nil
	}
}

// fullTask adds a fixed additional score per code
func fullTask(additional map[string]int, lite liteFixture, prepared *int32) func(int) ScoreTask {
	return func(fiscalYear int) ScoreTask {
		return func(ctx context.Context, c contracts.Candidate) (contracts.ScoreResult, error) {
			if prepared != nil && atomic.LoadInt32(prepared) == 0 {
				return contracts.ScoreResult{}, errors.New("registry not prepared")
			}
			entry, ok := lite[c.Code]
			if !ok {
				return contracts.ScoreResult{}, contracts.ErrInsufficientData
			}
			add := additional[c.Code]
			return contracts.ScoreResult{
				Code:  c.Code,
				Name:  c.Name,
				Stage: contracts.StageFull,
				Score: entry.score + add,
				Full: &contracts.FullDetails{
					LiteScore:       entry.score,
					AdditionalScore: add,
					FiscalYear:      fiscalYear,
				},
			}, nil
		}
	}
}

type fakeSectors struct{ table *sector.Table }

func (f fakeSectors) Load(ctx context.Context) *sector.Table { return f.table }

type fakeRegistry struct{ prepared *int32 }

func (f fakeRegistry) Prepare(ctx context.Context) error {
	atomic.StoreInt32(f.prepared, 1)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	called int
	err    error
}

func (f *fakeNotifier) NotifyRun(ctx context.Context, r *RunResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called++
	return f.err
}

func fixture() (universe.Static, liteFixture, map[string]int) {
	cands := universe.Static{
		{Code: "000001", Name: "가"},
		{Code: "000002", Name: "나"},
		{Code: "000003", Name: "다"},
		{Code: "000004", Name: "라"},
		{Code: "000005", Name: "마"}, // 데이터 없음
	}
	lite := liteFixture{
		"000001": {score: 6, roa: 12},
		"000002": {score: 5, roa: 3},
		"000003": {score: 5, roa: 9},
		"000004": {score: 2, roa: 1},
	}
	additional := map[string]int{"000001": 3, "000002": 1, "000003": 2}
	return cands, lite, additional
}

func baseConfig(dir string) RunConfig {
	return RunConfig{
		Date:          runDate,
		LiteWorkers:   2,
		FullWorkers:   2,
		TopN:          3,
		FinalMinScore: 7,
		OutputDir:     dir,
	}
}

func TestRun_FullPipeline(t *testing.T) {
	dir := t.TempDir()
	cands, lite, additional := fixture()
	var prepared int32
	notifier := &fakeNotifier{err: errors.New("telegram down")}

	table := sector.NewTable(map[string]string{"000001": "IT", "000002": "IT", "000003": "IT", "000004": "IT"})
	orch := NewOrchestrator(Dependencies{
		Universe: cands,
		Lite:     lite.task(nil),
		Full:     fullTask(additional, lite, &prepared),
		Registry: fakeRegistry{prepared: &prepared},
		Sectors:  fakeSectors{table: table},
		Notifier: notifier,
	}, logger.NewNop())

	result, err := orch.Run(context.Background(), baseConfig(dir))
	require.NoError(t, err, "notifier failure must not fail the run")

	assert.Equal(t, StageDone, result.Stage)
	assert.Equal(t, []Stage{
		StageInit, StageLiteScan, StageSectorAdjustLite, StageSelectTopN, StageFullScan,
		StageAttachSectorContext, StageRankFull, StageFilterFinal, StageDone,
	}, result.CompletedStages)
	assert.NotEmpty(t, result.RunID)

	// Lite: 4 scored, 1 failed. 000003 beats 000002 on sector ROA
	require.Len(t, result.Lite, 4)
	assert.Equal(t, 1, result.LiteProgress.Failed)
	assert.Equal(t, "000003", result.Lite[1].Code)

	// Top 3 → Full
	require.Len(t, result.Full, 3)
	assert.Equal(t, "000001", result.Full[0].Code)
	assert.Equal(t, 9, result.Full[0].Score)
	assert.Equal(t, "IT", result.Full[0].Sector)
	require.NotNil(t, result.Full[0].LiteAdjustedScore)
	assert.Equal(t, 7.0, *result.Full[0].LiteAdjustedScore)
	assert.Equal(t, 10.0, *result.Full[0].AdjustedScore)

	// Final: raw ≥ 7 → 000001 (9), 000003 (7)
	require.Len(t, result.Final, 2)
	assert.Equal(t, []string{"000001", "000003"}, []string{result.Final[0].Code, result.Final[1].Code})
	assert.Equal(t, 2, result.Final[1].Rank)

	for _, stage := range []Stage{StageSectorAdjustLite, StageRankFull, StageFilterFinal} {
		_, err := os.Stat(result.Artifacts[stage])
		assert.NoError(t, err, "artifact for %s", stage)
	}
	assert.Contains(t, result.Artifacts[StageFilterFinal], "hybrid_final_20240315.csv")
	assert.Equal(t, 1, notifier.called)
}

func TestRun_EmptyUniverse(t *testing.T) {
	var liteCalls int32
	orch := NewOrchestrator(Dependencies{
		Universe: universe.Static{},
		Lite:     liteFixture{}.task(&liteCalls),
		Sectors:  fakeSectors{},
	}, logger.NewNop())

	result, err := orch.Run(context.Background(), baseConfig(t.TempDir()))
	require.NoError(t, err)

	assert.True(t, result.Empty)
	assert.Equal(t, StageLiteScan, result.Stage)
	assert.NotEmpty(t, result.Reason)
	assert.Empty(t, result.Final)
	assert.Zero(t, liteCalls)
}

func TestRun_EmptyFullScan(t *testing.T) {
	cands, lite, _ := fixture()
	orch := NewOrchestrator(Dependencies{
		Universe: cands,
		Lite:     lite.task(nil),
		Full: func(int) ScoreTask {
			return func(ctx context.Context, c contracts.Candidate) (contracts.ScoreResult, error) {
				return contracts.ScoreResult{}, contracts.ErrSourceUnavailable
			}
		},
		Sectors: fakeSectors{},
	}, logger.NewNop())

	result, err := orch.Run(context.Background(), baseConfig(t.TempDir()))
	require.NoError(t, err)
	assert.True(t, result.Empty)
	assert.Equal(t, StageFullScan, result.Stage)
	assert.Len(t, result.Lite, 4)
}

func TestRun_UniverseError(t *testing.T) {
	orch := NewOrchestrator(Dependencies{
		Universe: universe.NewFileProvider("/nonexistent/df_sorted.csv"),
		Sectors:  fakeSectors{},
	}, logger.NewNop())

	_, err := orch.Run(context.Background(), baseConfig(t.TempDir()))
	assert.Error(t, err)
}

func TestRun_InvalidConfig(t *testing.T) {
	orch := NewOrchestrator(Dependencies{}, logger.NewNop())

	cfg := baseConfig(t.TempDir())
	cfg.TopN = 0
	_, err := orch.Run(context.Background(), cfg)
	assert.Error(t, err)

	cfg = baseConfig(t.TempDir())
	cfg.FinalMinScore = 10
	_, err = orch.Run(context.Background(), cfg)
	assert.Error(t, err)
}

func TestRun_ResumeFromLiteAndFull(t *testing.T) {
	dir := t.TempDir()
	cands, lite, additional := fixture()
	var prepared int32 = 1

	first, err := NewOrchestrator(Dependencies{
		Universe: cands,
		Lite:     lite.task(nil),
		Full:     fullTask(additional, lite, &prepared),
		Sectors:  fakeSectors{},
	}, logger.NewNop()).Run(context.Background(), baseConfig(dir))
	require.NoError(t, err)

	failingLite := func(ctx context.Context, c contracts.Candidate) (contracts.ScoreResult, error) {
		t.Errorf("lite scan must be skipped, got %s", c.Code)
		return contracts.ScoreResult{}, errors.New("unexpected")
	}

	// --from-lite
	cfg := baseConfig(dir)
	cfg.FromLite = first.Artifacts[StageSectorAdjustLite]
	fromLite, err := NewOrchestrator(Dependencies{
		Lite:    failingLite,
		Full:    fullTask(additional, lite, &prepared),
		Sectors: fakeSectors{},
	}, logger.NewNop()).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotContains(t, fromLite.CompletedStages, StageLiteScan)
	assert.Equal(t, codes(first.Final), codes(fromLite.Final))

	// --from-full
	cfg = baseConfig(dir)
	cfg.FromFull = first.Artifacts[StageRankFull]
	cfg.FinalMinScore = 9
	fromFull, err := NewOrchestrator(Dependencies{Lite: failingLite, Sectors: fakeSectors{}}, logger.NewNop()).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotContains(t, fromFull.CompletedStages, StageFullScan)
	assert.Equal(t, []string{"000001"}, codes(fromFull.Final))
}

func TestRun_LiteCheckpointResume(t *testing.T) {
	dir := t.TempDir()
	cands, lite, additional := fixture()
	var prepared int32 = 1
	var calls int32

	cfg := baseConfig(dir)
	cfg.LiteCheckpoint = true
	cfg.CheckpointInterval = 1

	deps := Dependencies{
		Universe: cands,
		Lite:     lite.task(&calls),
		Full:     fullTask(additional, lite, &prepared),
		Sectors:  fakeSectors{},
	}

	_, err := NewOrchestrator(deps, logger.NewNop()).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))

	// 재실행: 성공한 4종목은 체크포인트에서 복원, 실패한 1종목만 재시도
	atomic.StoreInt32(&calls, 0)
	second, err := NewOrchestrator(deps, logger.NewNop()).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Len(t, second.Lite, 4)
	assert.Len(t, second.Final, 2)
}

func TestRun_LiteCheckpointNarrowedScope(t *testing.T) {
	dir := t.TempDir()
	cands, lite, additional := fixture()
	var prepared int32 = 1
	var calls int32

	cfg := baseConfig(dir)
	cfg.LiteCheckpoint = true
	cfg.CheckpointInterval = 1

	deps := Dependencies{
		Universe: cands,
		Lite:     lite.task(&calls),
		Full:     fullTask(additional, lite, &prepared),
		Sectors:  fakeSectors{},
	}

	_, err := NewOrchestrator(deps, logger.NewNop()).Run(context.Background(), cfg)
	require.NoError(t, err)

	// 같은 날짜에 --max-count 2 로 재실행: 체크포인트의 나머지 종목은 결과에 섞이지 않음
	atomic.StoreInt32(&calls, 0)
	cfg.LiteMaxCount = 2
	second, err := NewOrchestrator(deps, logger.NewNop()).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
	require.Len(t, second.Lite, 2)
	for _, r := range second.Lite {
		assert.Contains(t, []string{"000001", "000002"}, r.Code)
	}
}

func TestFilterFinal(t *testing.T) {
	ranked := []contracts.RankedResult{
		{ScoreResult: contracts.ScoreResult{Code: "000001", Score: 8}, AdjustedScore: ptr(8.5)},
		{ScoreResult: contracts.ScoreResult{Code: "000002", Score: 6}, AdjustedScore: ptr(6.9)},
		{ScoreResult: contracts.ScoreResult{Code: "000003", Score: 7}},
	}

	final := FilterFinal(ranked, 7)
	assert.Equal(t, []string{"000001", "000003"}, codes(final))
	assert.Equal(t, 2, final[1].Rank)
	assert.Empty(t, FilterFinal(ranked, 9))
}

func codes(ranked []contracts.RankedResult) []string {
	out := make([]string, len(ranked))
	for i, r := range ranked {
		out[i] = r.Code
	}
	return out
}

func TestRunLite(t *testing.T) {
	dir := t.TempDir()
	cands, lite, _ := fixture()

	result, err := NewOrchestrator(Dependencies{
		Universe: cands,
		Lite:     lite.task(nil),
		Sectors:  fakeSectors{},
	}, logger.NewNop()).RunLite(context.Background(), baseConfig(dir))
	require.NoError(t, err)

	assert.Equal(t, StageSectorAdjustLite, result.Stage)
	assert.Len(t, result.Lite, 4)
	assert.Empty(t, result.Full)
	assert.FileExists(t, result.Artifacts[StageSectorAdjustLite])
}
