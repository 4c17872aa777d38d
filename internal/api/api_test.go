package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fscore/internal/api/handlers"
	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/internal/report"
	"github.com/wonny/fscore/internal/scan"
	"github.com/wonny/fscore/internal/scheduler"
	"github.com/wonny/fscore/pkg/logger"
)

var artifactDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

type fakeJobs struct{}

func (fakeJobs) Stats() map[string]scheduler.JobStats {
	return map[string]scheduler.JobStats{"hybrid_weekly": {JobName: "hybrid_weekly", Schedule: "0 0 6 * * 6"}}
}

func setup(t *testing.T) (*httptest.Server, *handlers.ProgressHub, string) {
	t.Helper()
	dir := t.TempDir()
	log := logger.NewNop()

	ranked := []contracts.RankedResult{
		{ScoreResult: contracts.ScoreResult{Code: "005930", Name: "삼성전자", Stage: contracts.StageFull, Score: 8}, Sector: "전기전자", Rank: 1},
		{ScoreResult: contracts.ScoreResult{Code: "000660", Name: "SK하이닉스", Stage: contracts.StageFull, Score: 7}, Sector: "전기전자", Rank: 2},
	}
	require.NoError(t, report.WriteCSV(report.ArtifactPath(dir, report.PrefixFinal, artifactDate), report.FromRanked(ranked)))

	timingRows := []*report.TimingRow{report.FromTiming(contracts.TimingResult{
		Code: "005930", Name: "삼성전자", FScore: 8, TimingScore: 6.5, Rating: contracts.RatingB,
		Signals: []string{"MACD > Signal", "거래량 정상 (1.0배)"},
	})}
	require.NoError(t, report.WriteCSV(report.ArtifactPath(dir, report.PrefixTimingCkpt, artifactDate), timingRows))

	hub := handlers.NewProgressHub(log)
	router := NewRouter(handlers.NewResultsHandler(dir, log), hub, fakeJobs{}, log)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, hub, dir
}

func getJSON(t *testing.T, url string, dest interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dest != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	server, _, _ := setup(t)

	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestResults_List(t *testing.T) {
	server, _, _ := setup(t)

	var body struct {
		Count     int               `json:"count"`
		Artifacts []report.Artifact `json:"artifacts"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/results", &body))
	assert.Equal(t, 2, body.Count)
}

func TestResults_Get(t *testing.T) {
	server, _, _ := setup(t)

	var scores struct {
		Total int                      `json:"total"`
		Rows  []contracts.RankedResult `json:"rows"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/results/hybrid_final_20240315.csv?limit=1", &scores))
	assert.Equal(t, 2, scores.Total)
	require.Len(t, scores.Rows, 1)
	assert.Equal(t, "005930", scores.Rows[0].Code)
	assert.Equal(t, 8, scores.Rows[0].Score)

	var timing struct {
		Rows []contracts.TimingResult `json:"rows"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/results/timing_checkpoint_20240315.csv", &timing))
	require.Len(t, timing.Rows, 1)
	assert.Equal(t, contracts.RatingB, timing.Rows[0].Rating)
	assert.Len(t, timing.Rows[0].Signals, 2)
}

func TestResults_GetErrors(t *testing.T) {
	server, _, _ := setup(t)

	tests := []struct {
		path string
		want int
	}{
		{"/api/results/missing_20240101.csv", http.StatusNotFound},
		{"/api/results/notes.txt", http.StatusBadRequest},
		{"/api/results/hybrid_final_20240315.csv?limit=x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(server.URL + tt.path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestJobs(t *testing.T) {
	server, _, _ := setup(t)

	var body map[string]scheduler.JobStats
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/jobs", &body))
	assert.Equal(t, "0 0 6 * * 6", body["hybrid_weekly"].Schedule)
}

func TestProgress_HTTPAndWebsocket(t *testing.T) {
	server, hub, _ := setup(t)

	hub.Report(scan.Progress{Label: "Lite F-Score", Completed: 10, Total: 100})

	var snapshot map[string]scan.Progress
	assert.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/progress", &snapshot))
	assert.Equal(t, 10, snapshot["Lite F-Score"].Completed)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/progress"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// 접속 직후 현재 스냅샷 수신
	var first scan.Progress
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, 10, first.Completed)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	hub.Report(scan.Progress{Label: "Lite F-Score", Completed: 20, Total: 100})

	var next scan.Progress
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, 20, next.Completed)
}
