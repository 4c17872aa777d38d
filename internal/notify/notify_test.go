package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fscore/internal/contracts"
	"github.com/wonny/fscore/internal/hybrid"
	"github.com/wonny/fscore/internal/timing"
	"github.com/wonny/fscore/pkg/config"
	"github.com/wonny/fscore/pkg/logger"
)

func sampleRun() *hybrid.RunResult {
	final := []contracts.RankedResult{
		{ScoreResult: contracts.ScoreResult{Code: "005930", Name: "삼성전자", Stage: contracts.StageFull, Score: 8}, Sector: "전기전자", Rank: 1},
		{ScoreResult: contracts.ScoreResult{Code: "000660", Name: "SK하이닉스", Stage: contracts.StageFull, Score: 7}, Sector: "전기전자", Rank: 2},
	}
	return &hybrid.RunResult{
		Date:  time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Lite:  make([]contracts.RankedResult, 120),
		Full:  make([]contracts.RankedResult, 30),
		Final: final,
	}
}

func TestFormatRun(t *testing.T) {
	msg := FormatRun(sampleRun(), 1)

	assert.Contains(t, msg, "2024-03-15")
	assert.Contains(t, msg, "Lite 120 → Full 30 → 최종 2")
	assert.Contains(t, msg, "1. 삼성전자 (005930) 8/9 우수")
	assert.Contains(t, msg, "매수 검토")
	assert.NotContains(t, msg, "SK하이닉스")
	assert.Contains(t, msg, "외 1종목")
}

func TestFormatRun_Empty(t *testing.T) {
	msg := FormatRun(&hybrid.RunResult{Empty: true, Reason: "Lite 스캔 결과 없음"}, 10)
	assert.Contains(t, msg, "결과 없음: Lite 스캔 결과 없음")
}

func TestFormatTiming(t *testing.T) {
	msg := FormatTiming(&timing.BatchResult{
		Candidates: 3,
		Results: []contracts.TimingResult{
			{Code: "005930", Name: "삼성전자", FScore: 8, TimingScore: 7.5, Rating: contracts.RatingA},
			{Code: "000660", Name: "SK하이닉스", FScore: 7, TimingScore: 2, Rating: contracts.RatingD},
		},
	}, 10)

	assert.Contains(t, msg, "3종목 중 2종목")
	assert.Contains(t, msg, "A 1 · B 0 · C 0 · D 1")
	assert.Contains(t, msg, "강력 매수 추천")
}

func TestNew_NopWithoutCredentials(t *testing.T) {
	n := New(&config.Config{}, logger.NewNop())
	assert.IsType(t, Nop{}, n)
	assert.NoError(t, n.NotifyRun(context.Background(), sampleRun()))
}

func TestTelegram_Send(t *testing.T) {
	var gotChat, gotText, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotChat = r.PostForm.Get("chat_id")
		gotText = r.PostForm.Get("text")
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	tg := NewTelegram(config.TelegramConfig{BotToken: "tok", ChatID: "42", BaseURL: server.URL}, logger.NewNop())
	require.NoError(t, tg.NotifyRun(context.Background(), sampleRun()))

	assert.Equal(t, "/bottok/sendMessage", gotPath)
	assert.Equal(t, "42", gotChat)
	assert.Contains(t, gotText, "삼성전자")
}

func TestTelegram_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	tg := NewTelegram(config.TelegramConfig{BotToken: "tok", ChatID: "0", BaseURL: server.URL}, logger.NewNop())
	err := tg.NotifyTiming(context.Background(), &timing.BatchResult{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}
