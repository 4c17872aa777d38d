package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/fscore/internal/hybrid"
	"github.com/wonny/fscore/internal/timing"
	"github.com/wonny/fscore/pkg/config"
	"github.com/wonny/fscore/pkg/httputil"
	"github.com/wonny/fscore/pkg/logger"
)

// maxMessageLen is Telegram's sendMessage text limit
const maxMessageLen = 4096

// Notifier delivers run summaries
type Notifier interface {
	NotifyRun(ctx context.Context, result *hybrid.RunResult) error
	NotifyTiming(ctx context.Context, result *timing.BatchResult) error
}

// New returns a Telegram notifier, or a no-op when credentials are missing
func New(cfg *config.Config, log *logger.Logger) Notifier {
	if !cfg.TelegramEnabled() {
		log.Debug("Telegram credentials missing, notifications disabled")
		return Nop{}
	}
	return NewTelegram(cfg.Telegram, log)
}

// Nop discards notifications
type Nop struct{}

func (Nop) NotifyRun(ctx context.Context, result *hybrid.RunResult) error     { return nil }
func (Nop) NotifyTiming(ctx context.Context, result *timing.BatchResult) error { return nil }

// Telegram sends messages through the Bot API
// ⭐ SSOT: 텔레그램 발송은 여기서만
type Telegram struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	endpoint   string
	chatID     string
	topPicks   int
}

// NewTelegram creates a Telegram notifier
func NewTelegram(cfg config.TelegramConfig, log *logger.Logger) *Telegram {
	return &Telegram{
		httpClient: httputil.New(log).WithRetry(2, 0),
		logger:     log.WithComponent("notify"),
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/bot" + cfg.BotToken + "/sendMessage",
		chatID:     cfg.ChatID,
		topPicks:   10,
	}
}

type sendResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NotifyRun sends the hybrid run summary
func (t *Telegram) NotifyRun(ctx context.Context, result *hybrid.RunResult) error {
	return t.send(ctx, FormatRun(result, t.topPicks))
}

// NotifyTiming sends the timing batch summary
func (t *Telegram) NotifyTiming(ctx context.Context, result *timing.BatchResult) error {
	return t.send(ctx, FormatTiming(result, t.topPicks))
}

func (t *Telegram) send(ctx context.Context, text string) error {
	if r := []rune(text); len(r) > maxMessageLen {
		text = string(r[:maxMessageLen-3]) + "..."
	}

	resp, err := t.httpClient.PostForm(ctx, t.endpoint, url.Values{
		"chat_id": {t.chatID},
		"text":    {text},
	})
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	defer resp.Body.Close()

	var body sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && resp.StatusCode == http.StatusOK {
		return fmt.Errorf("telegram decode: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !body.OK {
		return fmt.Errorf("telegram send: status %d: %s", resp.StatusCode, body.Description)
	}

	t.logger.WithField("chars", len(text)).Info("Telegram message sent")
	return nil
}
