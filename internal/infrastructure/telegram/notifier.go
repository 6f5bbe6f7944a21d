package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"NewsBrief/internal/config"
	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	// maxMessageRunes is the Bot API limit for a single text message.
	maxMessageRunes = 4096
)

// Notifier posts pipeline run reports to a chat through the Bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier returns nil when the bot token or chat id is missing.
func NewNotifier(cfg config.TelegramConfig) *Notifier {
	if cfg.BotToken == "" || cfg.ChatID == "" {
		return nil
	}
	return &Notifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// PublishReport sends report as plain text, cut to the message size limit.
func (n *Notifier) PublishReport(ctx context.Context, report string) error {
	if n == nil || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}
	report = strings.TrimSpace(report)
	if report == "" {
		return nil
	}

	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", domain.Truncate(report, maxMessageRunes))
	form.Set("disable_web_page_preview", "true")

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimSuffix(n.apiBase, "/"), n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body apiResponse
	if err := json.Unmarshal(raw, &body); err != nil || resp.StatusCode != http.StatusOK || !body.OK {
		if body.Description != "" {
			return fmt.Errorf("telegram %s: %s", resp.Status, body.Description)
		}
		return fmt.Errorf("telegram %s", resp.Status)
	}
	return nil
}
