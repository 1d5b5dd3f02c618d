// Package notify delivers operator alerts.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/factline/internal/domain"
)

const (
	telegramAPI = "https://api.telegram.org"
	alertPrefix = "factline: "
)

var ErrMisconfigured = errors.New("telegram notifier misconfigured")

// Telegram posts alerts to a chat through the bot API.
type Telegram struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

var _ domain.Notifier = (*Telegram)(nil)

func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  telegramAPI,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (t *Telegram) Notify(ctx context.Context, message string, category domain.AlertCategory) error {
	if t.botToken == "" || t.chatID == "" {
		return ErrMisconfigured
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", fmt.Sprintf("%s[%s] %s", alertPrefix, category, message))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	return nil
}

// Log writes alerts to the logger only. Used when no transport is configured.
type Log struct {
	logger *zap.Logger
}

var _ domain.Notifier = (*Log)(nil)

func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Notify(_ context.Context, message string, category domain.AlertCategory) error {
	l.logger.Warn("alert", zap.String("category", string(category)), zap.String("message", message))
	return nil
}
