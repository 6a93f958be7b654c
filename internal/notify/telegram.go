package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"
)

// Telegram delivers envelopes via the Telegram Bot API.
type Telegram struct {
	botToken string
	chatID   string
	client   *http.Client
}

// NewTelegram creates a Telegram notifier.
// botToken: Bot API token from @BotFather
// chatID: target chat/group/channel ID
func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (t *Telegram) Send(ctx context.Context, env Envelope) error {
	body, _ := json.Marshal(map[string]interface{}{
		"chat_id": t.chatID,
		"text":    fmt.Sprintf("%s\n%s", env.Message, env.Timestamp),
	})

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: unexpected status %d", resp.StatusCode)
	}

	log.Printf("[telegram] sent: %s", env.Message)
	return nil
}

// LogNotifier writes envelopes to the structured log (useful without a bot
// token configured).
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Send(ctx context.Context, env Envelope) error {
	slog.Info("notification", "level", env.Level, "message", env.Message)
	return nil
}
