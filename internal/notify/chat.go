package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shohag/signalrelay/internal/config"
	"github.com/shohag/signalrelay/internal/delivery"
	"github.com/shohag/signalrelay/internal/models"
)

// TestMessage is sent by SendTest to check the bot token and chat id.
const TestMessage = "🚀 測試訊息：Telegram 發送功能正常！"

// ChatSink posts the rendered text to a Telegram-compatible bot API.
type ChatSink struct {
	endpoint string
	chatID   string
	sender   *delivery.Sender
}

func NewChatSink(cfg config.ChatConfig) *ChatSink {
	return &ChatSink{
		endpoint: fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(cfg.APIBase, "/"), cfg.Token),
		chatID:   cfg.ChatID,
		sender:   delivery.NewSender(cfg.Timeout),
	}
}

func (c *ChatSink) Name() string {
	return "chat"
}

func (c *ChatSink) Send(ctx context.Context, n models.Notification) error {
	return c.SendText(ctx, n.Text)
}

func (c *ChatSink) SendTest(ctx context.Context) error {
	return c.SendText(ctx, TestMessage)
}

// SendText posts an arbitrary message.
func (c *ChatSink) SendText(ctx context.Context, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id": c.chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("marshal chat message: %w", err)
	}

	// the endpoint embeds the bot token, so transport errors must not echo the URL
	if err := c.sender.PostJSON(ctx, c.endpoint, body, nil).Err(); err != nil {
		var statusErr *delivery.StatusError
		if errors.As(err, &statusErr) {
			return fmt.Errorf("send chat message: %w", err)
		}
		return fmt.Errorf("send chat message: %s", redact(err.Error(), c.endpoint))
	}
	return nil
}

func redact(msg, secret string) string {
	if secret == "" {
		return msg
	}
	return strings.ReplaceAll(msg, secret, "[redacted]")
}
