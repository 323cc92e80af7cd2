package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shohag/signalrelay/internal/config"
	"github.com/shohag/signalrelay/internal/delivery"
	"github.com/shohag/signalrelay/internal/models"
	"github.com/shohag/signalrelay/internal/signing"
)

// LocalRelaySink forwards the raw event to a speaker service on the local
// network. Requests are signed when a secret is configured.
type LocalRelaySink struct {
	url    string
	secret string
	sender *delivery.Sender
	now    func() time.Time
}

type relayPayload struct {
	ID         int64           `json:"id"`
	Data       json.RawMessage `json:"data"`
	Text       string          `json:"text"`
	ReceivedAt time.Time       `json:"received_at"`
}

func NewLocalRelaySink(cfg config.RelayConfig) *LocalRelaySink {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &LocalRelaySink{
		url:    cfg.URL,
		secret: cfg.Secret,
		sender: delivery.NewSender(timeout),
		now:    time.Now,
	}
}

func (l *LocalRelaySink) Name() string {
	return "local_relay"
}

func (l *LocalRelaySink) Send(ctx context.Context, n models.Notification) error {
	data := n.Event.Raw
	if len(data) == 0 {
		b, err := json.Marshal(n.Event.Payload)
		if err != nil {
			return fmt.Errorf("marshal relay payload: %w", err)
		}
		data = b
	}

	body, err := json.Marshal(relayPayload{
		ID:         n.Event.ID,
		Data:       data,
		Text:       n.Text,
		ReceivedAt: n.Event.ReceivedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal relay payload: %w", err)
	}

	var headers map[string]string
	if l.secret != "" {
		sig, ts := signing.Sign(l.secret, body, l.now())
		headers = map[string]string{
			signing.HeaderTimestamp: strconv.FormatInt(ts, 10),
			signing.HeaderSignature: sig,
		}
	}

	if err := l.sender.PostJSON(ctx, l.url, body, headers).Err(); err != nil {
		return fmt.Errorf("relay event %d: %w", n.Event.ID, err)
	}
	return nil
}
