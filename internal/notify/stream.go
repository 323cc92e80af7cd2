package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shohag/signalrelay/internal/config"
	"github.com/shohag/signalrelay/internal/models"
)

// StreamSink appends each event to a capped Redis stream for other consumers.
type StreamSink struct {
	client  *redis.Client
	key     string
	maxLen  int64
	timeout time.Duration
}

func NewStreamSink(cfg config.StreamConfig) (*StreamSink, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return NewStreamSinkWithClient(redis.NewClient(opt), cfg), nil
}

func NewStreamSinkWithClient(client *redis.Client, cfg config.StreamConfig) *StreamSink {
	return &StreamSink{
		client:  client,
		key:     cfg.Key,
		maxLen:  cfg.MaxLen,
		timeout: cfg.Timeout,
	}
}

func (s *StreamSink) Name() string {
	return "stream"
}

func (s *StreamSink) Send(ctx context.Context, n models.Notification) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := &redis.XAddArgs{
		Stream: s.key,
		Values: map[string]any{
			"id":          strconv.FormatInt(n.Event.ID, 10),
			"data":        string(n.Event.Raw),
			"text":        n.Text,
			"received_at": n.Event.ReceivedAt.Format(time.RFC3339Nano),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.key, err)
	}
	return nil
}

func (s *StreamSink) Close() error {
	return s.client.Close()
}
