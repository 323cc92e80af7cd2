// Package pipeline accepts webhook payloads, records them and hands them to
// the notification sinks without making the caller wait for delivery.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/shohag/signalrelay/internal/delivery"
	"github.com/shohag/signalrelay/internal/metrics"
	"github.com/shohag/signalrelay/internal/models"
	"github.com/shohag/signalrelay/internal/notify"
	"github.com/shohag/signalrelay/internal/storage"
	"github.com/shohag/signalrelay/internal/translate"
)

var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrStoreFault       = errors.New("event store fault")
	ErrChatDisabled     = errors.New("chat sink is not configured")
)

// Submitter runs detached work. *delivery.Pool implements it.
type Submitter interface {
	Submit(task delivery.Task) bool
}

type Options struct {
	Translate      bool
	SourceLanguage string
	TargetLanguage string
}

type Pipeline struct {
	store      storage.Storage
	translator translate.Translator
	fanout     *notify.Fanout
	chat       *notify.ChatSink
	tasks      Submitter
	formatter  *Formatter
	opts       Options
	log        zerolog.Logger
}

// New wires a pipeline. chat may be nil when the chat sink is disabled; it is
// only used for manual test messages, regular delivery goes through fanout.
func New(
	store storage.Storage,
	translator translate.Translator,
	fanout *notify.Fanout,
	chat *notify.ChatSink,
	tasks Submitter,
	formatter *Formatter,
	opts Options,
	log zerolog.Logger,
) *Pipeline {
	if translator == nil {
		translator = translate.Nop{}
	}
	if formatter == nil {
		formatter = NewFormatter(nil)
	}
	return &Pipeline{
		store:      store,
		translator: translator,
		fanout:     fanout,
		chat:       chat,
		tasks:      tasks,
		formatter:  formatter,
		opts:       opts,
		log:        log,
	}
}

// Handle validates and records raw, then schedules notification delivery.
// Only ErrMalformedPayload and ErrStoreFault are ever returned.
func (p *Pipeline) Handle(ctx context.Context, raw []byte) (models.Event, error) {
	payload, err := decodeObject(raw)
	if err != nil {
		metrics.EventsTotal.WithLabelValues("malformed").Inc()
		return models.Event{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	stored := make(json.RawMessage, len(raw))
	copy(stored, raw)

	ev, err := p.store.Append(payload, stored)
	if err != nil {
		metrics.EventsTotal.WithLabelValues("store_fault").Inc()
		p.log.Error().Err(err).Msg("failed to store event")
		return models.Event{}, fmt.Errorf("%w: %w", ErrStoreFault, err)
	}
	metrics.EventsTotal.WithLabelValues("accepted").Inc()
	metrics.StoredEvents.Set(float64(p.store.Len()))

	p.log.Info().
		Int64("event_id", ev.ID).
		Str("signal", ev.Field("signal")).
		Str("symbol", ev.Field("symbol")).
		Msg("event received")

	if !p.tasks.Submit(func(ctx context.Context) { p.Process(ctx, ev) }) {
		p.log.Warn().Int64("event_id", ev.ID).Msg("notification queue full, event will not be delivered to sinks")
	}

	return ev, nil
}

// Process renders ev, translates it when enabled and delivers it to every sink.
func (p *Pipeline) Process(ctx context.Context, ev models.Event) []models.NotificationResult {
	msg := p.formatter.Message(ev)
	n := models.Notification{Event: ev, Text: msg, Original: msg}

	if p.opts.Translate {
		n.Text, n.Translated = translate.Safe(ctx, p.translator, msg, p.opts.SourceLanguage, p.opts.TargetLanguage, p.log)
	}

	results := p.fanout.SendAll(ctx, n)

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	p.log.Debug().
		Int64("event_id", ev.ID).
		Int("sinks", len(results)).
		Int("failed", failed).
		Bool("translated", n.Translated).
		Msg("event fan-out finished")

	return results
}

// SendTest posts a fixed message through the chat sink and waits for the outcome.
func (p *Pipeline) SendTest(ctx context.Context) error {
	if p.chat == nil {
		return ErrChatDisabled
	}
	if err := p.chat.SendTest(ctx); err != nil {
		p.log.Warn().Err(err).Msg("test notification failed")
		return err
	}
	p.log.Info().Msg("test notification sent")
	return nil
}

// decodeObject requires raw to be exactly one JSON object. Invalid UTF-8 is
// rejected because the raw bytes are echoed back verbatim.
func decodeObject(raw []byte) (map[string]any, error) {
	if !utf8.Valid(raw) {
		return nil, errors.New("payload is not valid UTF-8")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, errors.New("payload must be a JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON object")
	}
	return payload, nil
}
