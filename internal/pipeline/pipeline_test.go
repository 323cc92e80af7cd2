package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shohag/signalrelay/internal/config"
	"github.com/shohag/signalrelay/internal/delivery"
	"github.com/shohag/signalrelay/internal/models"
	"github.com/shohag/signalrelay/internal/notify"
	"github.com/shohag/signalrelay/internal/storage"
)

type recordingSink struct {
	name string
	err  error
	mu   sync.Mutex
	got  []models.Notification
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, n)
	return s.err
}

func (s *recordingSink) received() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.got...)
}

type failingTranslator struct{}

func (failingTranslator) Translate(context.Context, string, string, string) (string, error) {
	return "", errors.New("translation service unreachable")
}

type upperTranslator struct{}

func (upperTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	return "[zh] " + text, nil
}

type faultyStore struct {
	storage.Storage
}

func (faultyStore) Append(map[string]any, json.RawMessage) (models.Event, error) {
	return models.Event{}, errors.New("out of memory")
}

type rejectingSubmitter struct{}

func (rejectingSubmitter) Submit(delivery.Task) bool { return false }

func newPool(t *testing.T) *delivery.Pool {
	t.Helper()
	pool := delivery.NewPool(config.DeliveryConfig{Workers: 2, QueueSize: 16, TaskTimeout: 5 * time.Second}, zerolog.Nop())
	pool.Start(context.Background())
	return pool
}

func TestHandle_StoresAndNotifies(t *testing.T) {
	store := storage.NewMemory(10)
	sink := &recordingSink{name: "chat"}
	pool := newPool(t)

	p := New(store, nil, notify.NewFanout(zerolog.Nop(), sink), nil, pool, nil, Options{}, zerolog.Nop())

	ev, err := p.Handle(context.Background(), []byte(`{"signal":"open_long","price":100}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), ev.ID)
	assert.Equal(t, json.Number("100"), ev.Payload["price"])

	pool.Stop()

	got := sink.received()
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].Event.ID)
	assert.Contains(t, got[0].Text, "開多 @ 100")
	assert.False(t, got[0].Translated)
}

func TestHandle_MalformedPayload(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ``},
		{name: "not json", body: `signal=open_long`},
		{name: "array", body: `[{"signal":"open_long"}]`},
		{name: "string", body: `"open_long"`},
		{name: "null", body: `null`},
		{name: "truncated", body: `{"signal":`},
		{name: "trailing data", body: `{"signal":"a"} {"signal":"b"}`},
		{name: "invalid utf-8 in string", body: "{\"signal\":\"\xff\"}"},
		{name: "invalid utf-8 in key", body: "{\"\xc3\x28\":1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMemory(10)
			sink := &recordingSink{name: "chat"}
			pool := newPool(t)

			p := New(store, nil, notify.NewFanout(zerolog.Nop(), sink), nil, pool, nil, Options{}, zerolog.Nop())

			_, err := p.Handle(context.Background(), []byte(tt.body))
			pool.Stop()

			assert.ErrorIs(t, err, ErrMalformedPayload)
			assert.Equal(t, 0, store.Len())
			assert.Empty(t, sink.received())
		})
	}
}

func TestHandle_StoreFault(t *testing.T) {
	sink := &recordingSink{name: "chat"}
	pool := newPool(t)

	p := New(faultyStore{storage.NewMemory(1)}, nil, notify.NewFanout(zerolog.Nop(), sink), nil, pool, nil, Options{}, zerolog.Nop())

	_, err := p.Handle(context.Background(), []byte(`{"signal":"open_long"}`))
	pool.Stop()

	assert.ErrorIs(t, err, ErrStoreFault)
	assert.NotErrorIs(t, err, ErrMalformedPayload)
	assert.Empty(t, sink.received())
}

func TestHandle_TranslatorFailureFallsBackToOriginal(t *testing.T) {
	store := storage.NewMemory(10)
	chat := &recordingSink{name: "chat"}
	pool := newPool(t)

	opts := Options{Translate: true, SourceLanguage: "auto", TargetLanguage: "en"}
	p := New(store, failingTranslator{}, notify.NewFanout(zerolog.Nop(), chat), nil, pool, nil, opts, zerolog.Nop())

	ev, err := p.Handle(context.Background(), []byte(`{"signal":"signal1","symbol":"BTCUSDT","price":42000.5}`))
	require.NoError(t, err)
	pool.Stop()

	got := chat.received()
	require.Len(t, got, 1)
	assert.Equal(t, p.formatter.Message(ev), got[0].Text)
	assert.Equal(t, got[0].Original, got[0].Text)
	assert.False(t, got[0].Translated)
}

func TestHandle_TranslatesMessage(t *testing.T) {
	chat := &recordingSink{name: "chat"}
	pool := newPool(t)

	opts := Options{Translate: true, SourceLanguage: "auto", TargetLanguage: "zh-TW"}
	p := New(storage.NewMemory(10), upperTranslator{}, notify.NewFanout(zerolog.Nop(), chat), nil, pool, nil, opts, zerolog.Nop())

	_, err := p.Handle(context.Background(), []byte(`{"signal":"open_short"}`))
	require.NoError(t, err)
	pool.Stop()

	got := chat.received()
	require.Len(t, got, 1)
	assert.True(t, got[0].Translated)
	assert.Equal(t, "[zh] "+got[0].Original, got[0].Text)
}

func TestHandle_ChatFailureDoesNotBlockRelay(t *testing.T) {
	store := storage.NewMemory(10)
	chat := &recordingSink{name: "chat", err: errors.New("telegram down")}
	relay := &recordingSink{name: "local_relay"}
	pool := newPool(t)

	p := New(store, nil, notify.NewFanout(zerolog.Nop(), chat, relay), nil, pool, nil, Options{}, zerolog.Nop())

	ev, err := p.Handle(context.Background(), []byte(`{"signal":"close_long","price":99}`))
	require.NoError(t, err)
	pool.Stop()

	assert.Len(t, chat.received(), 1)
	got := relay.received()
	require.Len(t, got, 1)
	assert.Equal(t, ev.ID, got[0].Event.ID)
	assert.JSONEq(t, `{"signal":"close_long","price":99}`, string(got[0].Event.Raw))
}

func TestHandle_FullQueueStillAccepts(t *testing.T) {
	store := storage.NewMemory(10)
	sink := &recordingSink{name: "chat"}

	p := New(store, nil, notify.NewFanout(zerolog.Nop(), sink), nil, rejectingSubmitter{}, nil, Options{}, zerolog.Nop())

	ev, err := p.Handle(context.Background(), []byte(`{"signal":"open_long"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1), ev.ID)
	assert.Equal(t, 1, store.Len())
	assert.Empty(t, sink.received())
}

func TestProcess_ReturnsResultPerSink(t *testing.T) {
	ok := &recordingSink{name: "local_relay"}
	bad := &recordingSink{name: "chat", err: errors.New("nope")}

	p := New(storage.NewMemory(1), nil, notify.NewFanout(zerolog.Nop(), bad, ok), nil, rejectingSubmitter{}, nil, Options{}, zerolog.Nop())

	results := p.Process(context.Background(), models.Event{ID: 3, Payload: map[string]any{}})
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.True(t, results[1].Success)
}

func TestSendTest(t *testing.T) {
	t.Run("chat disabled", func(t *testing.T) {
		p := New(storage.NewMemory(1), nil, notify.NewFanout(zerolog.Nop()), nil, rejectingSubmitter{}, nil, Options{}, zerolog.Nop())
		assert.ErrorIs(t, p.SendTest(context.Background()), ErrChatDisabled)
	})

	t.Run("chat enabled", func(t *testing.T) {
		var text string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			text = body["text"]
		}))
		defer server.Close()

		chat := notify.NewChatSink(config.ChatConfig{APIBase: server.URL, Token: "t", ChatID: "1", Timeout: time.Second})
		p := New(storage.NewMemory(1), nil, notify.NewFanout(zerolog.Nop(), chat), chat, rejectingSubmitter{}, nil, Options{}, zerolog.Nop())

		require.NoError(t, p.SendTest(context.Background()))
		assert.Equal(t, notify.TestMessage, text)
	})

	t.Run("chat failing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		chat := notify.NewChatSink(config.ChatConfig{APIBase: server.URL, Token: "t", ChatID: "1", Timeout: time.Second})
		p := New(storage.NewMemory(1), nil, notify.NewFanout(zerolog.Nop(), chat), chat, rejectingSubmitter{}, nil, Options{}, zerolog.Nop())

		assert.Error(t, p.SendTest(context.Background()))
	})
}
