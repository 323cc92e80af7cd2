package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/shohag/signalrelay/internal/models"
	"github.com/shohag/signalrelay/internal/pipeline"
)

const maxPayloadSize = 256 * 1024 // 256KB

// Intake is the write side the handlers depend on.
type Intake interface {
	Handle(ctx context.Context, raw []byte) (models.Event, error)
	SendTest(ctx context.Context) error
}

type WebhookHandler struct {
	intake Intake
	log    zerolog.Logger
}

func NewWebhookHandler(intake Intake, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{intake: intake, log: log}
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadSize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read webhook body")
		writeError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}

	ev, err := h.intake.Handle(r.Context(), raw)
	switch {
	case errors.Is(err, pipeline.ErrMalformedPayload):
		h.log.Warn().Err(err).Msg("rejected malformed webhook")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to record event")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "success", ID: ev.ID})
}

// Test sends a manual notification through the chat sink.
func (h *WebhookHandler) Test(w http.ResponseWriter, r *http.Request) {
	err := h.intake.SendTest(r.Context())
	switch {
	case errors.Is(err, pipeline.ErrChatDisabled):
		writeText(w, http.StatusServiceUnavailable, "❌ Telegram 未設定 (chat sink disabled)")
	case err != nil:
		writeText(w, http.StatusBadGateway, "❌ 測試訊息發送失敗")
	default:
		writeText(w, http.StatusOK, "✅ 測試訊息已發送至 Telegram")
	}
}
