package api

import (
	"net/http"
	"strconv"

	"github.com/shohag/signalrelay/internal/query"
)

type EventHandler struct {
	query *query.Service
}

func NewEventHandler(q *query.Service) *EventHandler {
	return &EventHandler{query: q}
}

func (h *EventHandler) Latest(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		limit = h.query.DefaultLimit()
	}

	writeJSON(w, http.StatusOK, h.query.Latest(limit))
}

func (h *EventHandler) Home(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "✅ TradingView Webhook Server 運作中！")
}

func (h *EventHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "signalrelay",
		"events":  h.query.Count(),
	})
}
