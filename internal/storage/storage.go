package storage

import (
	"encoding/json"
	"errors"

	"github.com/shohag/signalrelay/internal/models"
)

var ErrClosed = errors.New("storage: closed")

// Storage is the event ledger. Append is the only mutator.
type Storage interface {
	// Append assigns the next ID to payload and records it.
	Append(payload map[string]any, raw json.RawMessage) (models.Event, error)
	// Recent returns up to limit of the newest events, oldest first.
	Recent(limit int) []models.Event
	Len() int
	Close() error
}
