package storage

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/shohag/signalrelay/internal/models"
)

// MemoryStorage keeps the most recent events in a ring buffer. A capacity of
// zero keeps everything.
type MemoryStorage struct {
	mu       sync.RWMutex
	nextID   int64
	capacity int
	events   []models.Event
	head     int // index of the oldest event once the ring is full
	closed   bool
	now      func() time.Time
}

func NewMemory(capacity int) *MemoryStorage {
	if capacity < 0 {
		capacity = 0
	}
	s := &MemoryStorage{
		capacity: capacity,
		now:      func() time.Time { return time.Now().UTC() },
	}
	if capacity > 0 {
		s.events = make([]models.Event, 0, capacity)
	}
	return s
}

func (s *MemoryStorage) Append(payload map[string]any, raw json.RawMessage) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.Event{}, ErrClosed
	}

	s.nextID++
	ev := models.Event{
		ID:         s.nextID,
		Payload:    payload,
		Raw:        raw,
		ReceivedAt: s.now(),
	}

	switch {
	case s.capacity == 0 || len(s.events) < s.capacity:
		s.events = append(s.events, ev)
	default:
		// full ring: overwrite the oldest slot
		s.events[s.head] = ev
		s.head = (s.head + 1) % s.capacity
	}

	return ev, nil
}

func (s *MemoryStorage) Recent(limit int) []models.Event {
	if limit < 0 {
		limit = 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.events)
	if limit > n {
		limit = n
	}

	out := make([]models.Event, 0, limit)
	for i := n - limit; i < n; i++ {
		out = append(out, s.events[(s.head+i)%n])
	}
	return out
}

func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
