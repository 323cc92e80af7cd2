package query

import (
	"github.com/shohag/signalrelay/internal/config"
	"github.com/shohag/signalrelay/internal/models"
	"github.com/shohag/signalrelay/internal/storage"
)

// Service is the read side used by the polling client.
type Service struct {
	store        storage.Storage
	defaultLimit int
	maxLimit     int
}

func NewService(store storage.Storage, cfg config.QueryConfig) *Service {
	s := &Service{
		store:        store,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = 10
	}
	if s.maxLimit > 0 && s.defaultLimit > s.maxLimit {
		s.defaultLimit = s.maxLimit
	}
	return s
}

func (s *Service) DefaultLimit() int {
	return s.defaultLimit
}

// Latest returns up to limit of the newest events in arrival order.
func (s *Service) Latest(limit int) []models.Event {
	if limit < 0 {
		limit = 0
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}
	return s.store.Recent(limit)
}

func (s *Service) Count() int {
	return s.store.Len()
}
