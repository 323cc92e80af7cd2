// Package notify delivers stored events to downstream sinks. Each sink is
// attempted once per event and failures never cross sink boundaries.
package notify

import (
	"context"

	"github.com/shohag/signalrelay/internal/models"
)

// Sink is a downstream notification target.
type Sink interface {
	Name() string
	Send(ctx context.Context, n models.Notification) error
}
