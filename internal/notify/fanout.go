package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/shohag/signalrelay/internal/delivery"
	"github.com/shohag/signalrelay/internal/metrics"
	"github.com/shohag/signalrelay/internal/models"
)

// Fanout sends one notification to every sink concurrently.
type Fanout struct {
	sinks []Sink
	log   zerolog.Logger
}

func NewFanout(log zerolog.Logger, sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks, log: log}
}

// SendAll attempts every sink exactly once and returns one result per sink in
// sink order. It never fails as a whole.
func (f *Fanout) SendAll(ctx context.Context, n models.Notification) []models.NotificationResult {
	results := make([]models.NotificationResult, len(f.sinks))

	var wg conc.WaitGroup
	for i, sink := range f.sinks {
		i, sink := i, sink
		wg.Go(func() {
			results[i] = f.send(ctx, sink, n)
		})
	}
	wg.Wait()

	return results
}

func (f *Fanout) send(ctx context.Context, sink Sink, n models.Notification) models.NotificationResult {
	res := models.NotificationResult{
		AttemptID: models.NewID("att"),
		Sink:      sink.Name(),
		EventID:   n.Event.ID,
	}

	start := time.Now()
	var err error
	if r := panics.Try(func() { err = sink.Send(ctx, n) }); r != nil {
		err = r.AsError()
	}
	res.Latency = time.Since(start)

	metrics.SinkDuration.WithLabelValues(res.Sink).Observe(res.Latency.Seconds())

	if err != nil {
		res.Error = err.Error()
		res.StatusCode = delivery.StatusCode(err)
		metrics.SinkDeliveries.WithLabelValues(res.Sink, "failed").Inc()
		f.log.Warn().
			Str("attempt_id", res.AttemptID).
			Str("sink", res.Sink).
			Int64("event_id", res.EventID).
			Dur("latency", res.Latency).
			Int("status_code", res.StatusCode).
			Err(err).
			Msg("sink delivery failed")
		return res
	}

	res.Success = true
	metrics.SinkDeliveries.WithLabelValues(res.Sink, "success").Inc()
	f.log.Info().
		Str("attempt_id", res.AttemptID).
		Str("sink", res.Sink).
		Int64("event_id", res.EventID).
		Dur("latency", res.Latency).
		Msg("sink delivery succeeded")
	return res
}
