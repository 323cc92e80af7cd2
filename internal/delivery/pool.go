package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/shohag/signalrelay/internal/config"
	"github.com/shohag/signalrelay/internal/metrics"
)

// Task is a unit of detached work. ctx is bounded by the pool's task timeout.
type Task func(ctx context.Context)

// Pool runs submitted tasks on a fixed number of workers. Submit never blocks:
// when the queue is full the task is dropped.
type Pool struct {
	workers int
	timeout time.Duration
	queue   chan Task
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      conc.WaitGroup
}

func NewPool(cfg config.DeliveryConfig, log zerolog.Logger) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = workers
	}

	return &Pool{
		workers: workers,
		timeout: cfg.TaskTimeout,
		queue:   make(chan Task, queueSize),
		log:     log,
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.log.Info().Int("workers", p.workers).Int("queue_size", cap(p.queue)).Msg("starting notification worker pool")

	for i := 0; i < p.workers; i++ {
		p.wg.Go(func() {
			for task := range p.queue {
				metrics.QueueDepth.Set(float64(len(p.queue)))
				p.run(ctx, task)
			}
		})
	}
}

// Submit enqueues task and reports whether it was accepted.
func (p *Pool) Submit(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return false
	}

	select {
	case p.queue <- task:
		metrics.QueueDepth.Set(float64(len(p.queue)))
		return true
	default:
		metrics.TasksDropped.Inc()
		return false
	}
}

// Stop rejects new tasks, drains the queue and waits for the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.log.Info().Msg("stopping notification worker pool")
	p.wg.Wait()
	p.log.Info().Msg("notification worker pool stopped")
}

func (p *Pool) run(ctx context.Context, task Task) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var pc panics.Catcher
	pc.Try(func() { task(ctx) })
	if r := pc.Recovered(); r != nil {
		p.log.Error().Str("panic", r.String()).Msg("notification task panicked")
	}
}
