package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/metrics"
	"NewsBrief/internal/ports"
)

// PoolConfig tunes the supervisor and the per-queue parallelism.
type PoolConfig struct {
	SlotsPerQueue    int
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

func (c *PoolConfig) applyDefaults() {
	if c.SlotsPerQueue <= 0 {
		c.SlotsPerQueue = 2
	}
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = 30
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = 15 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Pool supervises one consumer per work queue, so a burst on one queue
// never occupies the slots of another.
type Pool struct {
	root      *suture.Supervisor
	consumers []*Consumer
}

// NewPool constructs a supervised pool with one consumer per queue that has handlers.
func NewPool(jobs ports.JobQueue, results ports.TaskResults, handlers []Handler, cfg PoolConfig, m *metrics.Metrics, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	hook := (&sutureslog.Handler{Logger: logger.With("component", "supervisor")}).MustHook()
	root := suture.New("enrichment", suture.Spec{
		EventHook:        hook,
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	})

	byQueue := make(map[string][]Handler)
	for _, h := range handlers {
		q := h.Kind().Queue()
		byQueue[q] = append(byQueue[q], h)
	}

	pool := &Pool{root: root}
	for _, q := range []string{domain.QueueSpeech, domain.QueueImage, domain.QueueDefault} {
		if len(byQueue[q]) == 0 {
			continue
		}
		c := NewConsumer(q, jobs, results, byQueue[q], cfg.SlotsPerQueue, m, logger)
		root.Add(c)
		pool.consumers = append(pool.consumers, c)
	}
	return pool
}

// Queues lists the queues that have a consumer.
func (p *Pool) Queues() []string {
	out := make([]string, len(p.consumers))
	for i, c := range p.consumers {
		out[i] = c.queue
	}
	return out
}

// Serve blocks until ctx is canceled.
func (p *Pool) Serve(ctx context.Context) error {
	return p.root.Serve(ctx)
}

// ServeBackground starts the supervisor and reports its exit on the channel.
func (p *Pool) ServeBackground(ctx context.Context) <-chan error {
	return p.root.ServeBackground(ctx)
}
