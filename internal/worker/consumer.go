// Package worker runs enrichment jobs pulled from the work queues under a
// suture supervisor.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/metrics"
	"NewsBrief/internal/ports"
)

// Handler executes one kind of enrichment task.
type Handler interface {
	Kind() domain.TaskKind
	Run(ctx context.Context, articleID string) domain.TaskEnvelope
}

var errDeliveriesClosed = errors.New("delivery channel closed")

// Consumer drains one named queue with a fixed number of parallel slots.
type Consumer struct {
	queue    string
	jobs     ports.JobQueue
	results  ports.TaskResults
	handlers map[domain.TaskKind]Handler
	slots    int
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

var _ suture.Service = (*Consumer)(nil)

// NewConsumer builds a consumer for queue dispatching to handlers by kind.
func NewConsumer(queue string, jobs ports.JobQueue, results ports.TaskResults, handlers []Handler, slots int, m *metrics.Metrics, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	if slots <= 0 {
		slots = 1
	}
	byKind := make(map[domain.TaskKind]Handler, len(handlers))
	for _, h := range handlers {
		byKind[h.Kind()] = h
	}
	return &Consumer{
		queue:    queue,
		jobs:     jobs,
		results:  results,
		handlers: byKind,
		slots:    slots,
		now:      time.Now,
		metrics:  m,
		logger:   logger.With("component", "worker", "queue", queue),
	}
}

// Serve implements suture.Service. A closed delivery channel is returned as
// an error so the supervisor reconnects.
func (c *Consumer) Serve(ctx context.Context) error {
	deliveries, err := c.jobs.Consume(ctx, c.queue)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}
	c.logger.Info("consumer started", "slots", c.slots)

	sem := make(chan struct{}, c.slots)
	defer func() {
		for i := 0; i < c.slots; i++ {
			sem <- struct{}{}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping")
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errDeliveriesClosed
			}
			sem <- struct{}{}
			go func() {
				defer func() { <-sem }()
				c.Handle(ctx, d)
			}()
		}
	}
}

// Handle runs one delivery to completion, records its terminal result and
// acknowledges it. Unknown kinds are dropped.
func (c *Consumer) Handle(ctx context.Context, d ports.Delivery) domain.TaskEnvelope {
	job := d.Job()
	log := c.logger.With("task_id", job.TaskID, "kind", job.Kind, "article_id", job.ArticleID)

	handler, ok := c.handlers[job.Kind]
	if !ok {
		env := domain.Failed(job.ArticleID, fmt.Errorf("no handler for task kind %q", job.Kind))
		c.record(ctx, job, env, log)
		if err := d.Nack(false); err != nil {
			log.Warn("nack failed", "error", err)
		}
		return env
	}

	started := c.now()
	env := c.run(ctx, handler, job)
	c.record(ctx, job, env, log)
	c.metrics.EnrichmentTask(string(job.Kind), env.Success)

	if env.Success {
		log.Info("task succeeded", "elapsed", c.now().Sub(started).String())
	} else {
		log.Warn("task failed", "error", env.Error)
	}

	if err := d.Ack(); err != nil {
		log.Warn("ack failed", "error", err)
	}
	return env
}

func (c *Consumer) run(ctx context.Context, handler Handler, job domain.Job) (env domain.TaskEnvelope) {
	defer func() {
		if r := recover(); r != nil {
			env = domain.Failed(job.ArticleID, fmt.Errorf("task panicked: %v", r))
		}
	}()
	return handler.Run(ctx, job.ArticleID)
}

func (c *Consumer) record(ctx context.Context, job domain.Job, env domain.TaskEnvelope, log *slog.Logger) {
	status := domain.StatusSucceeded
	if !env.Success {
		status = domain.StatusFailed
	}
	err := c.results.Save(ctx, domain.TaskResult{
		TaskID:    job.TaskID,
		Kind:      job.Kind,
		Status:    status,
		Envelope:  &env,
		UpdatedAt: c.now().UTC(),
	})
	if err != nil {
		log.Error("task result not saved", "error", err)
	}
}

// String returns the service name for supervisor logs.
func (c *Consumer) String() string {
	return "consumer-" + c.queue
}
