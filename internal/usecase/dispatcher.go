package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

// Dispatcher enqueues enrichment work and records its pending state so
// callers can poll by task id.
type Dispatcher struct {
	queue   ports.JobQueue
	results ports.TaskResults
	now     func() time.Time
	logger  *slog.Logger
}

// NewDispatcher constructs a dispatcher over the job queue.
func NewDispatcher(queue ports.JobQueue, results ports.TaskResults, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queue:   queue,
		results: results,
		now:     time.Now,
		logger:  logger.With("component", "dispatcher"),
	}
}

// Dispatch enqueues one task of kind for articleID and returns immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, kind domain.TaskKind, articleID string) (domain.TaskHandle, error) {
	job := domain.Job{
		TaskID:     uuid.NewString(),
		Kind:       kind,
		ArticleID:  articleID,
		EnqueuedAt: d.now().UTC(),
	}

	err := d.results.Save(ctx, domain.TaskResult{
		TaskID:    job.TaskID,
		Kind:      kind,
		Status:    domain.StatusProcessing,
		UpdatedAt: job.EnqueuedAt,
	})
	if err != nil {
		return domain.TaskHandle{}, fmt.Errorf("record task %s: %w", job.TaskID, err)
	}

	if err := d.queue.Publish(ctx, kind.Queue(), job); err != nil {
		return domain.TaskHandle{}, fmt.Errorf("enqueue %s task: %w", kind, err)
	}

	d.logger.Debug("task dispatched", "task_id", job.TaskID, "kind", kind, "article_id", articleID)
	return domain.TaskHandle{
		TaskID:  job.TaskID,
		Status:  domain.StatusProcessing,
		Message: fmt.Sprintf("%s task started for article %s", kind, articleID),
	}, nil
}

// DispatchEnrichment enqueues speech and thumbnail work for every article.
// Failures are logged per task and do not stop the remaining dispatches.
func (d *Dispatcher) DispatchEnrichment(ctx context.Context, articles []domain.Article) []domain.TaskHandle {
	var handles []domain.TaskHandle
	for _, article := range articles {
		for _, kind := range []domain.TaskKind{domain.TaskSpeech, domain.TaskThumbnail} {
			handle, err := d.Dispatch(ctx, kind, article.ID)
			if err != nil {
				d.logger.Error("dispatch failed", "kind", kind, "article_id", article.ID, "error", err)
				continue
			}
			handles = append(handles, handle)
		}
	}
	return handles
}

// Status returns the recorded state of a task.
func (d *Dispatcher) Status(ctx context.Context, taskID string) (domain.TaskResult, error) {
	return d.results.Load(ctx, taskID)
}
