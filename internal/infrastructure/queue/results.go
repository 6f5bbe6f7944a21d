package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

const resultKeyPrefix = "task_result:"

// Results stores task state in the cache store so any process can poll it.
type Results struct {
	cache ports.CacheStore
	ttl   time.Duration
}

var _ ports.TaskResults = (*Results)(nil)

// NewResults keeps task results in cache for ttl.
func NewResults(cache ports.CacheStore, ttl time.Duration) *Results {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Results{cache: cache, ttl: ttl}
}

func (r *Results) Save(ctx context.Context, result domain.TaskResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal task result: %w", err)
	}
	if err := r.cache.Set(ctx, resultKeyPrefix+result.TaskID, raw, r.ttl); err != nil {
		return fmt.Errorf("save task result: %w", err)
	}
	return nil
}

// Load returns domain.ErrNotFound for unknown or expired task ids.
func (r *Results) Load(ctx context.Context, taskID string) (domain.TaskResult, error) {
	raw, ok, err := r.cache.Get(ctx, resultKeyPrefix+taskID)
	if err != nil {
		return domain.TaskResult{}, fmt.Errorf("load task result: %w", err)
	}
	if !ok {
		return domain.TaskResult{}, fmt.Errorf("task %s: %w", taskID, domain.ErrNotFound)
	}

	var result domain.TaskResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.TaskResult{}, fmt.Errorf("decode task result: %w", err)
	}
	return result, nil
}
