package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/infrastructure/cache"
	"NewsBrief/internal/ports"
)

func receive(t *testing.T, ch <-chan ports.Delivery) ports.Delivery {
	t.Helper()
	select {
	case d, ok := <-ch:
		require.True(t, ok, "delivery channel closed")
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return nil
	}
}

func TestMemoryQueueRoutesByName(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemory()
	require.NoError(t, q.Publish(ctx, domain.QueueSpeech, domain.Job{TaskID: "t1", Kind: domain.TaskSpeech, ArticleID: "a1"}))
	require.NoError(t, q.Publish(ctx, domain.QueueImage, domain.Job{TaskID: "t2", Kind: domain.TaskThumbnail, ArticleID: "a1"}))

	speech, err := q.Consume(ctx, domain.QueueSpeech)
	require.NoError(t, err)

	d := receive(t, speech)
	assert.Equal(t, "t1", d.Job().TaskID)
	require.NoError(t, d.Ack())
	assert.Equal(t, 1, q.Pending(domain.QueueImage))
}

func TestMemoryQueueNackRequeues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemory()
	require.NoError(t, q.Publish(ctx, domain.QueueDefault, domain.Job{TaskID: "t1"}))

	ch, err := q.Consume(ctx, domain.QueueDefault)
	require.NoError(t, err)

	first := receive(t, ch)
	require.NoError(t, first.Nack(true))
	require.NoError(t, first.Nack(true), "second nack is a no-op")

	again := receive(t, ch)
	assert.Equal(t, "t1", again.Job().TaskID)
	require.NoError(t, again.Nack(false))
}

func TestMemoryQueueClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewMemory()

	ch, err := q.Consume(ctx, domain.QueueDefault)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestResultsRoundTripAndExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	store := cache.NewMemory().WithClock(func() time.Time { return now })
	results := NewResults(store, 24*time.Hour)

	envelope := domain.Succeeded("a1", map[string]string{"thumbnail_url": "u", "method_used": "fallback"})
	require.NoError(t, results.Save(ctx, domain.TaskResult{
		TaskID:    "t1",
		Kind:      domain.TaskThumbnail,
		Status:    domain.StatusSucceeded,
		Envelope:  &envelope,
		UpdatedAt: now,
	}))

	got, err := results.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSucceeded, got.Status)
	require.NotNil(t, got.Envelope)
	assert.Equal(t, "fallback", got.Envelope.Payload["method_used"])

	now = now.Add(24 * time.Hour)
	_, err = results.Load(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
