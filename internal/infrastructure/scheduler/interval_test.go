package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"NewsBrief/internal/logging"
)

func TestIntervalSchedulerRunsImmediatelyAndRepeats(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewIntervalScheduler(20*time.Millisecond, logging.Discard())

	require.NoError(t, s.Start(context.Background(), func(time.Time) { runs.Add(1) }))
	require.NoError(t, s.Start(context.Background(), func(time.Time) { runs.Add(100) }))

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	after := runs.Load()
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, after, runs.Load())
	require.Less(t, after, int32(100))
}

func TestIntervalSchedulerStopWithoutStart(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(0, nil)
	require.NoError(t, s.Stop(context.Background()))
}

func TestIntervalSchedulerStopsOnContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	s := NewIntervalScheduler(time.Hour, nil)
	require.NoError(t, s.Start(ctx, func(time.Time) { runs.Add(1) }))
	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, s.Stop(stopCtx))
}
