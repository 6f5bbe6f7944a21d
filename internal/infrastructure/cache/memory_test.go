package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	m := NewMemory().WithClock(func() time.Time { return now })

	require.NoError(t, m.Set(ctx, "recent_articles:20", []byte("payload"), 60*time.Second))

	got, ok, err := m.Get(ctx, "recent_articles:20")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "payload", string(got))

	now = now.Add(59 * time.Second)
	_, ok, _ = m.Get(ctx, "recent_articles:20")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, err = m.Get(ctx, "recent_articles:20")
	require.NoError(t, err)
	assert.False(t, ok, "entry must expire at ttl")
}

func TestMemoryNoTTLAndDelete(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewMemory().WithClock(func() time.Time { return now })

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), time.Hour))

	now = now.Add(365 * 24 * time.Hour)
	_, ok, _ := m.Get(ctx, "a")
	assert.True(t, ok)

	require.NoError(t, m.Delete(ctx, "a", "missing"))
	_, ok, _ = m.Get(ctx, "a")
	assert.False(t, ok)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value, 0))
	value[0] = 'x'

	got, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
	got[1] = 'y'

	again, _, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}
