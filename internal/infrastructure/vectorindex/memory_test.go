package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsBrief/internal/domain"
)

const (
	idA = "11111111-1111-1111-1111-111111111111"
	idB = "22222222-2222-2222-2222-222222222222"
	idC = "33333333-3333-3333-3333-333333333333"
)

func TestMemoryBulkInsertReportsPerDocumentFailures(t *testing.T) {
	idx := NewMemory(3)
	res, err := idx.BulkInsert(context.Background(), []domain.IndexDocument{
		{ArticleID: idA, Title: "a", Embedding: []float32{1, 0, 0}},
		{ArticleID: idB, Title: "b", Embedding: []float32{1, 0}},
		{ArticleID: "not-a-uuid", Title: "c", Embedding: []float32{0, 1, 0}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Indexed)
	require.True(t, res.HasErrors())
	require.Len(t, res.Failed, 2)
	assert.Equal(t, idB, res.Failed[0].ID)
	assert.Contains(t, res.Failed[0].Reason, "dimensions")
	assert.Equal(t, "not-a-uuid", res.Failed[1].ID)
	assert.Equal(t, 1, idx.Len())
}

func TestMemorySearchOrdersByCosine(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(2)
	_, err := idx.BulkInsert(ctx, []domain.IndexDocument{
		{ArticleID: idA, Embedding: []float32{1, 0}},
		{ArticleID: idB, Embedding: []float32{1, 1}},
		{ArticleID: idC, Embedding: []float32{0, 1}},
	})
	require.NoError(t, err)

	hits, err := idx.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, idA, hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, idB, hits[1].ID)
	assert.InDelta(t, 0.7071, hits[1].Score, 1e-4)

	_, err = idx.Search(ctx, []float32{1, 0, 0}, 2)
	assert.ErrorIs(t, err, domain.ErrValidation)

	none, err := idx.Search(ctx, []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	idx := NewMemory(2)
	_, _ = idx.BulkInsert(ctx, []domain.IndexDocument{{ArticleID: idA, Embedding: []float32{1, 0}}})
	_, _ = idx.BulkInsert(ctx, []domain.IndexDocument{{ArticleID: idA, Embedding: []float32{0, 1}}})

	assert.Equal(t, 1, idx.Len())
	hits, err := idx.Search(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}
