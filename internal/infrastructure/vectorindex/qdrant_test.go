package vectorindex

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedAdmin answers CollectionExists from a queue and fails creation
// with createErr.
type scriptedAdmin struct {
	exists    []bool
	createErr error
	checks    int
	created   []*qdrant.CreateCollection
}

func (a *scriptedAdmin) CollectionExists(_ context.Context, _ string) (bool, error) {
	if a.checks >= len(a.exists) {
		return false, errors.New("unexpected check")
	}
	v := a.exists[a.checks]
	a.checks++
	return v, nil
}

func (a *scriptedAdmin) CreateCollection(_ context.Context, req *qdrant.CreateCollection) error {
	a.created = append(a.created, req)
	return a.createErr
}

func newScriptedQdrant(admin *scriptedAdmin) *Qdrant {
	return &Qdrant{admin: admin, collection: "news", dim: 4, logger: slog.Default()}
}

func TestEnsureIndexSkipsExistingCollection(t *testing.T) {
	admin := &scriptedAdmin{exists: []bool{true}}
	require.NoError(t, newScriptedQdrant(admin).EnsureIndex(context.Background()))
	assert.Empty(t, admin.created)
}

func TestEnsureIndexCreatesCollection(t *testing.T) {
	admin := &scriptedAdmin{exists: []bool{false}}
	require.NoError(t, newScriptedQdrant(admin).EnsureIndex(context.Background()))
	require.Len(t, admin.created, 1)
	assert.Equal(t, "news", admin.created[0].GetCollectionName())
	assert.Equal(t, uint64(4), admin.created[0].GetVectorsConfig().GetParams().GetSize())
}

func TestEnsureIndexToleratesConcurrentCreation(t *testing.T) {
	admin := &scriptedAdmin{
		exists:    []bool{false, true},
		createErr: errors.New("collection `news` already exists"),
	}
	require.NoError(t, newScriptedQdrant(admin).EnsureIndex(context.Background()))
	assert.Equal(t, 2, admin.checks)
}

func TestEnsureIndexReportsCreateFailure(t *testing.T) {
	admin := &scriptedAdmin{
		exists:    []bool{false, false},
		createErr: errors.New("unavailable"),
	}
	err := newScriptedQdrant(admin).EnsureIndex(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create collection news")
	assert.Contains(t, err.Error(), "unavailable")
}
