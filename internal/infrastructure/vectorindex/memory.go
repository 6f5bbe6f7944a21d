package vectorindex

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

// Memory is a brute-force cosine index kept in process.
type Memory struct {
	mu   sync.RWMutex
	dim  int
	docs map[string]domain.IndexDocument
}

var _ ports.VectorIndex = (*Memory)(nil)

// NewMemory builds an index for vectors of dim dimensions; zero means the
// embedding model default.
func NewMemory(dim int) *Memory {
	if dim <= 0 {
		dim = domain.EmbeddingDimension
	}
	return &Memory{dim: dim, docs: make(map[string]domain.IndexDocument)}
}

func (m *Memory) EnsureIndex(context.Context) error {
	return nil
}

func (m *Memory) BulkInsert(_ context.Context, docs []domain.IndexDocument) (domain.BulkResult, error) {
	valid, failed := split(docs, m.dim)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range valid {
		doc.Embedding = append([]float32(nil), doc.Embedding...)
		m.docs[doc.ArticleID] = doc
	}
	return domain.BulkResult{Indexed: len(valid), Failed: failed}, nil
}

// Search ranks every stored vector by cosine similarity, highest first.
func (m *Memory) Search(_ context.Context, vector []float32, k int) ([]domain.SearchHit, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(vector) != m.dim {
		return nil, fmt.Errorf("query vector has %d dimensions, want %d: %w", len(vector), m.dim, domain.ErrValidation)
	}

	m.mu.RLock()
	hits := make([]domain.SearchHit, 0, len(m.docs))
	for id, doc := range m.docs {
		hits = append(hits, domain.SearchHit{ID: id, Score: cosine(vector, doc.Embedding)})
	}
	m.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len reports how many documents are indexed.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
