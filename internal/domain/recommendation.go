package domain

import "time"

// EmbeddingDimension is the fixed vector size of the embedding model.
const EmbeddingDimension = 1536

// IndexDocument is one article as stored in the vector index.
type IndexDocument struct {
	ArticleID string
	Title     string
	Body      string
	Embedding []float32
}

// SearchHit is a single KNN match.
type SearchHit struct {
	ID    string
	Score float64
}

// DocumentError reports why a document was not indexed.
type DocumentError struct {
	ID     string
	Reason string
}

// BulkResult summarizes a bulk insert.
type BulkResult struct {
	Indexed int
	Failed  []DocumentError
}

// HasErrors reports whether any document failed.
func (r BulkResult) HasErrors() bool {
	return len(r.Failed) > 0
}

// Recommendation is a hydrated, scored article returned to readers.
type Recommendation struct {
	ArticleID    string    `json:"id"`
	Title        string    `json:"title"`
	Summary      string    `json:"content"`
	ThumbnailURL string    `json:"thumbnail_image_url"`
	CategoryName string    `json:"category_name"`
	Author       string    `json:"author"`
	PublishedAt  time.Time `json:"published_at"`
	Score        float64   `json:"score"`
	Keyword      string    `json:"keyword,omitempty"`
}
