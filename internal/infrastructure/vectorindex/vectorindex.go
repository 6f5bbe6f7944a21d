// Package vectorindex stores article embeddings for nearest-neighbour search.
package vectorindex

import (
	"fmt"

	"github.com/google/uuid"

	"NewsBrief/internal/domain"
)

const defaultBatchSize = 100

// split separates documents that can be indexed from those that cannot.
func split(docs []domain.IndexDocument, dim int) ([]domain.IndexDocument, []domain.DocumentError) {
	valid := make([]domain.IndexDocument, 0, len(docs))
	var failed []domain.DocumentError
	for _, doc := range docs {
		if reason := check(doc, dim); reason != "" {
			failed = append(failed, domain.DocumentError{ID: doc.ArticleID, Reason: reason})
			continue
		}
		valid = append(valid, doc)
	}
	return valid, failed
}

func check(doc domain.IndexDocument, dim int) string {
	if _, err := uuid.Parse(doc.ArticleID); err != nil {
		return fmt.Sprintf("invalid id %q", doc.ArticleID)
	}
	if len(doc.Embedding) != dim {
		return fmt.Sprintf("embedding has %d dimensions, want %d", len(doc.Embedding), dim)
	}
	return ""
}
