package scanner

import (
	"context"
	"fmt"
	"sort"

	"NewsBrief/internal/domain"
)

// Target is one (publisher, category, feed) unit of crawl work.
type Target struct {
	Publisher string
	Category  string
	FeedURL   string
}

// Extractor captures a single publisher adapter (SBS, Hankyung, etc.).
type Extractor interface {
	Publisher() string
	ExtractArticle(ctx context.Context, url string) (domain.RawArticle, error)
}

// Registry keeps a mapping from publisher names to their extractors.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry builds a registry holding the given extractors.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{extractors: map[string]Extractor{}}
	for _, ex := range extractors {
		r.Register(ex)
	}
	return r
}

// Register adds or replaces an extractor implementation.
func (r *Registry) Register(extractor Extractor) {
	if r.extractors == nil {
		r.extractors = map[string]Extractor{}
	}
	r.extractors[extractor.Publisher()] = extractor
}

// Resolve returns the extractor for a publisher or ErrUnknownPublisher.
func (r *Registry) Resolve(publisher string) (Extractor, error) {
	if ex, ok := r.extractors[publisher]; ok {
		return ex, nil
	}
	return nil, fmt.Errorf("extractor for %s is not registered: %w", publisher, domain.ErrUnknownPublisher)
}

// Publishers lists registered publisher names in stable order.
func (r *Registry) Publishers() []string {
	names := make([]string, 0, len(r.extractors))
	for name := range r.extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
