package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"NewsBrief/internal/ports"
)

// Fetcher resolves RSS/Atom feeds into article links.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

var _ ports.FeedFetcher = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; a nil client gets a 60s timeout.
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

// FetchURLs returns the distinct item links of a feed in feed order.
func (f *Fetcher) FetchURLs(ctx context.Context, feedURL string) ([]string, error) {
	parser := gofeed.NewParser()
	parser.Client = f.client
	if f.userAgent != "" {
		parser.UserAgent = f.userAgent
	}

	parsed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	seen := make(map[string]struct{}, len(parsed.Items))
	urls := make([]string, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" && len(item.Links) > 0 {
			link = strings.TrimSpace(item.Links[0])
		}
		if link == "" {
			continue
		}
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		urls = append(urls, link)
	}

	return urls, nil
}
