package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/metrics"
	"NewsBrief/internal/ports"
)

const (
	defaultPublisherName = "unknown"
	defaultCategoryName  = "general"
)

// BatchResult counts a batch save. Saved includes duplicates, which are
// counted again under Duplicate, so Saved+Failed always equals Total.
type BatchResult struct {
	Saved     int              `json:"saved"`
	Failed    int              `json:"failed"`
	Duplicate int              `json:"duplicate"`
	Total     int              `json:"total"`
	Created   []domain.Article `json:"-"`
}

// Gate normalizes raw articles and stores each canonical URL once.
type Gate struct {
	repo     ports.ArticleRepository
	validate *validator.Validate
	loc      *time.Location
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewGate constructs the admission gate.
func NewGate(repo ports.ArticleRepository, loc *time.Location, m *metrics.Metrics, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Gate{
		repo:     repo,
		validate: validator.New(),
		loc:      loc,
		now:      time.Now,
		metrics:  m,
		logger:   logger.With("component", "ingest_gate"),
	}
}

// Ingest stores raw unless its URL is already live. created is false when
// the existing article is returned instead.
func (g *Gate) Ingest(ctx context.Context, raw domain.RawArticle) (article domain.Article, created bool, err error) {
	raw.Title = strings.TrimSpace(raw.Title)
	raw.URL = strings.TrimSpace(raw.URL)
	if err := g.validate.Struct(raw); err != nil {
		return domain.Article{}, false, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	url := domain.Truncate(raw.URL, domain.MaxURLLen)
	existing, err := g.repo.FindByURL(ctx, url)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Article{}, false, fmt.Errorf("lookup %s: %w", url, err)
	}

	publisher, err := g.repo.ResolvePublisher(ctx, labelOr(raw.Publisher, defaultPublisherName))
	if err != nil {
		return domain.Article{}, false, err
	}
	categoryName := domain.Truncate(labelOr(raw.Category, defaultCategoryName), domain.MaxCategoryLen)
	category, err := g.repo.ResolveCategory(ctx, categoryName)
	if err != nil {
		return domain.Article{}, false, err
	}

	article = domain.Article{
		ID:               uuid.NewString(),
		Title:            domain.Truncate(raw.Title, domain.MaxTitleLen),
		URL:              url,
		PublishedAt:      ParsePublishedTime(raw.PublishedTime, g.loc, g.now),
		Summary:          domain.Truncate(raw.Body, domain.MaxBodyLen),
		OriginalImageURL: domain.Truncate(raw.ImageURL, domain.MaxImageURLLen),
		Author:           domain.Truncate(strings.TrimSpace(raw.ReporterName), domain.MaxAuthorLen),
		CategoryName:     domain.Truncate(strings.TrimSpace(raw.Category), domain.MaxCategoryLen),
		CategoryID:       category.ID,
		PublisherID:      publisher.ID,
	}

	if err := g.repo.InsertArticle(ctx, article); err != nil {
		// A concurrent ingest of the same URL wins the unique index.
		if existing, findErr := g.repo.FindByURL(ctx, url); findErr == nil {
			return existing, false, nil
		}
		return domain.Article{}, false, fmt.Errorf("insert %s: %w", url, err)
	}

	now := g.now()
	article.CreatedAt = now.In(g.loc)
	article.UpdatedAt = now.In(g.loc)
	return article, true, nil
}

// IngestBatch saves every article, isolating per-item failures.
func (g *Gate) IngestBatch(ctx context.Context, raws []domain.RawArticle) BatchResult {
	result := BatchResult{Total: len(raws)}
	for _, raw := range raws {
		article, created, err := g.Ingest(ctx, raw)
		if err != nil {
			result.Failed++
			g.logger.Warn("article not saved", "url", raw.URL, "error", err)
			continue
		}
		result.Saved++
		if !created {
			result.Duplicate++
			continue
		}
		result.Created = append(result.Created, article)
	}

	g.metrics.Ingest("saved", result.Saved-result.Duplicate)
	g.metrics.Ingest("duplicate", result.Duplicate)
	g.metrics.Ingest("failed", result.Failed)
	g.logger.Info("batch saved",
		"saved", result.Saved,
		"failed", result.Failed,
		"duplicate", result.Duplicate,
		"total", result.Total,
	)
	return result
}

func labelOr(label, fallback string) string {
	if label = strings.TrimSpace(label); label != "" {
		return label
	}
	return fallback
}

var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05-0700",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006.01.02 15:04:05",
	"2006.01.02 15:04",
	"2006.01.02. 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02",
	"2006.01.02",
}

// ParsePublishedTime reads a source timestamp into loc. Values without a zone
// are taken as UTC; empty or unparseable values become now.
func ParsePublishedTime(value string, loc *time.Location, now func() time.Time) time.Time {
	value = normalizeTimestamp(value)
	if value != "" {
		for _, layout := range publishedLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.In(loc)
			}
		}
	}
	return now().In(loc)
}

var timestampReplacer = strings.NewReplacer(
	"입력", "",
	"수정", "",
	"기사입력", "",
	"승인", "",
)

func normalizeTimestamp(value string) string {
	value = strings.TrimSpace(timestampReplacer.Replace(value))
	value = strings.Trim(value, ": ")
	return strings.Join(strings.Fields(value), " ")
}
