package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

const (
	MethodOriginal = "original"
	MethodFallback = "fallback"
)

// ThumbnailJob attaches a thumbnail to an article, falling back to a shared
// placeholder image when the source cannot be used.
type ThumbnailJob struct {
	repo        ports.ArticleRepository
	renderer    ports.Thumbnailer
	storage     ports.ObjectStorage
	fallbackURL string
	logger      *slog.Logger
}

// NewThumbnailJob constructs the thumbnail enrichment step.
func NewThumbnailJob(repo ports.ArticleRepository, renderer ports.Thumbnailer, storage ports.ObjectStorage, fallbackBucket string, logger *slog.Logger) *ThumbnailJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ThumbnailJob{
		repo:        repo,
		renderer:    renderer,
		storage:     storage,
		fallbackURL: FallbackThumbnailURL(fallbackBucket),
		logger:      logger.With("component", "thumbnail_job"),
	}
}

// FallbackThumbnailURL is the placeholder image served from bucket.
func FallbackThumbnailURL(bucket string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/fallback/fallback_image.jpg", bucket)
}

// ThumbnailKey names a thumbnail object after the first 8 characters of id.
func ThumbnailKey(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("thumbnails/%s_thumb.jpg", id)
}

func (j *ThumbnailJob) Kind() domain.TaskKind { return domain.TaskThumbnail }

func (j *ThumbnailJob) Run(ctx context.Context, articleID string) domain.TaskEnvelope {
	article, err := j.repo.GetArticle(ctx, articleID)
	if err != nil {
		return domain.Failed(articleID, fmt.Errorf("load article: %w", err))
	}

	if article.OriginalImageURL == "" {
		return j.fallback(ctx, articleID)
	}

	thumb, err := j.renderer.Render(ctx, article.OriginalImageURL)
	if err != nil {
		j.logger.Warn("thumbnail source unusable", "article_id", articleID, "image", article.OriginalImageURL, "error", err)
		return j.fallback(ctx, articleID)
	}

	url, err := j.storage.Upload(ctx, thumb, ThumbnailKey(uuid.NewString()), "image/jpeg")
	if err != nil {
		return domain.Failed(articleID, fmt.Errorf("upload thumbnail: %w", err))
	}
	return j.commit(ctx, articleID, url, MethodOriginal)
}

func (j *ThumbnailJob) fallback(ctx context.Context, articleID string) domain.TaskEnvelope {
	return j.commit(ctx, articleID, j.fallbackURL, MethodFallback)
}

func (j *ThumbnailJob) commit(ctx context.Context, articleID, url, method string) domain.TaskEnvelope {
	if err := j.repo.UpdateThumbnail(ctx, articleID, url); err != nil {
		return domain.Failed(articleID, fmt.Errorf("store thumbnail url: %w", err))
	}
	return domain.Succeeded(articleID, map[string]string{
		"thumbnail_url": url,
		"method_used":   method,
	})
}
