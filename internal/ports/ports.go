package ports

import (
	"context"
	"time"

	"NewsBrief/internal/domain"
)

// FeedFetcher resolves a feed URL into candidate article URLs.
type FeedFetcher interface {
	FetchURLs(ctx context.Context, feedURL string) ([]string, error)
}

// ArticleRepository persists articles and their publisher/category dimensions.
// Lookups of missing or soft-deleted rows return domain.ErrNotFound.
type ArticleRepository interface {
	FindByURL(ctx context.Context, url string) (domain.Article, error)
	GetArticle(ctx context.Context, id string) (domain.Article, error)
	GetArticles(ctx context.Context, ids []string) (map[string]domain.Article, error)
	ResolvePublisher(ctx context.Context, name string) (domain.Publisher, error)
	ResolveCategory(ctx context.Context, name string) (domain.Category, error)
	InsertArticle(ctx context.Context, article domain.Article) error
	UpdateAudio(ctx context.Context, id, maleURL, femaleURL string) error
	UpdateThumbnail(ctx context.Context, id, thumbnailURL string) error
	SoftDelete(ctx context.Context, id string) (bool, error)
	RecentComplete(ctx context.Context, limit int) ([]domain.Article, error)
	ListByCategory(ctx context.Context, category string, publisherIDs []string) ([]domain.Article, error)
	ListPublishedBetween(ctx context.Context, publisherIDs, categoryIDs []string, from, to time.Time) ([]domain.Article, error)
}

// PreferenceRepository reads and records per-user interests and history.
type PreferenceRepository interface {
	UserKeywords(ctx context.Context, userID string) ([]string, error)
	PreferredPublisherIDs(ctx context.Context, userID string) ([]string, error)
	PreferredCategoryIDs(ctx context.Context, userID string) ([]string, error)
	MarkViewed(ctx context.Context, userID, articleID string, at time.Time) error
}

// UserSettingsRepository keeps per-user settings and reads viewing history.
// VoiceType returns domain.DefaultVoiceType for users who never chose one.
type UserSettingsRepository interface {
	VoiceType(ctx context.Context, userID string) (string, error)
	SetVoiceType(ctx context.Context, userID, voiceType string) error
	ListHistory(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error)
}

// PublisherDirectory resolves publisher ids back to publishers.
type PublisherDirectory interface {
	PublisherByID(ctx context.Context, id string) (domain.Publisher, error)
}

// ChatCompleter continues a conversation. The last message is the user's.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// Summarizer condenses article bodies.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// SpeechSynthesizer renders text to MP3 audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string, voice domain.Voice) ([]byte, error)
}

// ObjectStorage uploads blobs and returns their public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, data []byte, key, contentType string) (string, error)
	PublicURL(key string) string
}

// Thumbnailer downloads an image and renders the encoded thumbnail bytes.
type Thumbnailer interface {
	Render(ctx context.Context, sourceURL string) ([]byte, error)
}

// Embedder turns text into fixed-dimension vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is a bulk-indexable KNN store.
type VectorIndex interface {
	EnsureIndex(ctx context.Context) error
	BulkInsert(ctx context.Context, docs []domain.IndexDocument) (domain.BulkResult, error)
	Search(ctx context.Context, vector []float32, k int) ([]domain.SearchHit, error)
}

// CacheStore is a key-value store with per-key expiry.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Delivery is a single job handed to a consumer.
type Delivery interface {
	Job() domain.Job
	Ack() error
	Nack(requeue bool) error
}

// JobQueue routes jobs through named work queues.
type JobQueue interface {
	Publish(ctx context.Context, queue string, job domain.Job) error
	Consume(ctx context.Context, queue string) (<-chan Delivery, error)
}

// TaskResults keeps dispatched task state for polling.
type TaskResults interface {
	Save(ctx context.Context, result domain.TaskResult) error
	Load(ctx context.Context, taskID string) (domain.TaskResult, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// Notifier publishes operator-facing run reports.
type Notifier interface {
	PublishReport(ctx context.Context, report string) error
}
