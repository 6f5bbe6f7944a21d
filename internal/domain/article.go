package domain

import (
	"time"
	"unicode/utf8"
)

// Storage limits for article columns, counted in characters.
const (
	MaxTitleLen    = 255
	MaxURLLen      = 225
	MaxBodyLen     = 10000
	MaxAuthorLen   = 20
	MaxCategoryLen = 30
	MaxImageURLLen = 200
)

// Article is the persisted news entity shared by ingestion and enrichment.
type Article struct {
	ID                string
	Title             string
	URL               string
	PublishedAt       time.Time
	Summary           string
	MaleAudioURL      string
	FemaleAudioURL    string
	OriginalImageURL  string
	ThumbnailImageURL string
	Author            string
	CategoryName      string
	CategoryID        string
	PublisherID       string
	Deleted           bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasAudio reports whether both voice renditions are attached.
func (a Article) HasAudio() bool {
	return a.MaleAudioURL != "" && a.FemaleAudioURL != ""
}

// Publisher is a lookup-or-create dimension keyed by name.
type Publisher struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Category is a lookup-or-create dimension keyed by name.
type Category struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// RawArticle is what a source adapter extracts from a page. It is never
// stored as is; the ingest gate normalizes it into an Article.
type RawArticle struct {
	Title         string `json:"title" validate:"required"`
	URL           string `json:"url" validate:"required"`
	Body          string `json:"content"`
	ImageURL      string `json:"image_url"`
	PublishedTime string `json:"published_time"`
	ReporterName  string `json:"reporter_name"`
	Category      string `json:"category"`
	Publisher     string `json:"press_name"`
}

// Preferences are the stated interests and settings of a single user.
type Preferences struct {
	UserID       string   `json:"user_id"`
	Keywords     []string `json:"keywords"`
	PublisherIDs []string `json:"publisher_ids"`
	CategoryIDs  []string `json:"category_ids"`
	VoiceType    string   `json:"voice_type"`
}

// HistoryEntry is one article in a user's viewing history.
type HistoryEntry struct {
	UserID            string    `json:"user_id"`
	ArticleID         string    `json:"news_id"`
	Title             string    `json:"title"`
	ThumbnailImageURL string    `json:"thumbnail_image_url"`
	URL               string    `json:"url"`
	Category          string    `json:"category"`
	ViewedAt          time.Time `json:"viewed_at"`
}

// Truncate cuts s to at most limit characters.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
