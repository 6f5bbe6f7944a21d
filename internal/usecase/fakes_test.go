package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

type memRepo struct {
	mu         sync.Mutex
	articles   map[string]domain.Article
	publishers map[string]domain.Publisher
	categories map[string]domain.Category
	writes     int
	insertErr  error
}

var _ ports.ArticleRepository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{
		articles:   make(map[string]domain.Article),
		publishers: make(map[string]domain.Publisher),
		categories: make(map[string]domain.Category),
	}
}

func (r *memRepo) put(a domain.Article) domain.Article {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	r.articles[a.ID] = a
	return a
}

func (r *memRepo) FindByURL(_ context.Context, url string) (domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.articles {
		if a.URL == url && !a.Deleted {
			return a, nil
		}
	}
	return domain.Article{}, domain.ErrNotFound
}

func (r *memRepo) GetArticle(_ context.Context, id string) (domain.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.articles[id]
	if !ok || a.Deleted {
		return domain.Article{}, domain.ErrNotFound
	}
	return a, nil
}

func (r *memRepo) GetArticles(ctx context.Context, ids []string) (map[string]domain.Article, error) {
	out := make(map[string]domain.Article)
	for _, id := range ids {
		if a, err := r.GetArticle(ctx, id); err == nil {
			out[id] = a
		}
	}
	return out, nil
}

func (r *memRepo) ResolvePublisher(_ context.Context, name string) (domain.Publisher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.publishers[name]
	if !ok {
		p = domain.Publisher{ID: uuid.NewString(), Name: name}
		r.publishers[name] = p
		r.writes++
	}
	return p, nil
}

func (r *memRepo) PublisherByID(_ context.Context, id string) (domain.Publisher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.publishers {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Publisher{}, domain.ErrNotFound
}

func (r *memRepo) ResolveCategory(_ context.Context, name string) (domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[name]
	if !ok {
		c = domain.Category{ID: uuid.NewString(), Name: name}
		r.categories[name] = c
		r.writes++
	}
	return c, nil
}

func (r *memRepo) InsertArticle(_ context.Context, a domain.Article) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	r.articles[a.ID] = a
	r.writes++
	return nil
}

func (r *memRepo) UpdateAudio(_ context.Context, id, maleURL, femaleURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.articles[id]
	if !ok || a.Deleted {
		return domain.ErrNotFound
	}
	a.MaleAudioURL, a.FemaleAudioURL = maleURL, femaleURL
	r.articles[id] = a
	return nil
}

func (r *memRepo) UpdateThumbnail(_ context.Context, id, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.articles[id]
	if !ok || a.Deleted {
		return domain.ErrNotFound
	}
	a.ThumbnailImageURL = url
	r.articles[id] = a
	return nil
}

func (r *memRepo) SoftDelete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.articles[id]
	if !ok || a.Deleted {
		return false, nil
	}
	a.Deleted = true
	r.articles[id] = a
	return true, nil
}

func (r *memRepo) live() []domain.Article {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Article
	for _, a := range r.articles {
		if !a.Deleted {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedAt.After(out[j].PublishedAt) })
	return out
}

func (r *memRepo) RecentComplete(_ context.Context, limit int) ([]domain.Article, error) {
	out := r.live()
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) ListByCategory(_ context.Context, category string, publisherIDs []string) ([]domain.Article, error) {
	var out []domain.Article
	for _, a := range r.live() {
		if a.CategoryName == category && contains(publisherIDs, a.PublisherID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memRepo) ListPublishedBetween(_ context.Context, publisherIDs, categoryIDs []string, from, to time.Time) ([]domain.Article, error) {
	var out []domain.Article
	for _, a := range r.live() {
		if !contains(publisherIDs, a.PublisherID) || !contains(categoryIDs, a.CategoryID) {
			continue
		}
		if a.PublishedAt.Before(from) || !a.PublishedAt.Before(to) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

type memPrefs struct {
	mu         sync.Mutex
	keywords   map[string][]string
	publishers map[string][]string
	categories map[string][]string
	viewed     map[string]time.Time
	reads      int
}

var _ ports.PreferenceRepository = (*memPrefs)(nil)

func newMemPrefs() *memPrefs {
	return &memPrefs{
		keywords:   make(map[string][]string),
		publishers: make(map[string][]string),
		categories: make(map[string][]string),
		viewed:     make(map[string]time.Time),
	}
}

func (p *memPrefs) UserKeywords(_ context.Context, userID string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	return p.keywords[userID], nil
}

func (p *memPrefs) PreferredPublisherIDs(_ context.Context, userID string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	return p.publishers[userID], nil
}

func (p *memPrefs) PreferredCategoryIDs(_ context.Context, userID string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	return p.categories[userID], nil
}

func (p *memPrefs) MarkViewed(_ context.Context, userID, articleID string, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewed[userID+"/"+articleID] = at
	return nil
}

// memSettings keeps voice types and joins history entries from a memRepo.
type memSettings struct {
	mu      sync.Mutex
	voices  map[string]string
	history map[string][]domain.HistoryEntry
	reads   int
}

var _ ports.UserSettingsRepository = (*memSettings)(nil)

func newMemSettings() *memSettings {
	return &memSettings{voices: make(map[string]string), history: make(map[string][]domain.HistoryEntry)}
}

func (s *memSettings) VoiceType(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if v, ok := s.voices[userID]; ok {
		return v, nil
	}
	return domain.DefaultVoiceType, nil
}

func (s *memSettings) SetVoiceType(_ context.Context, userID, voiceType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voices[userID] = voiceType
	return nil
}

func (s *memSettings) ListHistory(_ context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.history[userID]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// fakeEmbedder maps known texts to fixed vectors and counts calls.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   int
	err     error
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	v, ok := e.vectors[text]
	if !ok {
		return []float32{0, 0, 1}, nil
	}
	return v, nil
}

func (e *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// fixedIndex answers every search with the hits registered per first component.
type fixedIndex struct {
	hits map[float32][]domain.SearchHit
}

func (f *fixedIndex) EnsureIndex(context.Context) error { return nil }

func (f *fixedIndex) BulkInsert(_ context.Context, docs []domain.IndexDocument) (domain.BulkResult, error) {
	return domain.BulkResult{Indexed: len(docs)}, nil
}

func (f *fixedIndex) Search(_ context.Context, vector []float32, k int) ([]domain.SearchHit, error) {
	hits := f.hits[vector[0]]
	if len(hits) > k {
		hits = hits[:k]
	}
	return append([]domain.SearchHit(nil), hits...), nil
}

type fakeSynth struct {
	fail map[string]bool
}

func (s *fakeSynth) Synthesize(_ context.Context, text string, voice domain.Voice) ([]byte, error) {
	if s.fail[voice.Name] {
		return nil, fmt.Errorf("voice %s unavailable", voice.Name)
	}
	return []byte("mp3:" + voice.Name + ":" + text), nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(_ context.Context, data []byte, key, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.objects[key] = data
	return s.PublicURL(key), nil
}

func (s *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

type fakeRenderer struct {
	err error
}

func (r fakeRenderer) Render(_ context.Context, url string) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("jpeg:" + url), nil
}

type fakeFeeds map[string][]string

func (f fakeFeeds) FetchURLs(_ context.Context, feedURL string) ([]string, error) {
	urls, ok := f[feedURL]
	if !ok {
		return nil, errors.New("feed unavailable")
	}
	return urls, nil
}

// scriptedExtractor fails for URLs containing "bad" and panics on "panic".
type scriptedExtractor struct{ name string }

func (s scriptedExtractor) Publisher() string { return s.name }

func (s scriptedExtractor) ExtractArticle(_ context.Context, url string) (domain.RawArticle, error) {
	switch {
	case strings.Contains(url, "panic"):
		panic("selector exploded")
	case strings.Contains(url, "bad"):
		return domain.RawArticle{}, errors.New("http status 500")
	}
	return domain.RawArticle{
		Title:         "title of " + url,
		URL:           "https://canonical.example/" + url,
		Body:          "body of " + url,
		PublishedTime: "2026-10-18T09:00:00+09:00",
	}, nil
}

type fakeSummarizer struct {
	fail string
}

func (s fakeSummarizer) Summarize(_ context.Context, text string) (string, error) {
	if s.fail != "" && strings.Contains(text, s.fail) {
		return "", errors.New("provider timeout")
	}
	return "summary: " + text, nil
}
