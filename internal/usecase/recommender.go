package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"NewsBrief/internal/config"
	"NewsBrief/internal/domain"
	"NewsBrief/internal/metrics"
	"NewsBrief/internal/ports"
)

// Score aggregation across keywords that hit the same article.
const (
	AggregateFirst = "first"
	AggregateMax   = "max"
	AggregateSum   = "sum"
)

const (
	keywordSearchK    = 20
	keywordTopK       = 10
	titleKeywordBoost = 0.3
	bodyKeywordBoost  = 0.1
)

type RecommenderDeps struct {
	Preferences ports.PreferenceRepository
	Articles    ports.ArticleRepository
	Embeddings  *EmbeddingCache
	Index       ports.VectorIndex
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
}

// Recommender answers per-user semantic queries against the vector index.
type Recommender struct {
	prefs     ports.PreferenceRepository
	articles  ports.ArticleRepository
	embedding *EmbeddingCache
	index     ports.VectorIndex
	cfg       config.RecommendConfig
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewRecommender constructs the recommendation flow.
func NewRecommender(deps RecommenderDeps, cfg config.RecommendConfig) *Recommender {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 30
	}
	if cfg.PerKeywordK <= 0 {
		cfg.PerKeywordK = 30
	}
	switch cfg.Aggregation {
	case AggregateFirst, AggregateMax, AggregateSum:
	default:
		cfg.Aggregation = AggregateFirst
	}
	return &Recommender{
		prefs:     deps.Preferences,
		articles:  deps.Articles,
		embedding: deps.Embeddings,
		index:     deps.Index,
		cfg:       cfg,
		metrics:   deps.Metrics,
		logger:    logger.With("component", "recommender"),
	}
}

// Recommend returns up to TopK articles for the user's keywords, sorted by
// non-increasing score with unique ids. ErrNoResults when nothing survives.
func (r *Recommender) Recommend(ctx context.Context, userID string) ([]domain.Recommendation, error) {
	start := time.Now()
	defer func() { r.metrics.RecommendationServed(time.Since(start)) }()

	keywords, err := r.prefs.UserKeywords(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}
	if len(keywords) == 0 {
		return nil, domain.ErrNoResults
	}

	perKeyword := make([][]domain.SearchHit, len(keywords))
	g, gctx := errgroup.WithContext(ctx)
	for i, kw := range keywords {
		g.Go(func() error {
			vector, err := r.embedding.Get(gctx, userID, kw)
			if err != nil {
				return err
			}
			hits, err := r.index.Search(gctx, vector, r.cfg.PerKeywordK)
			if err != nil {
				return fmt.Errorf("search keyword %q: %w", kw, err)
			}
			perKeyword[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := MergeHits(perKeyword, r.cfg.Aggregation)
	kept := merged[:0]
	for _, hit := range merged {
		if hit.Score >= r.cfg.ScoreThreshold {
			kept = append(kept, hit)
		}
	}
	if len(kept) == 0 {
		return nil, domain.ErrNoResults
	}

	recs, err := r.hydrate(ctx, kept, "")
	if err != nil {
		return nil, err
	}
	recs = rank(recs, r.cfg.TopK)
	if len(recs) == 0 {
		return nil, domain.ErrNoResults
	}

	r.logger.Info("recommendations served", "user_id", userID, "keywords", len(keywords), "results", len(recs))
	return recs, nil
}

// RecommendByKeyword ranks articles for a single keyword, boosting those
// that mention it literally.
func (r *Recommender) RecommendByKeyword(ctx context.Context, userID, keyword string) ([]domain.Recommendation, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("%w: empty keyword", domain.ErrValidation)
	}

	vector, err := r.embedding.Get(ctx, userID, keyword)
	if err != nil {
		return nil, err
	}
	hits, err := r.index.Search(ctx, vector, keywordSearchK)
	if err != nil {
		return nil, fmt.Errorf("search keyword %q: %w", keyword, err)
	}

	kept := hits[:0]
	for _, hit := range hits {
		if hit.Score >= r.cfg.ScoreThreshold {
			kept = append(kept, hit)
		}
	}

	recs, err := r.hydrate(ctx, kept, keyword)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(keyword)
	for i := range recs {
		switch {
		case strings.Contains(strings.ToLower(recs[i].Title), needle):
			recs[i].Score += titleKeywordBoost
		case strings.Contains(strings.ToLower(recs[i].Summary), needle):
			recs[i].Score += bodyKeywordBoost
		}
	}

	recs = rank(recs, keywordTopK)
	if len(recs) == 0 {
		return nil, domain.ErrNoResults
	}
	return recs, nil
}

// MergeHits flattens per-keyword hit lists in keyword order, keeping one
// entry per article id. The surviving score depends on mode.
func MergeHits(perKeyword [][]domain.SearchHit, mode string) []domain.SearchHit {
	index := make(map[string]int)
	var merged []domain.SearchHit
	for _, hits := range perKeyword {
		for _, hit := range hits {
			pos, seen := index[hit.ID]
			if !seen {
				index[hit.ID] = len(merged)
				merged = append(merged, hit)
				continue
			}
			switch mode {
			case AggregateMax:
				if hit.Score > merged[pos].Score {
					merged[pos].Score = hit.Score
				}
			case AggregateSum:
				merged[pos].Score += hit.Score
			}
		}
	}
	return merged
}

func (r *Recommender) hydrate(ctx context.Context, hits []domain.SearchHit, keyword string) ([]domain.Recommendation, error) {
	if len(hits) == 0 {
		return nil, nil
	}
	ids := make([]string, len(hits))
	for i, hit := range hits {
		ids[i] = hit.ID
	}
	found, err := r.articles.GetArticles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate articles: %w", err)
	}

	recs := make([]domain.Recommendation, 0, len(hits))
	for _, hit := range hits {
		a, ok := found[hit.ID]
		if !ok {
			continue
		}
		recs = append(recs, domain.Recommendation{
			ArticleID:    a.ID,
			Title:        a.Title,
			Summary:      a.Summary,
			ThumbnailURL: a.ThumbnailImageURL,
			CategoryName: a.CategoryName,
			Author:       a.Author,
			PublishedAt:  a.PublishedAt,
			Score:        hit.Score,
			Keyword:      keyword,
		})
	}
	return recs, nil
}

func rank(recs []domain.Recommendation, topK int) []domain.Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})
	if len(recs) > topK {
		recs = recs[:topK]
	}
	return recs
}
