package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"NewsBrief/internal/domain"
)

type articleView struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	URL               string    `json:"url"`
	PublishedAt       time.Time `json:"published_at"`
	Summary           string    `json:"summary_text"`
	MaleAudioURL      string    `json:"male_audio_url"`
	FemaleAudioURL    string    `json:"female_audio_url"`
	OriginalImageURL  string    `json:"original_image_url"`
	ThumbnailImageURL string    `json:"thumbnail_image_url"`
	Author            string    `json:"author"`
	CategoryName      string    `json:"category_name"`
}

func viewOf(a domain.Article) articleView {
	return articleView{
		ID:                a.ID,
		Title:             a.Title,
		URL:               a.URL,
		PublishedAt:       a.PublishedAt,
		Summary:           a.Summary,
		MaleAudioURL:      a.MaleAudioURL,
		FemaleAudioURL:    a.FemaleAudioURL,
		OriginalImageURL:  a.OriginalImageURL,
		ThumbnailImageURL: a.ThumbnailImageURL,
		Author:            a.Author,
		CategoryName:      a.CategoryName,
	}
}

func viewsOf(articles []domain.Article) []articleView {
	out := make([]articleView, len(articles))
	for i, a := range articles {
		out[i] = viewOf(a)
	}
	return out
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

func list[T any](items []T) listResponse[T] {
	return listResponse[T]{Items: items, Count: len(items)}
}

func (h *handler) recommend(w http.ResponseWriter, r *http.Request) {
	recs, err := h.recommender.Recommend(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list(recs))
}

func (h *handler) recommendByKeyword(w http.ResponseWriter, r *http.Request) {
	recs, err := h.recommender.RecommendByKeyword(r.Context(), userID(r), chi.URLParam(r, "keyword"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list(recs))
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	result, err := h.indexer.IndexForUser(r.Context(), userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"indexed": result.Indexed,
		"failed":  result.Failed,
	})
}

func (h *handler) recent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	articles, err := h.articles.Recent(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list(viewsOf(articles)))
}

func (h *handler) byCategory(w http.ResponseWriter, r *http.Request) {
	articles, err := h.articles.ByCategory(r.Context(), userID(r), chi.URLParam(r, "category"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list(viewsOf(articles)))
}

func (h *handler) article(w http.ResponseWriter, r *http.Request) {
	a, err := h.articles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, viewOf(a))
}

func (h *handler) deleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := h.articles.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "article deleted")
}

func (h *handler) markViewed(w http.ResponseWriter, r *http.Request) {
	if err := h.articles.MarkViewed(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	respondMessage(w, http.StatusOK, "article marked as viewed")
}

func (h *handler) dispatch(kind domain.TaskKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := h.articles.Get(r.Context(), id); err != nil {
			h.fail(w, r, err)
			return
		}
		handle, err := h.tasks.Dispatch(r.Context(), kind, id)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		respondJSON(w, http.StatusAccepted, handle)
	}
}

func (h *handler) taskStatus(w http.ResponseWriter, r *http.Request) {
	result, err := h.tasks.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// fail maps use case errors onto status codes. Internal details never
// reach the client.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNoResults):
		respondMessage(w, http.StatusNotFound, "no results")
	case errors.Is(err, domain.ErrNotFound):
		respondMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrValidation):
		respondMessage(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
