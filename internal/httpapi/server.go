// Package httpapi exposes the read and dispatch operations over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"NewsBrief/internal/domain"
)

// UserHeader carries the caller's user id. Authentication happens upstream.
const UserHeader = "X-User-ID"

type Recommender interface {
	Recommend(ctx context.Context, userID string) ([]domain.Recommendation, error)
	RecommendByKeyword(ctx context.Context, userID, keyword string) ([]domain.Recommendation, error)
}

type Indexer interface {
	IndexForUser(ctx context.Context, userID string) (domain.BulkResult, error)
}

type Articles interface {
	Recent(ctx context.Context, limit int) ([]domain.Article, error)
	ByCategory(ctx context.Context, userID, category string) ([]domain.Article, error)
	Get(ctx context.Context, id string) (domain.Article, error)
	Delete(ctx context.Context, id string) error
	MarkViewed(ctx context.Context, userID, articleID string) error
}

type Tasks interface {
	Dispatch(ctx context.Context, kind domain.TaskKind, articleID string) (domain.TaskHandle, error)
	Status(ctx context.Context, taskID string) (domain.TaskResult, error)
}

type Users interface {
	Preferences(ctx context.Context, userID string) (domain.Preferences, error)
	VoiceType(ctx context.Context, userID string) (string, error)
	SetVoiceType(ctx context.Context, userID, voiceType string) (string, error)
	History(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error)
}

type Chat interface {
	Start(ctx context.Context, articleID, message string) (domain.ChatReply, error)
	Continue(ctx context.Context, conversationID, articleID, message string) (domain.ChatReply, error)
}

// Deps are the use cases served by the router. Metrics may be nil.
type Deps struct {
	Recommender Recommender
	Indexer     Indexer
	Articles    Articles
	Tasks       Tasks
	Users       Users
	Chat        Chat
	Metrics     http.Handler
	Logger      *slog.Logger
}

type handler struct {
	recommender Recommender
	indexer     Indexer
	articles    Articles
	tasks       Tasks
	users       Users
	chat        Chat
	logger      *slog.Logger
}

// NewRouter builds the chi router with every route mounted.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{
		recommender: deps.Recommender,
		indexer:     deps.Indexer,
		articles:    deps.Articles,
		tasks:       deps.Tasks,
		users:       deps.Users,
		chat:        deps.Chat,
		logger:      logger.With("component", "httpapi"),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/recommendations", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/", h.recommend)
		r.Get("/keywords/{keyword}", h.recommendByKeyword)
		r.Post("/index", h.index)
	})

	r.Route("/articles", func(r chi.Router) {
		r.Get("/recent", h.recent)
		r.With(requireUser).Get("/category/{category}", h.byCategory)
		r.Get("/{id}", h.article)
		r.Delete("/{id}", h.deleteArticle)
		r.With(requireUser).Post("/{id}/view", h.markViewed)
		r.Post("/{id}/tts", h.dispatch(domain.TaskSpeech))
		r.Post("/{id}/thumbnail", h.dispatch(domain.TaskThumbnail))
	})

	r.Get("/tasks/{id}", h.taskStatus)

	r.Route("/users/me", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/preferences", h.preferences)
		r.Get("/voice-type", h.voiceType)
		r.Put("/voice-type", h.setVoiceType)
		r.Get("/history", h.history)
	})

	r.Route("/chat", func(r chi.Router) {
		r.Post("/start", h.startChat)
		r.Post("/message", h.chatMessage)
	})

	return r
}

type userKey struct{}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get(UserHeader)
		if user == "" {
			respondMessage(w, http.StatusBadRequest, "missing "+UserHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
	})
}

func userID(r *http.Request) string {
	user, _ := r.Context().Value(userKey{}).(string)
	return user
}
