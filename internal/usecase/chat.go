package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

const (
	generalChatPrompt = "당신은 뉴스에 대한 일반적인 질문에 답변하는 AI 어시스턴트입니다. " +
		"한국어로 답변하고, 이전 대화 내용을 참고하여 연속적인 대화를 유지하세요."

	articleChatPrompt = `당신은 뉴스 기사에 대한 질문에 답변하는 전문적인 AI 어시스턴트입니다.

다음 규칙을 따라주세요:
1. 뉴스 기사와 관련된 질문에만 답변하세요
2. 정확하고 객관적인 정보를 제공하세요
3. 제공된 기사 내용을 바탕으로 답변하세요
4. 모르는 내용에 대해서는 솔직히 모른다고 답변하세요
5. 한국어로 답변하세요
6. 이전 대화 내용을 참고하여 연속적인 대화를 유지하세요
7. 추가 정보가 필요한 경우 원본 기사 주소를 안내하세요

기사 정보:
- 제목: %s
- 요약: %s
- 카테고리: %s
- 언론사: %s
- 작성자: %s
- 발행일: %s
- 주소: %s`

	// chatUnavailableReply is stored and returned when the model cannot answer.
	chatUnavailableReply = "죄송합니다. 지금은 답변을 생성할 수 없습니다. 잠시 후 다시 시도해 주세요."

	unknownPress = "알 수 없음"
)

// ChatHistoryKey is the cache key of one conversation.
func ChatHistoryKey(conversationID string) string {
	return "chat_history:" + conversationID
}

// conversation is the cached form of a chat. ExpiresAt is fixed when the
// conversation starts; later turns are written with the remaining lifetime.
type conversation struct {
	ExpiresAt time.Time            `json:"expires_at"`
	Messages  []domain.ChatMessage `json:"messages"`
}

type chatInput struct {
	Message string `validate:"required"`
}

// ChatDeps are the collaborators of ChatService.
type ChatDeps struct {
	Articles   ports.ArticleRepository
	Publishers ports.PublisherDirectory
	Completer  ports.ChatCompleter
	Cache      ports.CacheStore
	Logger     *slog.Logger
}

// ChatService answers questions about articles, keeping each conversation's
// history in the cache for a fixed lifetime.
type ChatService struct {
	articles   ports.ArticleRepository
	publishers ports.PublisherDirectory
	completer  ports.ChatCompleter
	cache      ports.CacheStore
	ttl        time.Duration
	maxLen     int
	loc        *time.Location
	validate   *validator.Validate
	now        func() time.Time
	logger     *slog.Logger
}

// NewChatService constructs the chatbot. Conversations live for ttl from
// their first message; messages longer than maxLen runes are rejected when
// maxLen is positive.
func NewChatService(deps ChatDeps, ttl time.Duration, maxLen int, loc *time.Location) *ChatService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ChatService{
		articles:   deps.Articles,
		publishers: deps.Publishers,
		completer:  deps.Completer,
		cache:      deps.Cache,
		ttl:        ttl,
		maxLen:     maxLen,
		loc:        loc,
		validate:   validator.New(),
		now:        time.Now,
		logger:     logger.With("component", "chat"),
	}
}

// Start opens a new conversation. With an articleID the model is grounded on
// that article; a missing or deleted article is domain.ErrNotFound.
func (c *ChatService) Start(ctx context.Context, articleID, message string) (domain.ChatReply, error) {
	message, err := c.checkMessage(message)
	if err != nil {
		return domain.ChatReply{}, err
	}
	article, err := c.articleContext(ctx, articleID)
	if err != nil {
		return domain.ChatReply{}, err
	}

	now := c.now()
	conv := conversation{ExpiresAt: now.Add(c.ttl)}
	return c.reply(ctx, uuid.NewString(), conv, article, message, now)
}

// Continue adds a message to an existing conversation. An unknown or expired
// conversation is domain.ErrNotFound.
func (c *ChatService) Continue(ctx context.Context, conversationID, articleID, message string) (domain.ChatReply, error) {
	if strings.TrimSpace(conversationID) == "" {
		return domain.ChatReply{}, fmt.Errorf("%w: conversation_id is required, start a new conversation first", domain.ErrValidation)
	}
	message, err := c.checkMessage(message)
	if err != nil {
		return domain.ChatReply{}, err
	}

	conv, err := c.load(ctx, conversationID)
	if err != nil {
		return domain.ChatReply{}, err
	}
	article, err := c.articleContext(ctx, articleID)
	if err != nil {
		return domain.ChatReply{}, err
	}
	return c.reply(ctx, conversationID, conv, article, message, c.now())
}

// History returns the stored turns of a live conversation.
func (c *ChatService) History(ctx context.Context, conversationID string) ([]domain.ChatMessage, error) {
	conv, err := c.load(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return conv.Messages, nil
}

func (c *ChatService) reply(ctx context.Context, id string, conv conversation, article *domain.ArticleContext, message string, now time.Time) (domain.ChatReply, error) {
	prompt := generalChatPrompt
	if article != nil {
		prompt = fmt.Sprintf(articleChatPrompt,
			article.Title, article.Summary, article.Category, article.Press,
			article.Author, article.PublishedAt, article.URL)
	}

	messages := make([]domain.ChatMessage, 0, len(conv.Messages)+2)
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: prompt})
	for _, m := range conv.Messages {
		if m.Role == domain.RoleUser || m.Role == domain.RoleAssistant {
			messages = append(messages, domain.ChatMessage{Role: m.Role, Content: m.Content})
		}
	}
	messages = append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: message})

	answer, err := c.completer.Complete(ctx, messages)
	if err != nil {
		c.logger.Warn("chat completion failed", "conversation_id", id, "error", err)
		answer = chatUnavailableReply
	}

	conv.Messages = append(conv.Messages,
		domain.ChatMessage{Role: domain.RoleUser, Content: message, Timestamp: now},
		domain.ChatMessage{Role: domain.RoleAssistant, Content: answer, Timestamp: c.now()},
	)
	if err := c.save(ctx, id, conv); err != nil {
		return domain.ChatReply{}, err
	}

	return domain.ChatReply{ConversationID: id, Response: answer, ArticleContext: article}, nil
}

func (c *ChatService) checkMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if err := c.validate.Struct(chatInput{Message: message}); err != nil {
		return "", fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	if c.maxLen > 0 && len([]rune(message)) > c.maxLen {
		return "", fmt.Errorf("%w: message longer than %d characters", domain.ErrValidation, c.maxLen)
	}
	return message, nil
}

func (c *ChatService) articleContext(ctx context.Context, articleID string) (*domain.ArticleContext, error) {
	if articleID == "" {
		return nil, nil
	}
	article, err := c.articles.GetArticle(ctx, articleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("article %s: %w", articleID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load article: %w", err)
	}

	press := unknownPress
	if publisher, err := c.publishers.PublisherByID(ctx, article.PublisherID); err == nil {
		press = publisher.Name
	} else if !errors.Is(err, domain.ErrNotFound) {
		c.logger.Warn("publisher lookup failed", "publisher_id", article.PublisherID, "error", err)
	}

	return &domain.ArticleContext{
		Title:       article.Title,
		Summary:     article.Summary,
		Category:    article.CategoryName,
		Press:       press,
		Author:      article.Author,
		PublishedAt: article.PublishedAt.In(c.loc).Format("2006-01-02 15:04"),
		URL:         article.URL,
	}, nil
}

func (c *ChatService) load(ctx context.Context, id string) (conversation, error) {
	raw, ok, err := c.cache.Get(ctx, ChatHistoryKey(id))
	if err != nil {
		return conversation{}, fmt.Errorf("load conversation: %w", err)
	}
	if !ok {
		return conversation{}, fmt.Errorf("conversation %s expired or unknown: %w", id, domain.ErrNotFound)
	}

	var conv conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return conversation{}, fmt.Errorf("decode conversation %s: %w", id, err)
	}
	if !conv.ExpiresAt.After(c.now()) {
		return conversation{}, fmt.Errorf("conversation %s expired or unknown: %w", id, domain.ErrNotFound)
	}
	return conv, nil
}

func (c *ChatService) save(ctx context.Context, id string, conv conversation) error {
	remaining := conv.ExpiresAt.Sub(c.now())
	if remaining <= 0 {
		return fmt.Errorf("conversation %s expired or unknown: %w", id, domain.ErrNotFound)
	}
	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := c.cache.Set(ctx, ChatHistoryKey(id), raw, remaining); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	c.logger.Debug("conversation saved", "conversation_id", id, "turns", len(conv.Messages), "expires_in", remaining.Round(time.Second))
	return nil
}
