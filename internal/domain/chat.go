package domain

import "time"

// Chat roles as the completion API names them.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ArticleContext is the article a conversation is grounded on.
type ArticleContext struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	Category    string `json:"category"`
	Press       string `json:"press"`
	Author      string `json:"author"`
	PublishedAt string `json:"published_at"`
	URL         string `json:"url"`
}

// ChatReply answers one user message.
type ChatReply struct {
	ConversationID string          `json:"conversation_id"`
	Response       string          `json:"response"`
	ArticleContext *ArticleContext `json:"article_context,omitempty"`
}
