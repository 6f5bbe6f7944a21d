package llm

import (
	"context"
	"fmt"
	"strings"

	"NewsBrief/internal/config"
	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

const defaultSystemPrompt = "Summarize the news article in three or four sentences in Korean."

// Summarizer condenses article bodies through the chat completions API.
type Summarizer struct {
	client       *Client
	model        string
	systemPrompt string
}

var _ ports.Summarizer = (*Summarizer)(nil)

// NewSummarizer constructs a summarizer on the configured chat model.
func NewSummarizer(client *Client, cfg config.OpenAIConfig) *Summarizer {
	return &Summarizer{
		client:       client,
		model:        cfg.ChatModel,
		systemPrompt: safePrompt(cfg.SystemPrompt),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Summarize returns the model's summary of text.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("summarize empty text")
	}

	var resp chatResponse
	err := s.client.post(ctx, "/chat/completions", chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: s.systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.3,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summarize: empty completion")
	}
	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", fmt.Errorf("summarize: empty completion")
	}
	return summary, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}

// Chat continues conversations through the chat completions API.
type Chat struct {
	client      *Client
	model       string
	temperature float64
}

var _ ports.ChatCompleter = (*Chat)(nil)

// NewChat constructs a conversational completer on the configured chat model.
func NewChat(client *Client, cfg config.OpenAIConfig) *Chat {
	return &Chat{client: client, model: cfg.ChatModel, temperature: 0.7}
}

// Complete returns the assistant's next turn.
func (c *Chat) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("chat: no messages")
	}
	req := chatRequest{Model: c.model, Temperature: c.temperature}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	var resp chatResponse
	if err := c.client.post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat: empty completion")
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("chat: empty completion")
	}
	return answer, nil
}
