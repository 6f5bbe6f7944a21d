// Package llm talks to OpenAI-compatible chat and embedding APIs.
package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"NewsBrief/internal/config"
	"NewsBrief/internal/infrastructure/breaker"
)

// Client holds the transport shared by the summarizer and the embedder.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger
}

// NewClient creates a reusable HTTP client guarded by a circuit breaker.
// bs tunes the breaker; its zero value takes the defaults.
func NewClient(cfg config.OpenAIConfig, bs breaker.Settings, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		cb:      breaker.New[[]byte]("openai", bs, logger),
		logger:  logger.With("component", "openai"),
	}
}

func (c *Client) post(ctx context.Context, path string, payload any, v any) error {
	if c.apiKey == "" || c.baseURL == "" {
		return fmt.Errorf("openai client misconfigured")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	raw, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, path, body)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("openai %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return raw, nil
}
