// Package tts renders article summaries to speech.
package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"NewsBrief/internal/config"
	"NewsBrief/internal/domain"
	"NewsBrief/internal/infrastructure/breaker"
	"NewsBrief/internal/ports"
)

// GoogleClient calls the Cloud Text-to-Speech REST endpoint and returns MP3
// bytes.
type GoogleClient struct {
	endpoint string
	apiKey   string
	http     *http.Client
	cb       *gobreaker.CircuitBreaker[[]byte]
	logger   *slog.Logger
}

var _ ports.SpeechSynthesizer = (*GoogleClient)(nil)

// NewGoogleClient constructs a speech client guarded by a circuit breaker.
func NewGoogleClient(cfg config.TTSConfig, bs breaker.Settings, logger *slog.Logger) *GoogleClient {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GoogleClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		cb:       breaker.New[[]byte]("tts", bs, logger),
		logger:   logger.With("component", "tts"),
	}
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent []byte `json:"audioContent"`
}

// Synthesize renders text with voice as MP3.
func (c *GoogleClient) Synthesize(ctx context.Context, text string, voice domain.Voice) ([]byte, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("tts endpoint not configured")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("synthesize empty text")
	}

	var req synthesizeRequest
	req.Input.Text = text
	req.Voice.LanguageCode = voice.LanguageCode
	req.Voice.Name = voice.Name
	req.AudioConfig.AudioEncoding = "MP3"
	req.AudioConfig.SpeakingRate = voice.SpeakingRate

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal tts payload: %w", err)
	}

	raw, err := c.cb.Execute(func() ([]byte, error) {
		return c.post(ctx, body)
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize %s: %w", voice.Name, err)
	}

	var resp synthesizeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode tts response: %w", err)
	}
	if len(resp.AudioContent) == 0 {
		return nil, fmt.Errorf("synthesize %s: empty audio", voice.Name)
	}

	c.logger.Debug("speech synthesized", "voice", voice.Name, "text_length", len([]rune(text)), "audio_bytes", len(resp.AudioContent))
	return resp.AudioContent, nil
}

func (c *GoogleClient) post(ctx context.Context, body []byte) ([]byte, error) {
	endpoint := c.endpoint
	if c.apiKey != "" {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		q := u.Query()
		q.Set("key", c.apiKey)
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("tts %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	return io.ReadAll(resp.Body)
}
