package llm

import (
	"context"
	"fmt"
	"sort"

	"NewsBrief/internal/config"
	"NewsBrief/internal/domain"
	"NewsBrief/internal/ports"
)

// Embedder turns text into vectors through the embeddings API.
type Embedder struct {
	client *Client
	model  string
	dim    int
}

var _ ports.Embedder = (*Embedder)(nil)

// NewEmbedder targets the configured embedding model. Vectors of any other
// size than domain.EmbeddingDimension are rejected.
func NewEmbedder(client *Client, cfg config.OpenAIConfig) *Embedder {
	model := cfg.EmbeddingModel
	if model == "" {
		model = "text-embedding-ada-002"
	}
	return &Embedder{client: client, model: model, dim: domain.EmbeddingDimension}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the vector of a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in a single request, preserving input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embeddingResponse
	if err := e.client.post(ctx, "/embeddings", embeddingRequest{Model: e.model, Input: texts}, &resp); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) != e.dim {
			return nil, fmt.Errorf("embed: vector %d has dimension %d, want %d", i, len(d.Embedding), e.dim)
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
