package ollama

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ollama/ollama/api"
	"github.com/poiesic/datakg/ai"
	"golang.org/x/sync/semaphore"
)

// Embedder implements ai.Embedder using the Ollama embed endpoint.
type Embedder struct {
	client  *api.Client
	model   string
	reqLock *semaphore.Weighted
	logger  *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newClient(config.EmbeddingHost)
	if err != nil {
		return nil, err
	}
	return &Embedder{
		client:  client,
		model:   config.EmbeddingModel,
		reqLock: newLimiter(config.MaxConcurrentRequests),
		logger:  slog.Default().With("component", "ollama-embedder", "model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder creates an embedder for the configured model.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings in one request.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := e.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer e.reqLock.Release(1)

	e.logger.Debug("generating embeddings for texts", "count", len(texts))
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model: e.model,
		Input: texts,
	})
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, fmt.Errorf("embed with %s: %w", e.model, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), len(resp.Embeddings))
	}
	return resp.Embeddings, nil
}
