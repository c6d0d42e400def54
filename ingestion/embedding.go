package ingestion

import (
	"context"
	"fmt"
	"log/slog"
)

// Embedder embeds dataset texts under a fixed model.
// *embedding.Service implements it.
type Embedder interface {
	Model() string
	EmbedAll(ctx context.Context, texts []string) ([][]float32, error)
}

// embedStage embeds the title and description of every dataset.
type embedStage struct {
	embedder Embedder
	logger   *slog.Logger
}

var _ stage = embedStage{}

func (embedStage) name() string { return "embed" }

func (s embedStage) run(ctx context.Context, b *build) error {
	b.ids, b.texts = embeddingInputs(b.datasets)

	s.logger.Debug("embedding datasets", "datasets", len(b.texts), "model", s.embedder.Model())
	vectors, err := s.embedder.EmbedAll(ctx, b.texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(b.texts) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(b.texts), len(vectors))
	}
	b.vectors = vectors
	b.result.Embedded = len(vectors)
	return nil
}
