package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/graph"
	"github.com/poiesic/datakg/similarity"
	"github.com/poiesic/datakg/vectorindex"
)

// Catalog holds the loaded artifacts of a built catalog.
type Catalog struct {
	Graph *graph.Store
	Index *vectorindex.Index
	// Matrix is nil when the similarity artifact is absent.
	Matrix *similarity.Matrix
}

// OpenCatalog loads the catalog under layout. The graph must exist. A
// missing or stale vector index is rebuilt from the graph's datasets with
// embedder; a nil embedder makes that an error.
func OpenCatalog(ctx context.Context, layout Layout, embedder Embedder, opts ...graph.Option) (*Catalog, error) {
	if layout.Dir == "" {
		return nil, ErrDataDirRequired
	}
	logger := slog.Default().With("component", "ingestion")

	store, err := graph.LoadFile(ctx, layout.GraphPath(), opts...)
	if err != nil {
		return nil, err
	}
	datasets := store.Datasets()

	var ix *vectorindex.Index
	if embedder != nil {
		rebuild := func(ctx context.Context) ([]string, [][]float32, error) {
			ids, texts := embeddingInputs(datasets)
			vectors, err := embedder.EmbedAll(ctx, texts)
			if err != nil {
				return nil, nil, err
			}
			return ids, vectors, nil
		}
		ix, _, err = vectorindex.Open(ctx, layout.IndexPath(), embedder.Model(), Fingerprint(embedder.Model(), datasets), rebuild)
	} else {
		ix, err = vectorindex.Load(ctx, layout.IndexPath())
	}
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}

	m, err := similarity.Load(ctx, layout.SimilarityPath())
	switch {
	case errors.Is(err, core.ErrNotFound):
		logger.Warn("similarity matrix missing", "path", layout.SimilarityPath())
		m = nil
	case err != nil:
		return nil, err
	}

	logger.Info("catalog opened", "datasets", len(datasets), "vectors", ix.Len())
	return &Catalog{Graph: store, Index: ix, Matrix: m}, nil
}
