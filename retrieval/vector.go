package retrieval

import (
	"context"
	"log/slog"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/vectorindex"
)

// Vector strategy defaults.
const (
	DefaultK     = 20
	DefaultFloor = 0.9
)

// QueryEmbedder embeds query text. *embedding.Service implements it.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher is a nearest-neighbor index. *vectorindex.Index
// implements it.
type VectorSearcher interface {
	Search(query []float32, k int) ([]vectorindex.Hit, error)
}

// DatasetLookup resolves dataset ids. *graph.Store implements it.
type DatasetLookup interface {
	Dataset(id string) (core.Dataset, bool)
}

// VectorStrategy finds datasets whose embeddings are closest to the query.
type VectorStrategy struct {
	embedder QueryEmbedder
	index    VectorSearcher
	catalog  DatasetLookup
	k        int
	floor    float32
	logger   *slog.Logger
}

// VectorOption configures a VectorStrategy.
type VectorOption func(*VectorStrategy)

// WithK sets the number of neighbors requested from the index.
func WithK(k int) VectorOption {
	return func(s *VectorStrategy) {
		if k > 0 {
			s.k = k
		}
	}
}

// WithFloor sets the minimum cosine similarity of a kept hit.
func WithFloor(floor float32) VectorOption {
	return func(s *VectorStrategy) { s.floor = floor }
}

// NewVectorStrategy creates a vector strategy.
func NewVectorStrategy(embedder QueryEmbedder, index VectorSearcher, catalog DatasetLookup, opts ...VectorOption) (*VectorStrategy, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if index == nil {
		return nil, ErrIndexRequired
	}
	if catalog == nil {
		return nil, ErrStoreRequired
	}
	s := &VectorStrategy{
		embedder: embedder,
		index:    index,
		catalog:  catalog,
		k:        DefaultK,
		floor:    DefaultFloor,
		logger:   slog.Default().With("component", "retrieval", "strategy", KindVector),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Kind implements Strategy.
func (s *VectorStrategy) Kind() Kind { return KindVector }

// Retrieve returns one result per distribution of every hit whose
// similarity reaches the floor, closest dataset first.
func (s *VectorStrategy) Retrieve(ctx context.Context, req *core.RetrievalRequest) ([]core.RetrievalResult, error) {
	vec, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	hits, err := s.index.Search(vec, s.k)
	if err != nil {
		return nil, err
	}

	var out []core.RetrievalResult
	kept := 0
	for _, hit := range hits {
		if hit.Similarity() < s.floor {
			break
		}
		d, ok := s.catalog.Dataset(hit.ID)
		if !ok {
			s.logger.Warn("index hit missing from catalog", "dataset", hit.ID)
			continue
		}
		kept++
		base := core.RetrievalResult{
			DatasetID:   d.ID,
			Title:       d.Title,
			Description: d.Description,
			Publisher:   d.Publisher,
			Distance:    hit.Distance,
		}
		if len(d.Distributions) == 0 {
			out = append(out, base)
			continue
		}
		for _, dist := range d.Distributions {
			r := base
			r.Name = dist.Name
			r.URL = dist.URL
			r.Format = dist.Format
			out = append(out, r)
		}
	}
	s.logger.Debug("vector search", "hits", len(hits), "kept", kept, "floor", s.floor)
	return out, nil
}
