package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/datakg/embedding"
)

// Config holds the tunables of a Linker.
type Config struct {
	// Threshold is the score a pair must exceed to be linked.
	Threshold float32

	// ExactCeiling is the largest catalog compared exhaustively. Larger
	// catalogs use the LSH candidate pass.
	ExactCeiling int

	// BlockSize is the edge length of a tile of the blocked matrix product.
	BlockSize int

	// Workers bounds the tiles computed concurrently.
	Workers int

	// Planes is the signature length in bits of one LSH table.
	Planes int

	// Tables is the number of independent LSH tables.
	Tables int

	// Seed makes the random hyperplanes reproducible.
	Seed uint64
}

// DefaultConfig returns the standard linking configuration.
func DefaultConfig() Config {
	return Config{
		Threshold:    0.8,
		ExactCeiling: 4000,
		BlockSize:    128,
		Workers:      runtime.NumCPU(),
		Planes:       12,
		Tables:       8,
		Seed:         1,
	}
}

// EdgeSink receives similarity edges. *graph.Store implements it.
type EdgeSink interface {
	ClearSimilarity() int
	AddSimilarity(a, b string) error
}

// Linker computes similarity matrices and turns them into edges.
type Linker struct {
	config Config
	logger *slog.Logger
}

// Option configures a Linker.
type Option func(*Linker)

// WithConfig replaces the default tunables.
func WithConfig(cfg Config) Option {
	return func(l *Linker) { l.config = cfg }
}

// WithThreshold overrides only the link threshold.
func WithThreshold(t float32) Option {
	return func(l *Linker) { l.config.Threshold = t }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Linker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLinker creates a Linker.
func NewLinker(opts ...Option) *Linker {
	l := &Linker{
		config: DefaultConfig(),
		logger: slog.Default().With("component", "similarity"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.config.BlockSize = max(l.config.BlockSize, 1)
	l.config.Workers = max(l.config.Workers, 1)
	return l
}

// Threshold returns the configured link threshold.
func (l *Linker) Threshold() float32 { return l.config.Threshold }

// Compute scores the datasets in ids against each other. vectors[i] is the
// embedding of ids[i]; vectors need not be normalized.
func (l *Linker) Compute(ctx context.Context, ids []string, vectors [][]float32) (*Matrix, error) {
	arena, dim, err := pack(ids, vectors)
	if err != nil {
		return nil, err
	}
	ids = append([]string(nil), ids...)

	if len(ids) <= l.config.ExactCeiling {
		l.logger.Info("computing similarity matrix", "datasets", len(ids), "mode", "exact")
		return l.exact(ctx, ids, arena, dim)
	}
	l.logger.Info("computing similarity matrix", "datasets", len(ids), "mode", "lsh",
		"tables", l.config.Tables, "planes", l.config.Planes)
	return l.approximate(ctx, ids, arena, dim)
}

// Link replaces the similarity edges held by sink with the edges of m above
// the configured threshold and returns them.
func (l *Linker) Link(ctx context.Context, sink EdgeSink, m *Matrix) ([]Edge, error) {
	edges := m.Edges(l.config.Threshold)
	removed := sink.ClearSimilarity()
	for _, e := range edges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := sink.AddSimilarity(e.A, e.B); err != nil {
			return nil, fmt.Errorf("link %s and %s: %w", e.A, e.B, err)
		}
	}
	l.logger.Info("linked similar datasets", "edges", len(edges), "replaced", removed/2,
		"threshold", l.config.Threshold)
	return edges, nil
}

// exact fills the full upper triangle tile by tile. Tiles cover disjoint
// cells so they can be computed concurrently without locking.
func (l *Linker) exact(ctx context.Context, ids []string, arena []float32, dim int) (*Matrix, error) {
	m := newDense(ids)
	n, bs := len(ids), l.config.BlockSize

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.config.Workers)
	for bi := 0; bi < n; bi += bs {
		for bj := bi; bj < n; bj += bs {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				for i := bi; i < min(bi+bs, n); i++ {
					row := arena[i*dim : (i+1)*dim]
					for j := max(bj, i+1); j < min(bj+bs, n); j++ {
						m.set(i, j, clamp(embedding.Dot(row, arena[j*dim:(j+1)*dim])))
					}
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// pack validates the input and copies normalized vectors into one
// contiguous row-major block.
func pack(ids []string, vectors [][]float32) ([]float32, int, error) {
	if len(ids) != len(vectors) {
		return nil, 0, fmt.Errorf("%w: %d ids, %d vectors", ErrLengthMismatch, len(ids), len(vectors))
	}
	if len(ids) == 0 {
		return nil, 0, nil
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, 0, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = true
	}
	dim := len(vectors[0])
	arena := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, 0, fmt.Errorf("%w: vector %d has %d, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
		arena = append(arena, embedding.NormalizeVector(v)...)
	}
	return arena, dim, nil
}

// clamp keeps rounding noise from pushing a cosine outside [-1, 1].
func clamp(score float32) float32 {
	return min(max(score, -1), 1)
}
