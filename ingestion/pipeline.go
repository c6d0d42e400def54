package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/graph"
	"github.com/poiesic/datakg/normalize"
	"github.com/poiesic/datakg/similarity"
	"github.com/poiesic/datakg/storage"
	"github.com/poiesic/datakg/vectorindex"
)

// Pipeline builds catalog artifacts from raw records.
type Pipeline struct {
	embedder   Embedder
	layout     Layout
	normalizer *normalize.Normalizer
	linker     *similarity.Linker
	artifacts  storage.ArtifactRepository
	graphOpts  []graph.Option
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithNormalizer replaces the default normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(p *Pipeline) error {
		if n != nil {
			p.normalizer = n
		}
		return nil
	}
}

// WithLinker replaces the default similarity linker.
func WithLinker(l *similarity.Linker) Option {
	return func(p *Pipeline) error {
		if l != nil {
			p.linker = l
		}
		return nil
	}
}

// WithArtifacts records artifact metadata after each successful build.
func WithArtifacts(repo storage.ArtifactRepository) Option {
	return func(p *Pipeline) error {
		p.artifacts = repo
		return nil
	}
}

// WithGraphOptions passes options to the graph store a build creates.
func WithGraphOptions(opts ...graph.Option) Option {
	return func(p *Pipeline) error {
		p.graphOpts = append(p.graphOpts, opts...)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a pipeline writing artifacts under layout.Dir.
func NewPipeline(embedder Embedder, layout Layout, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if layout.Dir == "" {
		return nil, ErrDataDirRequired
	}
	p := &Pipeline{
		embedder: embedder,
		layout:   layout,
		logger:   slog.Default().With("component", "ingestion"),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.normalizer == nil {
		p.normalizer = normalize.New(normalize.WithLogger(p.logger))
	}
	if p.linker == nil {
		p.linker = similarity.NewLinker(similarity.WithLogger(p.logger))
	}
	return p, nil
}

// Result describes a completed build.
type Result struct {
	Datasets     int
	Skipped      int
	Embedded     int
	Edges        int
	IndexRebuilt bool
	Fingerprint  uint64
	// Issues are recovered input problems: substituted sentinels and
	// skipped records.
	Issues   []error
	Duration time.Duration

	Graph  *graph.Store
	Index  *vectorindex.Index
	Matrix *similarity.Matrix
}

func (p *Pipeline) stages() []stage {
	return []stage{
		normalizeStage{normalizer: p.normalizer, logger: p.logger},
		graphStage{opts: p.graphOpts, logger: p.logger},
		embedStage{embedder: p.embedder, logger: p.logger},
		indexStage{model: p.embedder.Model(), path: p.layout.IndexPath(), logger: p.logger},
		linkStage{linker: p.linker, path: p.layout.SimilarityPath(), logger: p.logger},
		saveStage{path: p.layout.GraphPath()},
	}
}

// Build replaces the catalog under the layout directory with one built from
// records. It fails with storage.ErrLocked while another build holds the
// directory.
func (p *Pipeline) Build(ctx context.Context, records []core.RawRecord) (*Result, error) {
	start := time.Now()
	lock, err := storage.AcquireLock(p.layout.LockPath())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			p.logger.Error("error releasing build lock", "err", err)
		}
	}()

	b := &build{records: records, result: &Result{}}
	for _, s := range p.stages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stageStart := time.Now()
		if err := s.run(ctx, b); err != nil {
			p.logger.Error("build stage failed", "stage", s.name(), "err", err)
			return nil, fmt.Errorf("%s: %w", s.name(), err)
		}
		p.logger.Debug("build stage finished", "stage", s.name(), "elapsed", time.Since(stageStart))
	}

	b.result.Duration = time.Since(start)
	if err := p.recordArtifacts(ctx, b.result); err != nil {
		return nil, err
	}
	p.logger.Info("catalog built", "datasets", b.result.Datasets, "edges", b.result.Edges,
		"skipped", b.result.Skipped, "elapsed", b.result.Duration)
	return b.result, nil
}

func (p *Pipeline) recordArtifacts(ctx context.Context, r *Result) error {
	if p.artifacts == nil {
		return nil
	}
	now := time.Now().UTC()
	model := p.embedder.Model()
	metas := []*storage.ArtifactMeta{
		{Name: ArtifactGraph, Path: p.layout.GraphPath(), Fingerprint: r.Fingerprint, Count: r.Graph.Len(), BuiltAt: now},
		{Name: ArtifactIndex, Path: p.layout.IndexPath(), Model: model, Fingerprint: r.Fingerprint, Count: r.Index.Len(), BuiltAt: now},
		{Name: ArtifactSimilarity, Path: p.layout.SimilarityPath(), Model: model, Fingerprint: r.Fingerprint, Count: r.Matrix.PairCount(), BuiltAt: now},
	}
	for _, m := range metas {
		if err := p.artifacts.SaveArtifact(ctx, m); err != nil {
			return fmt.Errorf("record artifact %s: %w", m.Name, err)
		}
	}
	return nil
}
