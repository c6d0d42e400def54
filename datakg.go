// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package datakg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/poiesic/datakg/ai"
	"github.com/poiesic/datakg/ai/ollama"
	"github.com/poiesic/datakg/ai/openai"
	"github.com/poiesic/datakg/config"
	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/embedding"
	"github.com/poiesic/datakg/enrich"
	"github.com/poiesic/datakg/evaluation"
	"github.com/poiesic/datakg/graph"
	"github.com/poiesic/datakg/ingestion"
	"github.com/poiesic/datakg/retrieval"
	"github.com/poiesic/datakg/similarity"
	"github.com/poiesic/datakg/storage"
	"github.com/poiesic/datakg/storage/badger"
	"github.com/poiesic/datakg/translate"
)

// ErrNoCatalog is returned when an operation needs a catalog and none has
// been built or can be loaded.
var ErrNoCatalog = errors.New("no catalog")

// Engine owns the storage and AI services of one catalog directory and
// runs builds, searches, evaluations and enrichment over it.
type Engine struct {
	config    *config.Config
	layout    ingestion.Layout
	backend   *badger.Backend
	cache     storage.EmbeddingCache
	artifacts storage.ArtifactRepository
	provider  ai.AIProvider
	embedder  *embedding.Service
	linker    *similarity.Linker
	logger    *slog.Logger

	mu      sync.Mutex
	catalog *ingestion.Catalog
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	provider ai.AIProvider
	progress io.Writer
	inMemory bool
	logger   *slog.Logger
}

// WithProvider supplies the AI provider instead of creating one from the
// configured backend. The engine closes it.
func WithProvider(p ai.AIProvider) Option {
	return func(o *engineOptions) { o.provider = p }
}

// WithProgress reports embedding progress to w.
func WithProgress(w io.Writer) Option {
	return func(o *engineOptions) { o.progress = w }
}

// WithInMemoryCache keeps the embedding cache and artifact records in memory.
func WithInMemoryCache() Option {
	return func(o *engineOptions) { o.inMemory = true }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

// NewEngine opens the catalog directory named by cfg. A nil cfg uses
// config.Default().
func NewEngine(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	options := &engineOptions{logger: slog.Default().With("component", "engine")}
	for _, opt := range opts {
		opt(options)
	}

	layout := ingestion.Layout{Dir: cfg.Paths.DataDir}
	cachePath := layout.CachePath()
	if options.inMemory {
		cachePath = ""
	}
	backend, err := badger.OpenBackend(cachePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	cache, err := badger.NewEmbeddingCache(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	artifacts := badger.NewArtifactRepository(backend)

	provider := options.provider
	if provider == nil {
		provider, err = newProvider(cfg.AI())
		if err != nil {
			backend.Close()
			return nil, err
		}
	}

	embedOpts := []embedding.Option{
		embedding.WithCache(cache),
		embedding.WithConfig(embeddingConfig(cfg.Embedding)),
		embedding.WithLogger(options.logger),
	}
	if options.progress != nil {
		embedOpts = append(embedOpts, embedding.WithProgress(options.progress))
	}
	embedder, err := embedding.NewService(provider.Embedder(), cfg.Embedding.Model, embedOpts...)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		config:    cfg,
		layout:    layout,
		backend:   backend,
		cache:     cache,
		artifacts: artifacts,
		provider:  provider,
		embedder:  embedder,
		linker: similarity.NewLinker(
			similarity.WithConfig(cfg.SimilarityConfig()),
			similarity.WithLogger(options.logger),
		),
		logger: options.logger,
	}, nil
}

func newProvider(cfg *ai.Config) (ai.AIProvider, error) {
	switch cfg.Backend {
	case ai.BackendOllama:
		return ollama.NewProvider(cfg)
	default:
		return openai.NewProvider(cfg)
	}
}

func embeddingConfig(c config.Embedding) *embedding.Config {
	cfg := embedding.DefaultConfig()
	cfg.BatchSize = c.BatchSize
	if c.Workers > 0 {
		cfg.Workers = c.Workers
	}
	cfg.Retry.MaxAttempts = c.Retries
	return cfg
}

// Close releases the embedding service, the AI provider and the cache.
func (e *Engine) Close() error {
	e.embedder.Close()
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}
	if err := e.cache.Close(); err != nil {
		e.logger.Error("error closing embedding cache", "err", err)
	}
	if err := e.artifacts.Close(); err != nil {
		e.logger.Error("error closing artifact repository", "err", err)
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Config returns the engine configuration.
func (e *Engine) Config() *config.Config {
	return e.config
}

// Layout returns the file layout of the catalog directory.
func (e *Engine) Layout() ingestion.Layout {
	return e.layout
}

// Artifacts returns the artifact metadata recorded by builds.
func (e *Engine) Artifacts() storage.ArtifactRepository {
	return e.artifacts
}

// Embedder returns the embedding service.
func (e *Engine) Embedder() *embedding.Service {
	return e.embedder
}

// NewPipeline creates a build pipeline writing into the catalog directory.
func (e *Engine) NewPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{
		ingestion.WithLinker(e.linker),
		ingestion.WithArtifacts(e.artifacts),
		ingestion.WithLogger(e.logger),
	}
	return ingestion.NewPipeline(e.embedder, e.layout, append(base, opts...)...)
}

// Build replaces the catalog with one built from records.
func (e *Engine) Build(ctx context.Context, records []core.RawRecord) (*ingestion.Result, error) {
	p, err := e.NewPipeline()
	if err != nil {
		return nil, err
	}
	result, err := p.Build(ctx, records)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.catalog = &ingestion.Catalog{Graph: result.Graph, Index: result.Index, Matrix: result.Matrix}
	e.mu.Unlock()
	return result, nil
}

// BuildFile builds the catalog from a records file.
func (e *Engine) BuildFile(ctx context.Context, path string) (*ingestion.Result, error) {
	records, err := ingestion.LoadRecords(path)
	if err != nil {
		return nil, err
	}
	return e.Build(ctx, records)
}

// Catalog returns the current catalog, loading it from disk on first use.
func (e *Engine) Catalog(ctx context.Context) (*ingestion.Catalog, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.catalog != nil {
		return e.catalog, nil
	}
	c, err := ingestion.OpenCatalog(ctx, e.layout, e.embedder, graph.WithLogger(e.logger))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("%w in %s: %w", ErrNoCatalog, e.layout.Dir, err)
		}
		return nil, err
	}
	e.catalog = c
	return c, nil
}

// NewRetriever wires the keyword, graph-pattern and vector strategies over
// the current catalog. Result refinement is added when the configuration
// enables it.
func (e *Engine) NewRetriever(ctx context.Context) (*retrieval.Retriever, error) {
	c, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	generator := e.provider.Generator()

	keyword, err := retrieval.NewKeywordStrategy(c.Graph)
	if err != nil {
		return nil, err
	}
	translator, err := translate.NewTranslator(generator, translate.WithLogger(e.logger))
	if err != nil {
		return nil, err
	}
	pattern, err := retrieval.NewPatternStrategy(c.Graph, translator)
	if err != nil {
		return nil, err
	}
	vector, err := retrieval.NewVectorStrategy(e.embedder, c.Index, c.Graph,
		retrieval.WithK(e.config.Vector.K),
		retrieval.WithFloor(e.config.Vector.Floor),
	)
	if err != nil {
		return nil, err
	}

	opts := []retrieval.Option{
		retrieval.WithStrategy(keyword),
		retrieval.WithStrategy(pattern),
		retrieval.WithStrategy(vector),
		retrieval.WithLogger(e.logger),
	}
	if e.config.LLM.Refine {
		opts = append(opts, retrieval.WithRefiner(retrieval.NewRefiner(generator)))
	}
	return retrieval.NewRetriever(opts...)
}

// Search runs the selected strategies over the catalog. Strategy failures
// become warnings on the response; only a missing catalog is an error.
func (e *Engine) Search(ctx context.Context, query string, sel retrieval.Selector) (*retrieval.Response, error) {
	r, err := e.NewRetriever(ctx)
	if err != nil {
		return nil, err
	}
	return r.Search(ctx, query, sel), nil
}

// Evaluate scores the configured strategies against entries.
func (e *Engine) Evaluate(ctx context.Context, entries []core.GroundTruthEntry) (*evaluation.Report, error) {
	r, err := e.NewRetriever(ctx)
	if err != nil {
		return nil, err
	}
	scorer, err := evaluation.NewSemanticScorer(e.embedder)
	if err != nil {
		return nil, err
	}
	sel, err := retrieval.ParseSelector(e.config.Evaluation.Strategies)
	if err != nil {
		return nil, err
	}
	opts := []evaluation.Option{
		evaluation.WithStrategies(sel...),
		evaluation.WithLogger(e.logger),
	}
	if e.config.Evaluation.Rephrase != "" {
		opts = append(opts, evaluation.WithRephrase(e.config.Evaluation.Rephrase))
	}
	h, err := evaluation.NewHarness(r, scorer, opts...)
	if err != nil {
		return nil, err
	}
	return h.Run(ctx, entries)
}

// Enrich suggests themes for every dataset and saves the enriched graph.
// It holds the build lock while writing.
func (e *Engine) Enrich(ctx context.Context, opts ...enrich.Option) (*enrich.Report, error) {
	c, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	enricher, err := enrich.NewThemeEnricher(e.provider.Generator(),
		append([]enrich.Option{enrich.WithLogger(e.logger)}, opts...)...)
	if err != nil {
		return nil, err
	}

	lock, err := storage.AcquireLock(e.layout.LockPath())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			e.logger.Error("error releasing build lock", "err", err)
		}
	}()

	report, err := enricher.Enrich(ctx, c.Graph)
	if err != nil {
		return nil, err
	}
	if report.Enriched > 0 {
		if err := c.Graph.SaveFile(ctx, e.layout.GraphPath()); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// Analysis summarizes the structure and metadata quality of a catalog.
type Analysis struct {
	Stats    graph.Stats
	Metadata graph.MetadataReport
	// TopPairs is empty when no similarity matrix is available.
	TopPairs []similarity.Edge
}

// Analyze reports graph statistics, missing metadata and the n most similar
// dataset pairs.
func (e *Engine) Analyze(ctx context.Context, n int) (*Analysis, error) {
	c, err := e.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	a := &Analysis{
		Stats:    c.Graph.Stats(),
		Metadata: c.Graph.MetadataReport(),
	}
	if c.Matrix != nil {
		a.TopPairs = c.Matrix.TopPairs(n)
	}
	return a, nil
}
