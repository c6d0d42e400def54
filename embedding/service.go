package embedding

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/datakg/ai"
	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/storage"
)

// Config holds tunables for a Service.
type Config struct {
	// BatchSize is the number of texts sent per embedding request.
	BatchSize int

	// Workers is the number of batches embedded concurrently.
	Workers int

	// Retry controls retries of failed embedding requests.
	Retry RetryPolicy

	// ReportInterval is how often to report progress (number of texts).
	ReportInterval int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      32,
		Workers:        max(runtime.NumCPU()/2, 1),
		Retry:          DefaultRetryPolicy(),
		ReportInterval: 100,
	}
}

// Service maps text to unit-length vectors under one fixed model.
//
// Similarity thresholds and evaluation scores are only comparable within a
// single embedding space, so the service carries the model identity and
// keys its cache by it. Returned vectors are L2-normalized, which makes the
// dot product of two vectors equal to their cosine similarity.
type Service struct {
	embedder ai.Embedder
	model    string
	cache    storage.EmbeddingCache
	config   *Config
	progress io.Writer
	pool     *ants.Pool
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithCache stores vectors in cache and reuses them across runs.
func WithCache(cache storage.EmbeddingCache) Option {
	return func(s *Service) error {
		s.cache = cache
		return nil
	}
}

// WithConfig replaces the default tunables.
func WithConfig(cfg *Config) Option {
	return func(s *Service) error {
		if cfg != nil {
			s.config = cfg
		}
		return nil
	}
}

// WithProgress reports batch progress to w (typically os.Stderr).
func WithProgress(w io.Writer) Option {
	return func(s *Service) error {
		s.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates an embedding service. model must name the exact model
// and version the embedder uses.
func NewService(embedder ai.Embedder, model string, opts ...Option) (*Service, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if model == "" {
		return nil, ErrModelRequired
	}
	s := &Service{
		embedder: embedder,
		model:    model,
		config:   DefaultConfig(),
		logger:   slog.Default().With("component", "embedding"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.config.BatchSize < 1 {
		s.config.BatchSize = 1
	}
	pool, err := ants.NewPool(max(s.config.Workers, 1))
	if err != nil {
		return nil, err
	}
	s.pool = pool
	return s, nil
}

// Model returns the identity of the embedding model.
func (s *Service) Model() string {
	return s.model
}

// Close releases the worker pool.
func (s *Service) Close() {
	s.pool.Release()
}

// Embed returns the normalized vector for one text.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	key := core.IDFromContent(text)
	if cached := s.lookup(ctx, key); cached != nil {
		return cached[key], nil
	}
	vec, err := RetryWithBackoff(ctx, s.config.Retry, func(ctx context.Context) ([]float32, error) {
		return s.embedder.EmbedText(ctx, text)
	})
	if err != nil {
		return nil, core.NewError(core.ErrExternalService, "embed text", err)
	}
	vec = NormalizeVector(vec)
	s.store(ctx, map[core.ID][]float32{key: vec})
	return vec, nil
}

// EmbedAll returns one normalized vector per text, in input order. Cached
// vectors are reused; duplicate texts are embedded once. Batches run
// concurrently on the worker pool and the first failure cancels the rest.
func (s *Service) EmbedAll(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	keys := make([]core.ID, len(texts))
	for i, text := range texts {
		keys[i] = core.IDFromContent(text)
	}
	vectors := s.lookup(ctx, keys...)
	if vectors == nil {
		vectors = make(map[core.ID][]float32, len(texts))
	}

	var missing []int
	queued := make(map[core.ID]bool)
	for i, key := range keys {
		if _, ok := vectors[key]; ok || queued[key] {
			continue
		}
		queued[key] = true
		missing = append(missing, i)
	}
	s.logger.Debug("embedding texts", "total", len(texts), "cached", len(texts)-len(missing), "model", s.model)

	if len(missing) > 0 {
		fresh, err := s.embedMissing(ctx, texts, keys, missing)
		if err != nil {
			return nil, err
		}
		for k, v := range fresh {
			vectors[k] = v
		}
		s.store(ctx, fresh)
	}

	out := make([][]float32, len(texts))
	dim := -1
	for i, key := range keys {
		vec := vectors[key]
		if dim >= 0 && len(vec) != dim {
			return nil, core.NewError(core.ErrExternalService, "embed texts",
				fmt.Errorf("%w: got %d and %d", ErrDimensionMismatch, dim, len(vec)))
		}
		dim = len(vec)
		out[i] = vec
	}
	return out, nil
}

func (s *Service) embedMissing(ctx context.Context, texts []string, keys []core.ID, missing []int) (map[core.ID][]float32, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	tracker := NewProgressTracker(s.progress, "texts", len(missing), s.config.ReportInterval)
	tracker.Start()

	var (
		mu    sync.Mutex
		fresh = make(map[core.ID][]float32, len(missing))
		wg    sync.WaitGroup
	)
	for start := 0; start < len(missing); start += s.config.BatchSize {
		batch := missing[start:min(start+s.config.BatchSize, len(missing))]
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			batchTexts := make([]string, len(batch))
			for i, idx := range batch {
				batchTexts[i] = texts[idx]
			}
			vecs, err := RetryWithBackoff(ctx, s.config.Retry, func(ctx context.Context) ([][]float32, error) {
				return s.embedder.EmbedTexts(ctx, batchTexts)
			})
			if err == nil && len(vecs) != len(batch) {
				err = fmt.Errorf("%w: expected %d, got %d", ErrCountMismatch, len(batch), len(vecs))
			}
			if err != nil {
				cancel(err)
				return
			}
			mu.Lock()
			for i, idx := range batch {
				fresh[keys[idx]] = NormalizeVector(vecs[i])
			}
			mu.Unlock()
			tracker.Add(len(batch))
		})
		if err != nil {
			wg.Done()
			cancel(err)
			break
		}
	}
	wg.Wait()
	tracker.Finish()

	if err := context.Cause(ctx); err != nil {
		return nil, core.NewError(core.ErrExternalService, "embed texts", err)
	}
	return fresh, nil
}

// lookup returns cached vectors. Cache failures are logged and treated as
// misses.
func (s *Service) lookup(ctx context.Context, keys ...core.ID) map[core.ID][]float32 {
	if s.cache == nil {
		return nil
	}
	found, err := s.cache.GetEmbeddings(ctx, s.model, keys...)
	if err != nil {
		s.logger.Warn("embedding cache read failed", "error", err)
		return nil
	}
	if len(found) == 0 {
		return nil
	}
	return found
}

func (s *Service) store(ctx context.Context, vectors map[core.ID][]float32) {
	if s.cache == nil || len(vectors) == 0 {
		return
	}
	if err := s.cache.PutEmbeddings(ctx, s.model, vectors); err != nil {
		s.logger.Warn("embedding cache write failed", "error", err)
	}
}
