// Package embedding turns dataset text into vectors.
//
// A Service wraps an ai.Embedder with the concerns of a batch build:
// content-addressed caching keyed by model, concurrent batches on an ants
// worker pool, retries with exponential backoff, progress reporting, and
// L2 normalization of every vector it returns.
//
// The model identity passed to NewService is part of every cache key. The
// default model, ai.DefaultEmbeddingModel, is all-minilm:l6-v2 (384
// dimensions); similarity thresholds and evaluation scores assume it.
//
// Failures of the underlying service carry core.ErrExternalService.
package embedding
