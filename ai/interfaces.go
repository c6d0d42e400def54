package ai

import (
	"context"
	"iter"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces free text from a prompt using a text-generation model.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// Generate streams the model output as it arrives. The returned sequence
	// is lazy: no request is made until it is ranged over. It is finite and
	// can be consumed once; a second range yields ErrStreamConsumed.
	// A transport or model failure is yielded as the final pair's error.
	Generate(ctx context.Context, prompt string) iter.Seq2[string, error]
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Generator returns the text-generation service.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
