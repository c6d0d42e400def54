package embedding

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrEmbedderRequired is returned when no embedder is supplied.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrModelRequired is returned when the model identity is empty.
	ErrModelRequired = errors.New("embedding model identity is required")

	// ErrCountMismatch is returned when the embedder returns a different
	// number of vectors than texts.
	ErrCountMismatch = errors.New("embedding count mismatch")

	// ErrDimensionMismatch is returned when vectors of one run differ in length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
