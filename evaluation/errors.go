package evaluation

import "errors"

var (
	// ErrSearcherRequired is returned when no searcher is provided.
	ErrSearcherRequired = errors.New("searcher is required")

	// ErrScorerRequired is returned when no scorer is provided.
	ErrScorerRequired = errors.New("scorer is required")

	// ErrEmbedderRequired is returned when no embedder is provided.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrUnsupportedFormat is returned for ground-truth files that are
	// neither JSON nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported ground truth format")

	// ErrInvalidGroundTruth is returned when a ground-truth file fails
	// validation.
	ErrInvalidGroundTruth = errors.New("invalid ground truth")

	// ErrNoText is returned when there is nothing to compare.
	ErrNoText = errors.New("no text to compare")
)
