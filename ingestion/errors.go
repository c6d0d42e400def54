package ingestion

import "errors"

var (
	// ErrEmbedderRequired is returned when an embedding service is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrDataDirRequired is returned when no artifact directory is configured.
	ErrDataDirRequired = errors.New("data directory required")

	// ErrNoRecords is returned when a build has no usable records.
	ErrNoRecords = errors.New("no usable records")

	// ErrUnsupportedFormat is returned for record files of unknown type.
	ErrUnsupportedFormat = errors.New("unsupported record format")
)
