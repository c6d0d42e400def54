package storage

import (
	"context"
	"time"

	"github.com/poiesic/datakg/core"
)

// EmbeddingCache stores vectors keyed by the content hash of the embedded
// text and the model that produced them. Vectors from different models never
// collide. Implementations must be thread-safe.
type EmbeddingCache interface {
	// GetEmbeddings returns the cached vectors for keys. Misses are omitted
	// from the result rather than reported as errors.
	GetEmbeddings(ctx context.Context, model string, keys ...core.ID) (map[core.ID][]float32, error)

	// PutEmbeddings stores vectors, replacing earlier entries for the same key.
	PutEmbeddings(ctx context.Context, model string, vectors map[core.ID][]float32) error

	// Close releases resources.
	Close() error
}

// ArtifactRepository records what went into each built artifact, so a later
// run can tell whether the artifact is still current.
type ArtifactRepository interface {
	// SaveArtifact records metadata for a built artifact, replacing any
	// previous entry with the same name.
	SaveArtifact(ctx context.Context, meta *ArtifactMeta) error

	// LoadArtifact returns the metadata recorded under name.
	// Returns nil, nil if the artifact was never recorded.
	LoadArtifact(ctx context.Context, name string) (*ArtifactMeta, error)

	// Close releases resources.
	Close() error
}

// ArtifactMeta describes one persisted artifact.
type ArtifactMeta struct {
	Name        string
	Path        string
	Model       string
	Fingerprint uint64
	Count       int
	BuiltAt     time.Time
}
