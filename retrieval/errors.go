package retrieval

import "errors"

var (
	// ErrStoreRequired is returned when no graph store is provided.
	ErrStoreRequired = errors.New("graph store required")

	// ErrTranslatorRequired is returned when no pattern translator is provided.
	ErrTranslatorRequired = errors.New("pattern translator required")

	// ErrEmbedderRequired is returned when no query embedder is provided.
	ErrEmbedderRequired = errors.New("query embedder required")

	// ErrIndexRequired is returned when no vector index is provided.
	ErrIndexRequired = errors.New("vector index required")

	// ErrNoFacets indicates the query yielded no facet to filter on.
	ErrNoFacets = errors.New("no facets in query")

	// ErrUnknownStrategy indicates a selector naming no known strategy.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrNoStrategies indicates a retriever without strategies.
	ErrNoStrategies = errors.New("no strategies configured")
)
