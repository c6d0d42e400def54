package retrieval

import (
	"context"
	"log/slog"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/translate"
)

// KeywordStrategy filters the graph on facets extracted from the query.
type KeywordStrategy struct {
	store  Querier
	logger *slog.Logger
}

// NewKeywordStrategy creates a keyword strategy over store.
func NewKeywordStrategy(store Querier) (*KeywordStrategy, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	return &KeywordStrategy{store: store, logger: slog.Default().With("component", "retrieval", "strategy", KindKeyword)}, nil
}

// Kind implements Strategy.
func (s *KeywordStrategy) Kind() Kind { return KindKeyword }

// Retrieve uses req.Facets when set and extracts them from req.Query
// otherwise. A query without any facet is a translation failure: an
// unfiltered query would return the whole catalog.
func (s *KeywordStrategy) Retrieve(ctx context.Context, req *core.RetrievalRequest) ([]core.RetrievalResult, error) {
	if req.Facets == nil {
		f := translate.ExtractFacets(req.Query)
		req.Facets = &f
	}
	if req.Facets.Empty() {
		return nil, core.NewError(core.ErrTranslation, "extract facets", ErrNoFacets)
	}
	res, err := s.store.Query(ctx, translate.KeywordQuery(*req.Facets))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("keyword query", "topic", req.Facets.Topic, "format", req.Facets.Format,
		"publisher", req.Facets.Publisher, "rows", res.Len())
	return resultsFromRows(res), nil
}
