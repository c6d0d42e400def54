package retrieval

import (
	"context"
	"log/slog"

	"github.com/poiesic/datakg/core"
)

// PatternTranslator generates pattern queries. *translate.Translator
// implements it.
type PatternTranslator interface {
	PatternQuery(ctx context.Context, query string) (string, error)
}

// PatternStrategy runs a generated, relevance-ranked pattern query.
type PatternStrategy struct {
	store      Querier
	translator PatternTranslator
	logger     *slog.Logger
}

// NewPatternStrategy creates a graph-pattern strategy.
func NewPatternStrategy(store Querier, translator PatternTranslator) (*PatternStrategy, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if translator == nil {
		return nil, ErrTranslatorRequired
	}
	return &PatternStrategy{
		store:      store,
		translator: translator,
		logger:     slog.Default().With("component", "retrieval", "strategy", KindGraphPattern),
	}, nil
}

// Kind implements Strategy.
func (s *PatternStrategy) Kind() Kind { return KindGraphPattern }

// Retrieve runs req.PatternQuery, generating it first when empty. Rows keep
// the order of the query's relevance ranking.
func (s *PatternStrategy) Retrieve(ctx context.Context, req *core.RetrievalRequest) ([]core.RetrievalResult, error) {
	if req.PatternQuery == "" {
		q, err := s.translator.PatternQuery(ctx, req.Query)
		if err != nil {
			return nil, err
		}
		req.PatternQuery = q
	}
	res, err := s.store.Query(ctx, req.PatternQuery)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("pattern query", "rows", res.Len())
	return resultsFromRows(res), nil
}
