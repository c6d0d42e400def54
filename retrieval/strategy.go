package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/graph"
)

// Kind names a retrieval strategy.
type Kind string

const (
	KindKeyword      Kind = "keyword"
	KindGraphPattern Kind = "graph-pattern"
	KindVector       Kind = "vector"
)

// Kinds lists every strategy in the order "all" runs them.
var Kinds = []Kind{KindKeyword, KindGraphPattern, KindVector}

// Selector chooses the strategies of a search. An empty selector means all
// of them.
type Selector []Kind

// SelectAll runs every strategy.
const SelectAll = "all"

// ParseSelector parses "keyword", "graph-pattern", "vector", "all" or a
// comma separated combination. "sparql" and "pattern" are accepted for
// graph-pattern and "faiss" for vector.
func ParseSelector(s string) (Selector, error) {
	var sel Selector
	seen := make(map[Kind]bool)
	for _, part := range strings.Split(s, ",") {
		var kinds []Kind
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "", SelectAll:
			kinds = Kinds
		case "keyword":
			kinds = []Kind{KindKeyword}
		case "graph-pattern", "pattern", "sparql":
			kinds = []Kind{KindGraphPattern}
		case "vector", "faiss":
			kinds = []Kind{KindVector}
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, part)
		}
		for _, k := range kinds {
			if !seen[k] {
				seen[k] = true
				sel = append(sel, k)
			}
		}
	}
	return sel, nil
}

// Strategy produces retrieval results for one request.
type Strategy interface {
	Kind() Kind
	Retrieve(ctx context.Context, req *core.RetrievalRequest) ([]core.RetrievalResult, error)
}

// Querier executes pattern queries. *graph.Store implements it.
type Querier interface {
	Query(ctx context.Context, src string) (*graph.Results, error)
}
