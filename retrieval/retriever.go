package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/datakg/core"
)

// Warning records a strategy or refinement step that failed during a
// search. The search itself still succeeds.
type Warning struct {
	// Stage is the strategy kind, or "refine".
	Stage string
	Err   error
}

func (w Warning) String() string {
	return w.Stage + ": " + w.Err.Error()
}

// Response is the outcome of one search.
type Response struct {
	Query string

	// Results merges the rows of every strategy that ran.
	Results []core.AggregatedResult

	// ByStrategy holds each strategy's own aggregated results.
	ByStrategy map[Kind][]core.AggregatedResult

	Warnings []Warning
}

// Retriever runs retrieval strategies and aggregates their results.
// Searches share no mutable state and may run concurrently.
type Retriever struct {
	strategies map[Kind]Strategy
	refiner    *Refiner
	logger     *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithStrategy registers s, replacing any strategy of the same kind.
func WithStrategy(s Strategy) Option {
	return func(r *Retriever) error {
		if s == nil {
			return fmt.Errorf("%w: nil strategy", ErrUnknownStrategy)
		}
		r.strategies[s.Kind()] = s
		return nil
	}
}

// WithRefiner filters the merged results through a text generator.
func WithRefiner(refiner *Refiner) Option {
	return func(r *Retriever) error {
		r.refiner = refiner
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a Retriever. At least one strategy is required.
func NewRetriever(opts ...Option) (*Retriever, error) {
	r := &Retriever{
		strategies: make(map[Kind]Strategy),
		logger:     slog.Default().With("component", "retrieval"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if len(r.strategies) == 0 {
		return nil, ErrNoStrategies
	}
	return r, nil
}

// Has reports whether a strategy of kind k is configured.
func (r *Retriever) Has(k Kind) bool {
	_, ok := r.strategies[k]
	return ok
}

// Search runs the selected strategies for query.
func (r *Retriever) Search(ctx context.Context, query string, sel Selector) *Response {
	return r.SearchWithMonitor(ctx, query, sel, nil)
}

// SearchWithMonitor runs the selected strategies for query, reporting each
// stage to monitor. Strategies run in selector order, each with its own
// request. The merged results keep that order: rows of the first strategy
// come first.
func (r *Retriever) SearchWithMonitor(ctx context.Context, query string, sel Selector, monitor SearchMonitor) *Response {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if len(sel) == 0 {
		sel = Kinds
	}
	monitor.Start(query, sel)

	resp := &Response{Query: query, ByStrategy: make(map[Kind][]core.AggregatedResult)}
	var all []core.RetrievalResult
	for _, kind := range sel {
		s, ok := r.strategies[kind]
		if !ok {
			resp.warn(string(kind), fmt.Errorf("%w: %s not configured", ErrUnknownStrategy, kind))
			continue
		}
		req := &core.RetrievalRequest{Query: query}
		rows, err := s.Retrieve(ctx, req)
		monitor.AfterStrategy(kind, req, rows, err)
		if err != nil {
			r.logger.Warn("strategy failed", "strategy", kind, "query", query, "err", err)
			resp.warn(string(kind), err)
			resp.ByStrategy[kind] = []core.AggregatedResult{}
			continue
		}
		r.logger.Debug("strategy finished", "strategy", kind, "rows", len(rows))
		resp.ByStrategy[kind] = Aggregate(rows)
		all = append(all, rows...)
	}

	resp.Results = Aggregate(all)
	monitor.AfterAggregation(resp.Results)

	if r.refiner != nil && len(resp.Results) > 0 {
		refined, err := r.refiner.Refine(ctx, query, resp.Results)
		monitor.AfterRefinement(refined, err)
		if err != nil {
			r.logger.Warn("refinement failed, keeping unrefined results", "err", err)
			resp.warn("refine", err)
		} else {
			resp.Results = refined
		}
	}

	monitor.Finish(resp)
	return resp
}

func (resp *Response) warn(stage string, err error) {
	resp.Warnings = append(resp.Warnings, Warning{Stage: stage, Err: err})
}
