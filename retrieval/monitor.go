package retrieval

import "github.com/poiesic/datakg/core"

// SearchMonitor provides hooks to observe a search.
// Implement this interface to trace strategies and intermediate results.
type SearchMonitor interface {
	Start(query string, sel Selector)
	AfterStrategy(kind Kind, req *core.RetrievalRequest, results []core.RetrievalResult, err error)
	AfterAggregation(results []core.AggregatedResult)
	AfterRefinement(results []core.AggregatedResult, err error)
	Finish(resp *Response)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ Selector)                                                        {}
func (n *noopMonitor) AfterStrategy(_ Kind, _ *core.RetrievalRequest, _ []core.RetrievalResult, _ error) {}
func (n *noopMonitor) AfterAggregation(_ []core.AggregatedResult)                                        {}
func (n *noopMonitor) AfterRefinement(_ []core.AggregatedResult, _ error)                                {}
func (n *noopMonitor) Finish(_ *Response)                                                                {}
