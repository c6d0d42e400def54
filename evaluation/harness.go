package evaluation

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/retrieval"
)

// DefaultRephrase turns a ground-truth keyword into a natural-language query.
const DefaultRephrase = "Can you show me datasets about {keyword}?"

// Searcher runs one retrieval over the selected strategies.
type Searcher interface {
	Search(ctx context.Context, query string, sel retrieval.Selector) *retrieval.Response
}

// Harness scores retrieval strategies against ground truth.
type Harness struct {
	searcher Searcher
	scorer   Scorer
	kinds    []retrieval.Kind
	rephrase string
	logger   *slog.Logger
}

type Option func(*Harness)

// WithStrategies limits the run to the given strategies. Default: all.
func WithStrategies(kinds ...retrieval.Kind) Option {
	return func(h *Harness) {
		if len(kinds) > 0 {
			h.kinds = kinds
		}
	}
}

// WithRephrase sets the query template. "{keyword}" is replaced by the
// ground-truth keyword.
func WithRephrase(template string) Option {
	return func(h *Harness) {
		if template != "" {
			h.rephrase = template
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHarness creates a harness running queries through searcher and scoring
// them with scorer.
func NewHarness(searcher Searcher, scorer Scorer, opts ...Option) (*Harness, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if scorer == nil {
		return nil, ErrScorerRequired
	}
	h := &Harness{
		searcher: searcher,
		scorer:   scorer,
		kinds:    retrieval.Kinds,
		rephrase: DefaultRephrase,
		logger:   slog.Default().With("component", "evaluation"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Rephrase returns the natural-language form of keyword.
func (h *Harness) Rephrase(keyword string) string {
	return strings.ReplaceAll(h.rephrase, "{keyword}", keyword)
}

// Run evaluates every strategy over every entry. Scoring failures score zero
// and are recorded on the query; only cancellation stops the run.
func (h *Harness) Run(ctx context.Context, entries []core.GroundTruthEntry) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now().UTC(),
		Scorer:  h.scorer.Name(),
	}
	h.logger.Info("evaluation started", "run", report.RunID, "entries", len(entries), "strategies", len(h.kinds))

	for _, kind := range h.kinds {
		sr := StrategyReport{Strategy: kind, Queries: make([]QueryScore, 0, len(entries))}
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			sr.Queries = append(sr.Queries, h.evaluate(ctx, kind, entry))
		}
		sr.Mean = meanScore(sr.Queries)
		h.logger.Info("strategy evaluated", "strategy", kind,
			"precision", sr.Mean.Precision, "recall", sr.Mean.Recall, "f1", sr.Mean.F1)
		report.Strategies = append(report.Strategies, sr)
	}
	report.Duration = time.Since(report.Started)
	return report, nil
}

func (h *Harness) evaluate(ctx context.Context, kind retrieval.Kind, entry core.GroundTruthEntry) QueryScore {
	natural := h.Rephrase(entry.Keyword)
	resp := h.searcher.Search(ctx, natural, retrieval.Selector{kind})

	qs := QueryScore{
		Query:     entry.Keyword,
		Natural:   natural,
		Retrieved: resp.ByStrategy[kind],
	}
	if qs.Retrieved == nil {
		qs.Retrieved = []core.AggregatedResult{}
	}
	for _, w := range resp.Warnings {
		qs.Warnings = append(qs.Warnings, w.String())
	}

	retrieved := make([]string, len(qs.Retrieved))
	for i, r := range qs.Retrieved {
		retrieved[i] = r.Description
	}
	score, err := h.scorer.Score(ctx, Descriptions(entry), retrieved)
	if err != nil {
		h.logger.Warn("scoring failed, substituting zero", "strategy", kind, "query", entry.Keyword, "err", err)
		qs.Warnings = append(qs.Warnings, "score: "+err.Error())
		score = Score{}
	}
	qs.Score = score
	h.logger.Debug("query evaluated", "strategy", kind, "query", entry.Keyword,
		"retrieved", len(qs.Retrieved), "f1", score.F1)
	return qs
}

func meanScore(queries []QueryScore) Score {
	if len(queries) == 0 {
		return Score{}
	}
	var total Score
	for _, q := range queries {
		total.Precision += q.Precision
		total.Recall += q.Recall
		total.F1 += q.F1
	}
	n := float64(len(queries))
	return Score{Precision: total.Precision / n, Recall: total.Recall / n, F1: total.F1 / n}
}
