package evaluation

import (
	"cmp"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/retrieval"
	"github.com/poiesic/datakg/storage"
)

// QueryScore is the outcome of one ground-truth query under one strategy.
type QueryScore struct {
	Query   string `json:"keyword_search"`
	Natural string `json:"natural_query"`
	Score
	Retrieved []core.AggregatedResult `json:"retrieved_datasets"`
	Warnings  []string                `json:"warnings,omitempty"`
}

// StrategyReport holds every query score of one strategy and their mean.
type StrategyReport struct {
	Strategy retrieval.Kind `json:"strategy"`
	Mean     Score          `json:"mean"`
	Queries  []QueryScore   `json:"queries"`
}

// Report is the result of one evaluation run.
type Report struct {
	RunID      string           `json:"run_id"`
	Started    time.Time        `json:"started"`
	Duration   time.Duration    `json:"duration_ns"`
	Scorer     string           `json:"scorer"`
	Strategies []StrategyReport `json:"strategies"`
}

// Strategy returns the report of kind, if it was evaluated.
func (r *Report) Strategy(kind retrieval.Kind) (*StrategyReport, bool) {
	for i := range r.Strategies {
		if r.Strategies[i].Strategy == kind {
			return &r.Strategies[i], true
		}
	}
	return nil, false
}

// Ranking orders strategies by mean F1, best first. Ties keep run order.
func (r *Report) Ranking() []StrategyReport {
	ranked := slices.Clone(r.Strategies)
	slices.SortStableFunc(ranked, func(a, b StrategyReport) int {
		return cmp.Compare(b.Mean.F1, a.Mean.F1)
	})
	return ranked
}

// WriteCSV writes one "query,precision,recall,f1" row per query.
func (sr *StrategyReport) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"query", "precision", "recall", "f1"}); err != nil {
		return err
	}
	for _, q := range sr.Queries {
		if err := cw.Write([]string{q.Query, formatScore(q.Precision), formatScore(q.Recall), formatScore(q.F1)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the full report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// Save writes <strategy>_evaluation_results.csv per strategy and
// summary.json into dir.
func (r *Report) Save(dir string) error {
	for i := range r.Strategies {
		sr := &r.Strategies[i]
		path := filepath.Join(dir, string(sr.Strategy)+"_evaluation_results.csv")
		if err := storage.WriteFileAtomic(path, sr.WriteCSV); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	path := filepath.Join(dir, "summary.json")
	if err := storage.WriteFileAtomic(path, r.WriteJSON); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
