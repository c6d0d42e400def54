package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/datakg"
	"github.com/poiesic/datakg/enrich"
	"github.com/poiesic/datakg/evaluation"
	"github.com/poiesic/datakg/graph"
	"github.com/poiesic/datakg/retrieval"
)

func buildCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	records := c.String("records")
	if records == "" {
		records = cfg.Paths.Records
	}

	var opts []datakg.Option
	if c.Bool("progress") {
		opts = append(opts, datakg.WithProgress(os.Stderr))
	}
	e, err := openEngine(cfg, opts...)
	if err != nil {
		return err
	}
	defer e.Close()

	result, err := e.BuildFile(c.Context, records)
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Records: %s\n", records)
	fmt.Fprintf(w, "Catalog: %s\n", cfg.Paths.DataDir)
	fmt.Fprintf(w, "Datasets: %d (skipped %d, %d substituted fields)\n", result.Datasets, result.Skipped, len(result.Issues))
	fmt.Fprintf(w, "Triples: %d\n", result.Graph.Len())
	fmt.Fprintf(w, "Similarity links: %d (threshold %.2f)\n", result.Edges, cfg.Similarity.Threshold)
	fmt.Fprintf(w, "Vector index: %d vectors, rebuilt=%t\n", result.Index.Len(), result.IndexRebuilt)
	fmt.Fprintf(w, "Elapsed: %s\n", result.Duration)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("a search query is required")
	}
	sel, err := retrieval.ParseSelector(c.String("strategy"))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.Bool("refine") {
		cfg.LLM.Refine = true
	}
	e, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	resp, err := e.Search(c.Context, query, sel)
	if err != nil {
		return err
	}
	for _, warning := range resp.Warnings {
		fmt.Fprintf(c.App.ErrWriter, "warning: %s\n", warning)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(resp.Results)
	}
	printResults(c, resp)
	return nil
}

func printResults(c *cli.Context, resp *retrieval.Response) {
	w := c.App.Writer
	fmt.Fprintf(w, "Found %d datasets\n", len(resp.Results))
	for i, r := range resp.Results {
		fmt.Fprintf(w, "%d: %s\n", i+1, r.Title)
		if r.Publisher != "" {
			fmt.Fprintf(w, "   publisher: %s\n", r.Publisher)
		}
		fmt.Fprintf(w, "   %s\n", r.Description)
		for _, res := range r.Resources {
			fmt.Fprintf(w, "   - %s [%s] %s\n", res.Name, res.Format, res.URL)
		}
	}
}

func evaluateCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if s := c.String("strategies"); s != "" {
		if _, err := retrieval.ParseSelector(s); err != nil {
			return err
		}
		cfg.Evaluation.Strategies = s
	}
	truthPath := c.String("ground-truth")
	if truthPath == "" {
		truthPath = cfg.Paths.GroundTruth
	}
	output := c.String("output")
	if output == "" {
		output = cfg.Paths.Output
	}

	entries, err := evaluation.LoadGroundTruth(truthPath)
	if err != nil {
		return err
	}
	e, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	report, err := e.Evaluate(c.Context, entries)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	if err := report.Save(output); err != nil {
		return fmt.Errorf("failed to save reports: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Run %s: %d queries scored with %s in %s\n", report.RunID, len(entries), report.Scorer, report.Duration)
	for i, sr := range report.Ranking() {
		fmt.Fprintf(w, "%d. %-14s P=%.4f R=%.4f F1=%.4f\n", i+1, sr.Strategy, sr.Mean.Precision, sr.Mean.Recall, sr.Mean.F1)
	}
	fmt.Fprintf(w, "Reports written to %s\n", filepath.Clean(output))
	return nil
}

func enrichCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	e, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	report, err := e.Enrich(c.Context, enrich.WithWorkers(c.Int("workers")))
	if err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}

	w := c.App.Writer
	for _, s := range report.Suggestions {
		if len(s.Added) == 0 && len(s.Rejected) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s: added %s", s.DatasetID, joinOrNone(s.Added))
		if len(s.Rejected) > 0 {
			fmt.Fprintf(w, ", rejected %s", strings.Join(s.Rejected, "; "))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Enriched %d of %d datasets (%d failed)\n", report.Enriched, report.Datasets, report.Failed)
	return nil
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, "; ")
}

func analyzeCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	e, err := openEngine(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	a, err := e.Analyze(c.Context, c.Int("top"))
	if err != nil {
		return err
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Datasets: %d\nTriples: %d\n", a.Stats.Datasets, a.Stats.Triples)
	fmt.Fprintln(w, "Predicates:")
	for _, p := range a.Stats.SortedPredicates() {
		fmt.Fprintf(w, "  %6d  %s\n", a.Stats.Predicates[p], p)
	}

	fmt.Fprintf(w, "Missing metadata (%d of %d complete):\n", a.Metadata.Complete(), a.Metadata.Datasets)
	for _, field := range graph.ReportFields {
		fmt.Fprintf(w, "  %-14s %d\n", field, a.Metadata.Count(field))
	}

	if len(a.TopPairs) == 0 {
		fmt.Fprintln(w, "No similarity matrix available")
		return nil
	}
	fmt.Fprintln(w, "Most similar pairs:")
	for _, p := range a.TopPairs {
		fmt.Fprintf(w, "  %.4f  %s <-> %s\n", p.Score, p.A, p.B)
	}
	return nil
}
