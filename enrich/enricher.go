package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/datakg/ai"
	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/normalize"
)

var (
	// ErrGeneratorRequired is returned when no generator is provided.
	ErrGeneratorRequired = errors.New("generator is required")

	// ErrCatalogRequired is returned when no catalog is provided.
	ErrCatalogRequired = errors.New("catalog is required")
)

const promptTemplate = `You are an assistant tasked with generating fitting metadata for datasets in a knowledge graph.
Here is the existing metadata:
- Label: %s
- Summary: %s
- File Format: %s
- Publisher: %s

The following metadata fields are missing: group.
When generating groups, classify them into one or more of these predefined categories: %s.

Important Instructions:
- Only output the group names. Do not include explanations, descriptions, or additional text.
- Use the exact names from the predefined categories provided above.

Output the generated metadata as:
- group: <Generated Group(s)>
Example Output:
- group: Planning, Transparency, Business and Economy`

// Catalog is the dataset store an enrichment pass reads and updates.
type Catalog interface {
	Datasets() []core.Dataset
	AddDataset(d *core.Dataset) error
}

// Suggestion is the classification of one dataset.
type Suggestion struct {
	DatasetID string   `json:"dataset_id"`
	Accepted  []string `json:"accepted"`
	Rejected  []string `json:"rejected,omitempty"`
	// Added holds accepted themes the dataset did not already have.
	Added []string `json:"added,omitempty"`
}

// Report summarizes an enrichment pass.
type Report struct {
	Datasets    int          `json:"datasets"`
	Enriched    int          `json:"enriched"`
	Failed      int          `json:"failed"`
	Suggestions []Suggestion `json:"suggestions"`
}

// ThemeEnricher classifies datasets into the controlled vocabulary.
type ThemeEnricher struct {
	generator ai.Generator
	workers   int
	logger    *slog.Logger
}

type Option func(*ThemeEnricher)

// WithWorkers sets how many datasets are classified concurrently.
// Default: 1.
func WithWorkers(n int) Option {
	return func(e *ThemeEnricher) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *ThemeEnricher) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewThemeEnricher creates an enricher backed by generator.
func NewThemeEnricher(generator ai.Generator, opts ...Option) (*ThemeEnricher, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	e := &ThemeEnricher{
		generator: generator,
		workers:   1,
		logger:    slog.Default().With("component", "enrich"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Prompt returns the classification prompt for d.
func Prompt(d *core.Dataset) string {
	var formats []string
	for _, dist := range d.Distributions {
		if dist.Format != "" && !slices.Contains(formats, dist.Format) {
			formats = append(formats, dist.Format)
		}
	}
	format := core.UnknownFormat
	if len(formats) > 0 {
		format = strings.Join(formats, ", ")
	}
	return fmt.Sprintf(promptTemplate, d.Title, d.Description, format, d.Publisher,
		strings.Join(Vocabulary, ", "))
}

// Suggest classifies one dataset without modifying it.
func (e *ThemeEnricher) Suggest(ctx context.Context, d *core.Dataset) (*Suggestion, error) {
	text, err := ai.Collect(e.generator.Generate(ctx, Prompt(d)), nil)
	if err != nil {
		return nil, core.NewError(core.ErrExternalService, "classify dataset", err)
	}
	accepted, rejected := ParseThemes(text)
	if len(accepted) == 0 {
		e.logger.Warn("no themes generated", "dataset", d.ID, "response", text)
	}
	if len(rejected) > 0 {
		e.logger.Info("rejected themes outside vocabulary", "dataset", d.ID, "rejected", rejected)
	}
	return &Suggestion{
		DatasetID: d.ID,
		Accepted:  accepted,
		Rejected:  rejected,
		Added:     missingThemes(d.Themes, accepted),
	}, nil
}

// Enrich classifies every dataset of catalog and writes back those that
// gained themes. A failed classification is logged and counted; only
// cancellation or a failed write stops the pass.
func (e *ThemeEnricher) Enrich(ctx context.Context, catalog Catalog) (*Report, error) {
	if catalog == nil {
		return nil, ErrCatalogRequired
	}
	datasets := catalog.Datasets()
	suggestions := make([]*Suggestion, len(datasets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range datasets {
		g.Go(func() error {
			s, err := e.Suggest(gctx, &datasets[i])
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.Error("classification failed", "dataset", datasets[i].ID, "err", err)
				return nil
			}
			suggestions[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Datasets: len(datasets), Suggestions: make([]Suggestion, 0, len(datasets))}
	for i, s := range suggestions {
		if s == nil {
			report.Failed++
			continue
		}
		report.Suggestions = append(report.Suggestions, *s)
		if len(s.Added) == 0 {
			continue
		}
		d := datasets[i]
		d.Themes = append(slices.Clone(d.Themes), s.Added...)
		if err := catalog.AddDataset(&d); err != nil {
			return nil, fmt.Errorf("failed to update dataset %s: %w", d.ID, err)
		}
		report.Enriched++
	}
	e.logger.Info("enrichment finished", "datasets", report.Datasets, "enriched", report.Enriched, "failed", report.Failed)
	return report, nil
}

// missingThemes returns the accepted themes not already present, compared
// by graph identity.
func missingThemes(existing, accepted []string) []string {
	have := make(map[string]bool, len(existing))
	for _, t := range existing {
		have[strings.ToLower(normalize.Label(t))] = true
	}
	var out []string
	for _, t := range accepted {
		if !have[strings.ToLower(normalize.Label(t))] {
			out = append(out, t)
		}
	}
	return out
}
