package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/poiesic/datakg/ai"
	"github.com/poiesic/datakg/core"
)

// ErrNoJSON indicates the refinement output contained no JSON list.
var ErrNoJSON = errors.New("no JSON list in refinement output")

const refinePrompt = `### Task:
You are an intelligent assistant refining dataset search results.
Below is a list of datasets retrieved from a Knowledge Graph.
Your task is to filter, rank, and return only the most relevant datasets based on the user's query.

### User Query:
"%s"

### Retrieved Datasets:
%s

### Instructions:
- Select only the most relevant datasets.
- Rank them by relevance (most relevant first).
- Discard datasets with "Low" relevance scores.
- Ensure the output is structured in a JSON list.

### Output Format:
Return the datasets in JSON format:
[
    {
        "Title": "Dataset Title",
        "Description": "Short description",
        "URL": "Dataset URL",
        "Relevance Score": "High" or "Medium"
    }
]
`

// Refiner asks a text generator to pick and rank the relevant results.
type Refiner struct {
	generator ai.Generator
	logger    *slog.Logger
}

// NewRefiner creates a Refiner backed by generator.
func NewRefiner(generator ai.Generator) *Refiner {
	return &Refiner{generator: generator, logger: slog.Default().With("component", "refiner")}
}

type refinedItem struct {
	Title     string `json:"Title"`
	Relevance string `json:"Relevance Score"`
}

// Refine returns the subset of results the generator ranked relevant, in
// its order. Titles the generator invents are ignored and "Low" entries are
// dropped. The output is repaired before decoding, so trailing commas,
// single quotes and unterminated lists are tolerated.
func (r *Refiner) Refine(ctx context.Context, query string, results []core.AggregatedResult) ([]core.AggregatedResult, error) {
	text, err := ai.Collect(r.generator.Generate(ctx, buildRefinePrompt(query, results)), nil)
	if err != nil {
		return nil, core.NewError(core.ErrExternalService, "refine results", err)
	}
	items, err := decodeRefined(text)
	if err != nil {
		return nil, core.NewError(core.ErrTranslation, "refine results", err)
	}

	byTitle := make(map[string]int, len(results))
	for i, res := range results {
		if _, ok := byTitle[res.Title]; !ok {
			byTitle[res.Title] = i
		}
	}
	used := make(map[int]bool)
	refined := make([]core.AggregatedResult, 0, len(items))
	for _, item := range items {
		if strings.EqualFold(strings.TrimSpace(item.Relevance), "low") {
			continue
		}
		idx, ok := byTitle[strings.TrimSpace(item.Title)]
		if !ok || used[idx] {
			continue
		}
		used[idx] = true
		refined = append(refined, results[idx])
	}
	r.logger.Debug("refined results", "before", len(results), "after", len(refined))
	return refined, nil
}

func buildRefinePrompt(query string, results []core.AggregatedResult) string {
	lines := make([]string, len(results))
	for i, res := range results {
		url := ""
		if len(res.Resources) > 0 {
			url = res.Resources[0].URL
		}
		lines[i] = fmt.Sprintf("Title: %s, Description: %s, Publisher: %s, URL: %s",
			res.Title, res.Description, res.Publisher, url)
	}
	return fmt.Sprintf(refinePrompt, query, strings.Join(lines, "\n"))
}

// decodeRefined finds the JSON list in text and decodes it, repairing it
// when it does not parse as is.
func decodeRefined(text string) ([]refinedItem, error) {
	start := strings.Index(text, "[")
	if start < 0 {
		return nil, ErrNoJSON
	}
	body := text[start:]
	if end := strings.LastIndex(body, "]"); end >= 0 {
		body = body[:end+1]
	}

	var items []refinedItem
	if err := json.Unmarshal([]byte(body), &items); err == nil {
		return items, nil
	}
	repaired, err := jsonrepair.JSONRepair(body)
	if err != nil {
		return nil, fmt.Errorf("json repair failed: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &items); err != nil {
		return nil, fmt.Errorf("unmarshal failed after repair: %w", err)
	}
	return items, nil
}
