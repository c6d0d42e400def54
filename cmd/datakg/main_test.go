package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datakg"
	"github.com/poiesic/datakg/ai/mock"
	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/retrieval"
)

const testRecords = `[
  {"id": "air", "title": "London Air Quality", "summary": "Hourly pollution levels",
   "publisher": "Greater London Authority",
   "resources": [{"url": "https://example.org/air.csv", "format": "CSV"}]},
  {"id": "noise", "title": "Noise Map", "description": "Road noise and air pollution estimates"},
  {"id": "census", "title": "School Census", "notes": "Pupil numbers by school"}
]`

const testGroundTruth = `[
  {"keyword_search": "pollution",
   "retrieved_datasets": [{"title": "Noise Map", "description": "Road noise and air pollution estimates"}]}
]`

func useMockEngine(t *testing.T, generator *mock.MockGenerator) {
	t.Helper()
	if generator == nil {
		generator = mock.NewMockGenerator()
	}
	provider := mock.NewMockProviderWithServices(mock.NewMockEmbedder(), generator)
	engineOptions = []datakg.Option{datakg.WithProvider(provider), datakg.WithInMemoryCache()}
	t.Cleanup(func() { engineOptions = nil })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out, errOut bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"datakg", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestSetupLogger(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}
	err := app.Run([]string{"datakg", "--log-level", "verbose", "analyze"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestCommandFlags(t *testing.T) {
	app := newApp()
	commands := make(map[string]bool)
	for _, cmd := range app.Commands {
		commands[cmd.Name] = true
	}
	for _, name := range []string{"build", "search", "evaluate", "enrich", "analyze"} {
		assert.True(t, commands[name], name)
	}

	search := app.Command("search")
	require.NotNil(t, search)
	var strategy string
	for _, f := range search.Flags {
		if names := f.Names(); names[0] == "strategy" {
			strategy = f.String()
		}
	}
	assert.Contains(t, strategy, `"all"`)
}

func TestSearchCommand_Validation(t *testing.T) {
	useMockEngine(t, nil)
	dir := t.TempDir()

	t.Run("query is required", func(t *testing.T) {
		_, err := run(t, "--data-dir", dir, "search")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "query is required")
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := run(t, "--data-dir", dir, "search", "--strategy", "fulltext", "air")
		assert.ErrorIs(t, err, retrieval.ErrUnknownStrategy)
	})

	t.Run("no catalog", func(t *testing.T) {
		_, err := run(t, "--data-dir", dir, "search", "about air")
		assert.ErrorIs(t, err, datakg.ErrNoCatalog)
	})
}

func TestBuildCommand_MissingRecords(t *testing.T) {
	useMockEngine(t, nil)
	_, err := run(t, "--data-dir", t.TempDir(), "build", "--progress=false",
		"--records", filepath.Join(t.TempDir(), "none.json"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCommands_EndToEnd(t *testing.T) {
	generator := mock.NewMockGenerator()
	generator.GenerateFunc = func(context.Context, string) (string, error) {
		return "- group: Environment, Weather\n", nil
	}
	useMockEngine(t, generator)

	work := t.TempDir()
	dataDir := filepath.Join(work, "data")
	records := filepath.Join(work, "metadata.json")
	truth := filepath.Join(work, "ground_truth.json")
	output := filepath.Join(work, "evaluation")
	require.NoError(t, os.WriteFile(records, []byte(testRecords), 0o644))
	require.NoError(t, os.WriteFile(truth, []byte(testGroundTruth), 0o644))

	out, err := run(t, "--data-dir", dataDir, "build", "--progress=false", "--records", records)
	require.NoError(t, err)
	assert.Contains(t, out, "Datasets: 3")
	assert.FileExists(t, filepath.Join(dataDir, "graph.ttl"))

	out, err = run(t, "--data-dir", dataDir, "search", "--strategy", "keyword", "datasets", "about", "pollution")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 datasets")
	assert.Contains(t, out, "- air.csv [csv] https://example.org/air.csv")

	out, err = run(t, "--data-dir", dataDir, "search", "--strategy", "keyword", "--json", "about noise")
	require.NoError(t, err)
	var results []core.AggregatedResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "Noise Map", results[0].Title)

	out, err = run(t, "--data-dir", dataDir, "evaluate", "--ground-truth", truth,
		"--output", output, "--strategies", "keyword")
	require.NoError(t, err)
	assert.Contains(t, out, "1. keyword")
	assert.FileExists(t, filepath.Join(output, "keyword_evaluation_results.csv"))
	assert.FileExists(t, filepath.Join(output, "summary.json"))

	out, err = run(t, "--data-dir", dataDir, "enrich")
	require.NoError(t, err)
	assert.Contains(t, out, "Enriched 3 of 3 datasets (0 failed)")
	assert.Contains(t, out, "rejected Weather")

	out, err = run(t, "--data-dir", dataDir, "analyze", "--top", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Datasets: 3")
	assert.Contains(t, out, "Most similar pairs:")
	assert.Contains(t, out, "themes         0")
}
