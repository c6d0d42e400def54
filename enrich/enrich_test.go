package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datakg/ai/mock"
	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/graph"
)

func TestParseThemes(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantAccepted []string
		wantRejected []string
	}{
		{
			name:         "single line",
			input:        "- group: Planning, Transparency, Business and Economy",
			wantAccepted: []string{"Planning", "Transparency", "Business and Economy"},
		},
		{
			name:         "outside vocabulary rejected",
			input:        "- group: Environment, Weather, Air Quality",
			wantAccepted: []string{"Environment"},
			wantRejected: []string{"Weather", "Air Quality"},
		},
		{
			name:         "entry containing commas",
			input:        "- group: Housing, Income, Poverty, and Welfare, Health",
			wantAccepted: []string{"Housing", "Income, Poverty, and Welfare", "Health"},
		},
		{
			name:         "case and spacing are normalized",
			input:        "  - GROUP:  environment ,  young   people",
			wantAccepted: []string{"Environment", "Young People"},
		},
		{
			name:         "duplicates collapse",
			input:        "- group: Health, health\n- group: Health, Sport",
			wantAccepted: []string{"Health", "Sport"},
		},
		{
			name:         "capped at five",
			input:        "- group: Demographics, Environment, Planning, Housing, Health, Education, Transport",
			wantAccepted: []string{"Demographics", "Environment", "Planning", "Housing", "Health"},
			wantRejected: []string{"Education", "Transport"},
		},
		{
			name:  "chatter without group lines",
			input: "This dataset is about Environment.\nGroups: Health",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accepted, rejected := ParseThemes(tt.input)
			assert.Equal(t, tt.wantAccepted, accepted)
			assert.Equal(t, tt.wantRejected, rejected)
		})
	}
}

func TestCanonical(t *testing.T) {
	v, ok := Canonical("covid-19 data and analysis")
	assert.True(t, ok)
	assert.Equal(t, "COVID-19 Data and Analysis", v)

	_, ok = Canonical("Weather")
	assert.False(t, ok)
	assert.Len(t, Vocabulary, 18)
}

func TestPrompt(t *testing.T) {
	d := &core.Dataset{
		ID: "air", Title: "London Air Quality", Description: "Hourly readings", Publisher: "GLA",
		Distributions: []core.Distribution{{Format: "csv"}, {Format: "json"}, {Format: "csv"}},
	}
	p := Prompt(d)
	assert.Contains(t, p, "- Label: London Air Quality")
	assert.Contains(t, p, "- File Format: csv, json\n")
	assert.Contains(t, p, "Championing London, Sport, London 2012.")
	assert.True(t, strings.HasSuffix(p, "- group: Planning, Transparency, Business and Economy"))

	assert.Contains(t, Prompt(&core.Dataset{}), "- File Format: "+core.UnknownFormat)
}

func enrichCatalog(t *testing.T) *graph.Store {
	t.Helper()
	s := graph.NewStore()
	datasets := []core.Dataset{
		{ID: "air", Title: "London Air Quality", Description: "Hourly readings", Publisher: "GLA", Themes: []string{"Environment"}},
		{ID: "schools", Title: "School Census", Description: "Pupil counts", Publisher: "DfE"},
		{ID: "broken", Title: "Broken", Description: "Fails", Publisher: core.UnknownPublisher},
	}
	for i := range datasets {
		require.NoError(t, s.AddDataset(&datasets[i]))
	}
	return s
}

func TestThemeEnricher_Enrich(t *testing.T) {
	store := enrichCatalog(t)
	gen := mock.NewMockGenerator()
	gen.GenerateFunc = func(_ context.Context, prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "London Air Quality"):
			return "- group: Environment, Health, Weather", nil
		case strings.Contains(prompt, "School Census"):
			return "Sure!\n- group: Education, Young People", nil
		default:
			return "", errors.New("model overloaded")
		}
	}
	e, err := NewThemeEnricher(gen, WithWorkers(2))
	require.NoError(t, err)

	report, err := e.Enrich(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Datasets)
	assert.Equal(t, 2, report.Enriched)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Suggestions, 2)

	air := report.Suggestions[0]
	assert.Equal(t, "air", air.DatasetID)
	assert.Equal(t, []string{"Environment", "Health"}, air.Accepted)
	assert.Equal(t, []string{"Weather"}, air.Rejected)
	assert.Equal(t, []string{"Health"}, air.Added)

	d, ok := store.Dataset("air")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"Environment", "Health"}, d.Themes)

	d, ok = store.Dataset("schools")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"Education", "Young People"}, d.Themes)

	// a second pass adds nothing new
	report, err = e.Enrich(context.Background(), store)
	require.NoError(t, err)
	assert.Zero(t, report.Enriched)
	d, _ = store.Dataset("air")
	assert.Len(t, d.Themes, 2)
}

func TestThemeEnricher_Suggest(t *testing.T) {
	e, err := NewThemeEnricher(mock.NewMockGenerator("- group: Trans", "port, Sport"))
	require.NoError(t, err)
	s, err := e.Suggest(context.Background(), &core.Dataset{ID: "bikes", Themes: []string{"sport"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Transport", "Sport"}, s.Accepted)
	assert.Equal(t, []string{"Transport"}, s.Added)
}

func TestThemeEnricher_Cancelled(t *testing.T) {
	e, err := NewThemeEnricher(mock.NewMockGenerator("- group: Health"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Enrich(ctx, enrichCatalog(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewThemeEnricher_Validation(t *testing.T) {
	_, err := NewThemeEnricher(nil)
	assert.ErrorIs(t, err, ErrGeneratorRequired)

	e, err := NewThemeEnricher(mock.NewMockGenerator())
	require.NoError(t, err)
	_, err = e.Enrich(context.Background(), nil)
	assert.ErrorIs(t, err, ErrCatalogRequired)
}
