package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/poiesic/datakg/core"
)

func TestExtractFacets(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  core.Facets
	}{
		{
			name:  "about clause over-captures trailing format",
			query: "show me datasets about air pollution in csv",
			want:  core.Facets{Topic: "air pollution in csv", Format: "csv"},
		},
		{
			name:  "format is lowercased",
			query: "I am looking for a dataset in CSV format about air quality",
			want:  core.Facets{Topic: "air quality", Format: "csv"},
		},
		{
			name:  "rephrased question drops trailing punctuation",
			query: "Can you show me datasets about pollution?",
			want:  core.Facets{Topic: "pollution"},
		},
		{
			name:  "trailing period and spaces",
			query: "datasets about road safety. ",
			want:  core.Facets{Topic: "road safety"},
		},
		{
			name:  "publisher",
			query: "datasets from Transport for London",
			want:  core.Facets{Publisher: "Transport for London"},
		},
		{
			name:  "publisher stops at punctuation",
			query: "budgets from Greater London Authority, please",
			want:  core.Facets{Publisher: "Greater London Authority"},
		},
		{
			name:  "about also swallows a from clause",
			query: "Show me datasets about crime from Met Police",
			want:  core.Facets{Topic: "crime from Met Police", Publisher: "Met Police"},
		},
		{
			name:  "format needs word boundaries",
			query: "jsonl exports about docks",
			want:  core.Facets{Topic: "docks"},
		},
		{
			name:  "first format wins",
			query: "pdf or xls",
			want:  core.Facets{Format: "pdf"},
		},
		{
			name:  "nothing matches",
			query: "population",
			want:  core.Facets{},
		},
		{
			name:  "empty",
			query: "",
			want:  core.Facets{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractFacets(tt.query)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractFacets_EmptyReportsEmpty(t *testing.T) {
	assert.True(t, ExtractFacets("trees").Empty())
	assert.False(t, ExtractFacets("trees in json").Empty())
}
