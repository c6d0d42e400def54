package evaluation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datakg/core"
)

const groundTruthJSON = `[
  {
    "keyword_search": "air pollution levels",
    "retrieved_datasets": [
      {
        "title": "London Average Air Quality Levels",
        "description": "<p>Background average readings</p>",
        "dataset_page": "https://data.london.gov.uk/dataset/london-average-air-quality-levels",
        "resources": [{"name": "air-quality.csv", "url": "https://data.london.gov.uk/download/a/b/air-quality.csv", "format": "csv"}]
      }
    ]
  },
  {"keyword_search": "NHS waiting times", "retrieved_datasets": []}
]`

const groundTruthYAML = `
- keyword_search: air pollution levels
  retrieved_datasets:
    - title: London Average Air Quality Levels
      description: "<p>Background average readings</p>"
      dataset_page: https://data.london.gov.uk/dataset/london-average-air-quality-levels
      resources:
        - name: air-quality.csv
          url: https://data.london.gov.uk/download/a/b/air-quality.csv
          format: csv
- keyword_search: NHS waiting times
  retrieved_datasets: []
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadGroundTruth(t *testing.T) {
	want := []core.GroundTruthEntry{
		{
			Keyword: "air pollution levels",
			Datasets: []core.GroundTruthDataset{{
				Title:       "London Average Air Quality Levels",
				Description: "<p>Background average readings</p>",
				DatasetPage: "https://data.london.gov.uk/dataset/london-average-air-quality-levels",
				Resources: []core.Resource{{
					Name: "air-quality.csv", URL: "https://data.london.gov.uk/download/a/b/air-quality.csv", Format: "csv",
				}},
			}},
		},
		{Keyword: "NHS waiting times", Datasets: []core.GroundTruthDataset{}},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "json", file: "ground_truth.json", content: groundTruthJSON},
		{name: "yaml", file: "ground_truth.yaml", content: groundTruthYAML},
		{name: "yml upper case", file: "ground_truth.YML", content: groundTruthYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadGroundTruth(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadGroundTruth_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{name: "unsupported extension", file: "gt.txt", content: "[]", wantErr: ErrUnsupportedFormat},
		{name: "blank keyword", file: "gt.json", content: `[{"keyword_search": "  "}]`, wantErr: ErrInvalidGroundTruth},
		{name: "duplicate keyword", file: "gt.json", content: `[{"keyword_search": "a"}, {"keyword_search": "a"}]`, wantErr: ErrInvalidGroundTruth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGroundTruth(writeFile(t, tt.file, tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		_, err := LoadGroundTruth(writeFile(t, "gt.json", "[{"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadGroundTruth(filepath.Join(t.TempDir(), "absent.json"))
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestDescriptions(t *testing.T) {
	entry := core.GroundTruthEntry{Datasets: []core.GroundTruthDataset{{Description: "a"}, {}}}
	assert.Equal(t, []string{"a", core.UnknownText}, Descriptions(entry))
}
