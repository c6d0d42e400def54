package graph

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datakg/core"
)

func tripleSet(triples []Triple) map[Triple]bool {
	set := make(map[Triple]bool, len(triples))
	for _, t := range triples {
		set[t] = true
	}
	return set
}

func TestTurtle_RoundTrip(t *testing.T) {
	s := newSampleStore(t)
	require.NoError(t, s.AddSimilarity("london_air", "noise_map"))
	d := core.Dataset{
		ID:          "quotes",
		Title:       `Title with "quotes"`,
		Description: "Described at <https://example.org> & elsewhere",
		Publisher:   "Office for National Statistics",
		Tags:        []string{"tag with spaces"},
	}
	require.NoError(t, s.AddDataset(&d))

	var buf bytes.Buffer
	require.NoError(t, s.WriteTurtle(&buf))

	loaded := NewStore()
	n, err := loaded.ReadTurtle(&buf)
	require.NoError(t, err)
	assert.Equal(t, s.Len(), n)
	assert.Equal(t, tripleSet(s.Triples()), tripleSet(loaded.Triples()))

	assert.ElementsMatch(t, s.DatasetIDs(), loaded.DatasetIDs())
	got, ok := loaded.Dataset("quotes")
	require.True(t, ok)
	assert.Equal(t, d.Title, got.Title)
	assert.Equal(t, d.Description, got.Description)
	assert.Equal(t, []string{"noise_map"}, loaded.SimilarTo("london_air"))
}

func TestTurtle_ReadInvalid(t *testing.T) {
	s := NewStore()
	_, err := s.ReadTurtle(strings.NewReader(`<http://a> <http://b> "unterminated .`))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInput)
	assert.Zero(t, s.Len())
}

func TestSaveAndLoadFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "graph.ttl")
	s := newSampleStore(t)

	require.NoError(t, s.SaveFile(ctx, path))
	loaded, err := LoadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, tripleSet(s.Triples()), tripleSet(loaded.Triples()))

	res, err := loaded.Query(ctx, `SELECT ?t WHERE { ?d a dcat:Dataset ; dcterms:title ?t . FILTER(CONTAINS(?t, "Noise")) }`)
	require.NoError(t, err)
	require.Equal(t, 1, res.Len())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(context.Background(), filepath.Join(t.TempDir(), "absent.ttl"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
