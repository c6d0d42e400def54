package main

import (
	"io"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datakg/ingestion"
	"github.com/poiesic/datakg/storage"
)

func TestSyntheticRecords(t *testing.T) {
	first := slices.Collect(syntheticRecords(50, 7))
	again := slices.Collect(syntheticRecords(50, 7))
	other := slices.Collect(syntheticRecords(50, 8))

	require.Len(t, first, 50)
	assert.Equal(t, first, again, "same seed, same records")
	assert.NotEqual(t, first, other)
	assert.Equal(t, "synthetic-00000", first[0].ID)
	for _, r := range first {
		assert.NotEmpty(t, r.Title)
		assert.NotEmpty(t, r.Summary)
		assert.LessOrEqual(t, len(r.Resources), 2)
	}
}

func TestWriteRecords_LoadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synthetic.jsonl")
	var written int
	err := storage.WriteFileAtomic(path, func(w io.Writer) error {
		var err error
		written, err = writeRecords(w, syntheticRecords(25, 1))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 25, written)

	records, err := ingestion.LoadRecords(path)
	require.NoError(t, err)
	assert.Equal(t, slices.Collect(syntheticRecords(25, 1)), records)
}
