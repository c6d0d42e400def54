package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/storage"
)

func TestEmbeddingCache_RoundTrip(t *testing.T) {
	cache, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	a, b := core.IDFromContent("air quality"), core.IDFromContent("traffic counts")
	vectors := map[core.ID][]float32{
		a: {0.1, 0.2, 0.3},
		b: {-1, 0, 1},
	}
	require.NoError(t, cache.PutEmbeddings(ctx, "all-minilm:l6-v2", vectors))

	got, err := cache.GetEmbeddings(ctx, "all-minilm:l6-v2", a, b, core.IDFromContent("missing"))
	require.NoError(t, err)
	assert.Equal(t, vectors, got)
}

func TestEmbeddingCache_ModelsAreIsolated(t *testing.T) {
	cache, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	id := core.IDFromContent("same text")
	require.NoError(t, cache.PutEmbeddings(ctx, "model-a", map[core.ID][]float32{id: {1}}))
	require.NoError(t, cache.PutEmbeddings(ctx, "model-a:v2", map[core.ID][]float32{id: {2}}))

	got, err := cache.GetEmbeddings(ctx, "model-a", id)
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, got[id])

	got, err = cache.GetEmbeddings(ctx, "model-b", id)
	require.NoError(t, err)
	assert.Empty(t, got)

	repo := cache.(*EmbeddingRepository)
	n, err := repo.Count("model-a")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestEmbeddingCache_Closed(t *testing.T) {
	cache, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	_, err = cache.GetEmbeddings(context.Background(), "m", 1)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	err = cache.PutEmbeddings(context.Background(), "m", map[core.ID][]float32{1: {1}})
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestArtifactRepository(t *testing.T) {
	_, artifacts, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	meta, err := artifacts.LoadArtifact(ctx, "vector-index")
	require.NoError(t, err)
	assert.Nil(t, meta)

	saved := &storage.ArtifactMeta{
		Name:        "vector-index",
		Path:        "/tmp/index.bin",
		Model:       "all-minilm:l6-v2",
		Fingerprint: 0xfeedface,
		Count:       42,
	}
	require.NoError(t, artifacts.SaveArtifact(ctx, saved))
	assert.False(t, saved.BuiltAt.IsZero())

	meta, err = artifacts.LoadArtifact(ctx, "vector-index")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, saved.Fingerprint, meta.Fingerprint)
	assert.Equal(t, saved.Count, meta.Count)
	assert.Equal(t, saved.Model, meta.Model)
	assert.Equal(t, saved.BuiltAt.UnixMicro(), meta.BuiltAt.UnixMicro())
}
