package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datakg/ai/mock"
	"github.com/poiesic/datakg/core"
	storagebadger "github.com/poiesic/datakg/storage/badger"
)

func testConfig() *Config {
	return &Config{
		BatchSize:      2,
		Workers:        2,
		Retry:          RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond},
		ReportInterval: 10,
	}
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService(nil, "m")
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewService(mock.NewMockEmbedder(), "")
	assert.ErrorIs(t, err, ErrModelRequired)
}

func TestEmbedAll_OrderAndNormalization(t *testing.T) {
	embedder := mock.NewTableEmbedder(map[string][]float32{
		"a": {3, 4},
		"b": {0, 2},
		"c": {5, 0},
	})
	svc, err := NewService(embedder, "table", WithConfig(testConfig()))
	require.NoError(t, err)
	defer svc.Close()

	got, err := svc.EmbedAll(context.Background(), []string{"a", "b", "c", "a"})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, got[0], 1e-6)
	assert.InDeltaSlice(t, []float32{0, 1}, got[1], 1e-6)
	assert.InDeltaSlice(t, []float32{1, 0}, got[2], 1e-6)
	assert.Equal(t, got[0], got[3])

	assert.ElementsMatch(t, []string{"a", "b", "c"}, embedder.Texts(), "duplicates are embedded once")
}

func TestEmbedAll_Deterministic(t *testing.T) {
	svc, err := NewService(mock.NewMockEmbedder(), "mock", WithConfig(testConfig()))
	require.NoError(t, err)
	defer svc.Close()

	texts := []string{"London Air Quality pollution", "School Census pupils", "Noise Map"}
	first, err := svc.EmbedAll(context.Background(), texts)
	require.NoError(t, err)
	second, err := svc.EmbedAll(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	for _, v := range first {
		assert.InDelta(t, 1.0, Norm(v), 1e-5)
	}
}

func TestEmbedAll_UsesCache(t *testing.T) {
	cache, _, backend, err := storagebadger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	embedder := mock.NewMockEmbedder()
	svc, err := NewService(embedder, "mock", WithConfig(testConfig()), WithCache(cache))
	require.NoError(t, err)
	defer svc.Close()

	ctx := context.Background()
	first, err := svc.EmbedAll(ctx, []string{"one", "two", "three"})
	require.NoError(t, err)
	calls := embedder.CallCount()

	second, err := svc.EmbedAll(ctx, []string{"three", "one"})
	require.NoError(t, err)
	assert.Equal(t, calls, embedder.CallCount(), "cached texts are not re-embedded")
	assert.Equal(t, first[2], second[0])

	single, err := svc.Embed(ctx, "two")
	require.NoError(t, err)
	assert.Equal(t, first[1], single)
	assert.Equal(t, calls, embedder.CallCount())

	// A different model never sees these entries.
	other, err := NewService(embedder, "other-model", WithConfig(testConfig()), WithCache(cache))
	require.NoError(t, err)
	defer other.Close()
	_, err = other.Embed(ctx, "two")
	require.NoError(t, err)
	assert.Greater(t, embedder.CallCount(), calls)
}

func TestEmbedAll_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	failure := errors.New("service unavailable")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls.Add(1)
		return nil, failure
	}
	svc, err := NewService(embedder, "mock", WithConfig(testConfig()))
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.EmbedAll(context.Background(), []string{"only"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrExternalService)
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, int32(2), calls.Load())
}

func TestEmbedAll_CountMismatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}
	cfg := testConfig()
	cfg.Retry.MaxAttempts = 1
	svc, err := NewService(embedder, "mock", WithConfig(cfg))
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.EmbedAll(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrCountMismatch)
}

func TestEmbed_ExternalServiceError(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("timeout")
	}
	svc, err := NewService(embedder, "mock", WithConfig(testConfig()))
	require.NoError(t, err)
	defer svc.Close()

	_, err = svc.Embed(context.Background(), "query")
	assert.ErrorIs(t, err, core.ErrExternalService)
}

func TestEmbedAll_Empty(t *testing.T) {
	svc, err := NewService(mock.NewMockEmbedder(), "mock")
	require.NoError(t, err)
	defer svc.Close()

	got, err := svc.EmbedAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
