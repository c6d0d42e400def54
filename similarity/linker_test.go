package similarity

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datakg/ai/mock"
	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/graph"
)

// pairAt returns two unit vectors whose cosine is exactly c.
func pairAt(c float64) ([]float32, []float32) {
	return []float32{1, 0}, []float32{float32(c), float32(math.Sqrt(1 - c*c))}
}

func TestLinker_ThresholdScenario(t *testing.T) {
	a, b := pairAt(0.85)
	ids := []string{"d1", "d2"}
	vectors := [][]float32{a, b}

	tests := []struct {
		name      string
		threshold float32
		wantEdges int
	}{
		{name: "below threshold links", threshold: 0.8, wantEdges: 1},
		{name: "above threshold does not link", threshold: 0.9, wantEdges: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLinker(WithThreshold(tt.threshold))
			m, err := l.Compute(context.Background(), ids, vectors)
			require.NoError(t, err)

			score, ok := m.Score(0, 1)
			require.True(t, ok)
			assert.InDelta(t, 0.85, score, 1e-5)
			assert.Len(t, m.Edges(tt.threshold), tt.wantEdges)
		})
	}
}

func TestLinker_Symmetric(t *testing.T) {
	ids, vectors := randomCatalog(40)
	m, err := NewLinker(WithConfig(Config{BlockSize: 7, Workers: 3, ExactCeiling: 100})).
		Compute(context.Background(), ids, vectors)
	require.NoError(t, err)
	require.True(t, m.Dense())
	assert.Equal(t, 40*39/2, m.PairCount())

	for i := 0; i < m.Len(); i++ {
		for j := 0; j < m.Len(); j++ {
			sij, ok := m.Score(i, j)
			require.True(t, ok)
			sji, _ := m.Score(j, i)
			assert.Equal(t, sij, sji)
			if i != j {
				want := cosine(vectors[i], vectors[j])
				assert.InDelta(t, want, sij, 1e-4)
			}
		}
	}
}

func TestMatrix_EdgesMonotone(t *testing.T) {
	ids, vectors := randomCatalog(30)
	m, err := NewLinker().Compute(context.Background(), ids, vectors)
	require.NoError(t, err)

	key := func(e Edge) string { return e.A + "|" + e.B }
	thresholds := []float32{-1, -0.2, 0, 0.1, 0.3, 0.8}
	for k := 1; k < len(thresholds); k++ {
		lower := make(map[string]bool)
		for _, e := range m.Edges(thresholds[k-1]) {
			lower[key(e)] = true
		}
		for _, e := range m.Edges(thresholds[k]) {
			assert.True(t, lower[key(e)], "edge %s at %v missing at %v", key(e), thresholds[k], thresholds[k-1])
		}
	}
}

func TestLinker_Approximate(t *testing.T) {
	ids, vectors := randomCatalog(60)
	// near-duplicates of the first three vectors
	for i := 0; i < 3; i++ {
		v := append([]float32(nil), vectors[i]...)
		v[0] += 0.01
		ids = append(ids, ids[i]+"_copy")
		vectors = append(vectors, v)
	}

	cfg := DefaultConfig()
	cfg.ExactCeiling = 10
	l := NewLinker(WithConfig(cfg))
	m, err := l.Compute(context.Background(), ids, vectors)
	require.NoError(t, err)
	assert.False(t, m.Dense())
	assert.Less(t, m.PairCount(), len(ids)*(len(ids)-1)/2)

	edges := m.Edges(0.99)
	linked := make(map[string]string)
	for _, e := range edges {
		linked[e.A] = e.B
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, ids[i]+"_copy", linked[ids[i]])
	}

	again, err := l.Compute(context.Background(), ids, vectors)
	require.NoError(t, err)
	assert.Equal(t, m.PairCount(), again.PairCount(), "seeded hyperplanes are deterministic")
}

func TestLinker_InvalidInput(t *testing.T) {
	l := NewLinker()
	ctx := context.Background()

	_, err := l.Compute(ctx, []string{"a"}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = l.Compute(ctx, []string{"a", "b"}, [][]float32{{1, 0}, {1}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = l.Compute(ctx, []string{"a", "a"}, [][]float32{{1}, {1}})
	assert.ErrorIs(t, err, ErrDuplicateID)

	m, err := l.Compute(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, m.Edges(0))
}

func TestLinker_Cancelled(t *testing.T) {
	ids, vectors := randomCatalog(20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLinker().Compute(ctx, ids, vectors)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLinker_LinkIntoGraph(t *testing.T) {
	store := graph.NewStore()
	for _, id := range []string{"d1", "d2", "d3"} {
		require.NoError(t, store.AddDataset(&core.Dataset{ID: id, Title: "T " + id, Description: "D"}))
	}
	a, b := pairAt(0.85)
	vectors := [][]float32{a, b, {0, -1}}

	l := NewLinker()
	m, err := l.Compute(context.Background(), []string{"d1", "d2", "d3"}, vectors)
	require.NoError(t, err)

	edges, err := l.Link(context.Background(), store, m)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, []string{"d2"}, store.SimilarTo("d1"))
	assert.Equal(t, []string{"d1"}, store.SimilarTo("d2"))
	assert.Empty(t, store.SimilarTo("d3"))

	// Relinking at a stricter threshold drops the old edge.
	_, err = NewLinker(WithThreshold(0.9)).Link(context.Background(), store, m)
	require.NoError(t, err)
	assert.Empty(t, store.SimilarTo("d1"))
}

func TestMatrix_TopPairs(t *testing.T) {
	ids := []string{"a", "b", "c"}
	vectors := [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}}
	m, err := NewLinker().Compute(context.Background(), ids, vectors)
	require.NoError(t, err)

	top := m.TopPairs(2)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].A)
	assert.Equal(t, "b", top[0].B)
	assert.GreaterOrEqual(t, top[0].Score, top[1].Score)
	assert.Nil(t, m.TopPairs(0))
	assert.Len(t, m.TopPairs(10), 3)
}

func TestMatrix_RoundTrip(t *testing.T) {
	ids, vectors := randomCatalog(12)
	ctx := context.Background()

	dense, err := NewLinker().Compute(ctx, ids, vectors)
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.ExactCeiling = 2
	sparse, err := NewLinker(WithConfig(cfg)).Compute(ctx, ids, vectors)
	require.NoError(t, err)

	for name, m := range map[string]*Matrix{"dense": dense, "sparse": sparse} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "similarity.bin")
			require.NoError(t, m.Save(ctx, path))

			loaded, err := Load(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, m.IDs, loaded.IDs)
			assert.Equal(t, m.Dense(), loaded.Dense())
			assert.Equal(t, m.Edges(0), loaded.Edges(0))
		})
	}
}

func TestReadMatrix_Malformed(t *testing.T) {
	m, err := NewLinker().Compute(context.Background(), []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "truncated", data: buf.Bytes()[:buf.Len()-2]},
		{name: "wrong magic", data: []byte("\x05hello")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadMatrix(bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrBadMatrix)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "absent.bin"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func randomCatalog(n int) ([]string, [][]float32) {
	ids := make([]string, n)
	vectors := make([][]float32, n)
	for i := range ids {
		ids[i] = "ds" + string(rune('a'+i/26)) + string(rune('a'+i%26))
		vectors[i] = mock.Vector(ids[i])[:16]
	}
	return ids, vectors
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return float32(dot / math.Sqrt(na*nb))
}
