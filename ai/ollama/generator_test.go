package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/poiesic/datakg/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(host string) *ai.Config {
	return ai.NewConfig(
		ai.WithBackend(ai.BackendOllama),
		ai.WithHost(host),
		ai.WithGeneratorModel("mistral"),
	)
}

func TestGenerator_StreamsResponseLines(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/x-ndjson")
		enc := json.NewEncoder(w)
		for _, part := range []string{"PREFIX dcat: ", "<http://www.w3.org/ns/dcat#>", ""} {
			_ = enc.Encode(map[string]any{"model": "mistral", "response": part, "done": part == ""})
		}
	}))
	defer server.Close()

	gen, err := NewGenerator(newTestConfig(server.URL))
	require.NoError(t, err)

	var partials []string
	text, err := ai.Collect(gen.Generate(context.Background(), "convert this"), func(p string) {
		partials = append(partials, p)
	})
	require.NoError(t, err)
	assert.Equal(t, "PREFIX dcat: <http://www.w3.org/ns/dcat#>", text)
	assert.Len(t, partials, 2)
	assert.Equal(t, "mistral", got["model"])
	assert.Equal(t, "convert this", got["prompt"])
}

func TestGenerator_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	gen, err := NewGenerator(newTestConfig(server.URL))
	require.NoError(t, err)

	_, err = ai.Collect(gen.Generate(context.Background(), "prompt"), nil)
	assert.Error(t, err)
}

func TestGenerator_IsLazy(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "x", "done": true})
	}))
	defer server.Close()

	gen, err := NewGenerator(newTestConfig(server.URL))
	require.NoError(t, err)

	seq := gen.Generate(context.Background(), "prompt")
	assert.Equal(t, 0, calls, "no request before ranging")

	_, err = ai.Collect(seq, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = ai.Collect(seq, nil)
	assert.ErrorIs(t, err, ai.ErrStreamConsumed)
	assert.Equal(t, 1, calls)
}

func TestEmbedder_Batch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		out := make([][]float32, len(req.Input))
		for i := range req.Input {
			out[i] = []float32{float32(i), 1}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"model": "m", "embeddings": out})
	}))
	defer server.Close()

	emb, err := NewEmbedder(newTestConfig(server.URL))
	require.NoError(t, err)

	vectors, err := emb.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{2, 1}, vectors[2])

	empty, err := emb.EmbedTexts(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
