package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/datakg/ai"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, float32(0.8), cfg.Similarity.Threshold)
	assert.Equal(t, 4000, cfg.Similarity.ExactCeiling)
	assert.Equal(t, float32(0.9), cfg.Vector.Floor)
	assert.Equal(t, 20, cfg.Vector.K)
	assert.Equal(t, "mistral", cfg.LLM.ModelName)
	assert.Equal(t, ai.DefaultEmbeddingModel, cfg.Embedding.Model)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "datakg.yaml", `
llm:
  model_name: qwen2.5:3b
  temperature: 0.2
  max_tokens: 800
  api_url: http://gpu-box:11434/api/generate
embedding:
  model: nomic-embed-text
similarity:
  threshold: 0.75
vector:
  k: 10
paths:
  data_dir: /var/lib/datakg
`)
	cfg, err := Load(path, filepath.Join(dir, "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "qwen2.5:3b", cfg.LLM.ModelName)
	assert.Equal(t, 0.2, cfg.LLM.Temperature)
	assert.Equal(t, 800, cfg.LLM.MaxTokens)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, float32(0.75), cfg.Similarity.Threshold)
	assert.Equal(t, 10, cfg.Vector.K)
	assert.Equal(t, filepath.Join("/var/lib/datakg", "graph.ttl"), cfg.Path("graph.ttl"))

	// untouched sections keep their defaults
	assert.Equal(t, float32(0.9), cfg.Vector.Floor)
	assert.Equal(t, "http://localhost:11434", cfg.Embedding.Host)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "absent.yaml"), filepath.Join(dir, "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "malformed yaml", content: "llm: [unclosed"},
		{name: "threshold out of range", content: "similarity:\n  threshold: 1.5\n", wantErr: ErrInvalidConfig},
		{name: "non positive k", content: "vector:\n  k: 0\n", wantErr: ErrInvalidConfig},
		{name: "unknown strategy", content: "evaluation:\n  strategies: fulltext\n", wantErr: ErrInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, err := Load(writeFile(t, dir, "c.yaml", tt.content), filepath.Join(dir, "absent.env"))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "DATAKG_LLM_MODEL=llama3\nDATAKG_VECTOR_K=5\n")
	t.Cleanup(func() { os.Unsetenv("DATAKG_LLM_MODEL") })
	path := writeFile(t, dir, "c.yaml", "llm:\n  model_name: mistral\nvector:\n  k: 7\n")

	// the process environment wins over the .env file
	t.Setenv("DATAKG_VECTOR_K", "3")
	t.Setenv("DATAKG_LLM_REFINE", "true")
	t.Setenv("DATAKG_SIMILARITY_THRESHOLD", "0.85")

	cfg, err := Load(path, envFile)
	require.NoError(t, err)
	assert.Equal(t, "llama3", cfg.LLM.ModelName)
	assert.Equal(t, 3, cfg.Vector.K)
	assert.True(t, cfg.LLM.Refine)
	assert.Equal(t, float32(0.85), cfg.Similarity.Threshold)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DATAKG_LOG_LEVEL":       " debug ",
		"DATAKG_DATA_DIR":        "/tmp/kg",
		"DATAKG_LLM_TEMPERATURE": "0.5",
		"DATAKG_VECTOR_FLOOR":    "0.8",
		"DATAKG_EMBEDDING_HOST":  "http://embed:11434",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/kg", cfg.Paths.DataDir)
	assert.Equal(t, 0.5, cfg.LLM.Temperature)
	assert.Equal(t, float32(0.8), cfg.Vector.Floor)
	assert.Equal(t, "http://embed:11434", cfg.Embedding.Host)

	env = map[string]string{"DATAKG_VECTOR_K": "many", "DATAKG_LLM_REFINE": "sometimes"}
	err := Default().ApplyEnv(lookup)
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.Contains(t, err.Error(), "DATAKG_VECTOR_K")
	assert.Contains(t, err.Error(), "DATAKG_LLM_REFINE")
}

func TestConfig_AI(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIURL = "http://gpu:11434"
	cfg.Embedding.Workers = 2
	aiCfg := cfg.AI()
	require.NoError(t, aiCfg.Validate())
	assert.Equal(t, ai.BackendOllama, aiCfg.Backend)
	assert.Equal(t, "http://gpu:11434", aiCfg.GeneratorHost)
	assert.Equal(t, "mistral", aiCfg.GeneratorModel)
	assert.Equal(t, 2, aiCfg.MaxConcurrentRequests)
	assert.Equal(t, 0.0, aiCfg.Temperature)

	sim := cfg.SimilarityConfig()
	assert.Equal(t, float32(0.8), sim.Threshold)
	assert.Equal(t, 4000, sim.ExactCeiling)
}
