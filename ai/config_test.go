package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, BackendOpenAI, cfg.Backend)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.GeneratorHost)
	assert.Equal(t, DefaultEmbeddingModel, cfg.EmbeddingModel)
	assert.Equal(t, "mistral", cfg.GeneratorModel)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 500, cfg.MaxTokens)
	require.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.GeneratorHost)
	})

	t.Run("with separate hosts and models", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithGeneratorHost("http://gen:9090/v1"),
			WithEmbeddingModel("nomic-embed-text"),
			WithGeneratorModel("qwen2.5:3b"),
			WithTemperature(0),
			WithMaxTokens(1024),
			WithMaxConcurrentRequests(2),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://gen:9090/v1", cfg.GeneratorHost)
		assert.Equal(t, "nomic-embed-text", cfg.EmbeddingModel)
		assert.Equal(t, "qwen2.5:3b", cfg.GeneratorModel)
		assert.Equal(t, 0.0, cfg.Temperature)
		assert.Equal(t, 1024, cfg.MaxTokens)
		assert.Equal(t, 2, cfg.MaxConcurrentRequests)
	})
}

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		host    string
		want    string
	}{
		{name: "openai adds suffix", backend: BackendOpenAI, host: "http://localhost:11434", want: "http://localhost:11434/v1"},
		{name: "openai trailing slash", backend: BackendOpenAI, host: "http://localhost:11434/", want: "http://localhost:11434/v1"},
		{name: "openai keeps suffix", backend: BackendOpenAI, host: "http://localhost:11434/v1", want: "http://localhost:11434/v1"},
		{name: "ollama strips suffix", backend: BackendOllama, host: "http://localhost:11434/v1", want: "http://localhost:11434"},
		{name: "ollama case insensitive backend", backend: "Ollama", host: "http://localhost:11434/", want: "http://localhost:11434"},
		{name: "empty host untouched", backend: BackendOpenAI, host: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(WithBackend(tt.backend), WithHost(tt.host))
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, tt.want, cfg.GeneratorHost)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ConfigOption
		wantErr string
	}{
		{name: "defaults are valid"},
		{name: "unknown backend", opts: []ConfigOption{WithBackend("bedrock")}, wantErr: "Backend"},
		{name: "missing embedding host", opts: []ConfigOption{WithEmbeddingHost("")}, wantErr: "EmbeddingHost"},
		{name: "missing generator host", opts: []ConfigOption{WithGeneratorHost("")}, wantErr: "GeneratorHost"},
		{name: "missing embedding model", opts: []ConfigOption{WithEmbeddingModel("")}, wantErr: "EmbeddingModel"},
		{name: "missing generator model", opts: []ConfigOption{WithGeneratorModel("")}, wantErr: "GeneratorModel"},
		{name: "temperature out of range", opts: []ConfigOption{WithTemperature(3)}, wantErr: "Temperature"},
		{name: "zero max tokens", opts: []ConfigOption{WithMaxTokens(0)}, wantErr: "MaxTokens"},
		{name: "zero concurrency", opts: []ConfigOption{WithMaxConcurrentRequests(0)}, wantErr: "MaxConcurrentRequests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfig(tt.opts...).Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
