package ai

import (
	"errors"
	"strings"
)

// Backend names accepted by Config.Backend.
const (
	BackendOpenAI = "openai"
	BackendOllama = "ollama"
)

// DefaultEmbeddingModel is the embedding space similarity thresholds and
// evaluation baselines are calibrated against. Changing it invalidates
// persisted vector indexes and similarity artifacts.
const DefaultEmbeddingModel = "all-minilm:l6-v2"

// Config holds configuration for AI service providers.
type Config struct {
	// Backend selects the client implementation: "openai" for any
	// OpenAI-compatible server, "ollama" for the native Ollama API.
	Backend string

	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// GeneratorHost is the base URL for the text-generation service API.
	GeneratorHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	EmbeddingModel string

	// GeneratorModel is the model identifier used for query generation,
	// enrichment and refinement.
	// Example: "mistral", "qwen2.5:3b"
	GeneratorModel string

	// Temperature is the sampling temperature for generation.
	// Default: 0.7
	Temperature float64

	// MaxTokens caps the generated output length.
	// Default: 500
	MaxTokens int

	// MaxConcurrentRequests bounds in-flight requests per client.
	// Default: 4
	MaxConcurrentRequests int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend sets the client backend.
func WithBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithGeneratorHost sets the text-generation service host URL.
func WithGeneratorHost(host string) ConfigOption {
	return func(c *Config) {
		c.GeneratorHost = host
	}
}

// WithHost sets both embedding and generator hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.GeneratorHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithGeneratorModel sets the text-generation model identifier.
func WithGeneratorModel(model string) ConfigOption {
	return func(c *Config) {
		c.GeneratorModel = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithMaxTokens sets the generation length cap.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithMaxConcurrentRequests bounds in-flight requests per client.
func WithMaxConcurrentRequests(n int) ConfigOption {
	return func(c *Config) {
		c.MaxConcurrentRequests = n
	}
}

// DefaultConfig returns a Config with sensible defaults for a local Ollama
// server reached through its OpenAI-compatible endpoint.
func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		Backend:               BackendOpenAI,
		EmbeddingHost:         defaultHost,
		GeneratorHost:         defaultHost,
		EmbeddingModel:        DefaultEmbeddingModel,
		GeneratorModel:        "mistral",
		Temperature:           0.7,
		MaxTokens:             500,
		MaxConcurrentRequests: 4,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithBackend(BackendOllama),
//	    WithHost("http://localhost:11434"),
//	    WithGeneratorModel("qwen2.5:3b"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// The openai backend needs the /v1 suffix; the native Ollama client must not
// have it because it appends its own /api paths.
func (c *Config) Normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost, c.Backend)
	c.GeneratorHost = normalizeHost(c.GeneratorHost, c.Backend)
}

func normalizeHost(host, backend string) string {
	if host == "" {
		return host
	}
	host = strings.TrimSuffix(host, "/")
	switch backend {
	case BackendOllama:
		return strings.TrimSuffix(host, "/v1")
	default:
		if !strings.HasSuffix(host, "/v1") {
			host += "/v1"
		}
		return host
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Backend != BackendOpenAI && c.Backend != BackendOllama {
		return errors.New("ai config: Backend must be one of openai, ollama")
	}
	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.GeneratorHost == "" {
		return errors.New("ai config: GeneratorHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.GeneratorModel == "" {
		return errors.New("ai config: GeneratorModel is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	if c.MaxConcurrentRequests < 1 {
		return errors.New("ai config: MaxConcurrentRequests must be positive")
	}
	return nil
}
