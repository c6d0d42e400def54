// Package config loads datakg settings from a YAML file, a .env file and
// DATAKG_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/datakg/ai"
	"github.com/poiesic/datakg/retrieval"
	"github.com/poiesic/datakg/similarity"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DATAKG_"

var (
	// ErrInvalidValue is returned when an environment override cannot be parsed.
	ErrInvalidValue = errors.New("invalid config value")

	// ErrInvalidConfig is returned when the loaded configuration fails validation.
	ErrInvalidConfig = errors.New("invalid config")
)

// LLM configures the text-generation service.
type LLM struct {
	Backend     string  `yaml:"backend"`
	ModelName   string  `yaml:"model_name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	APIURL      string  `yaml:"api_url"`
	// Refine enables LLM re-ranking of merged results.
	Refine bool `yaml:"refine"`
}

// Embedding configures the embedding service.
type Embedding struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
	Workers   int    `yaml:"workers"`
	Retries   int    `yaml:"retries"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// Paths locates inputs and build artifacts.
type Paths struct {
	// DataDir holds the graph, index, similarity matrix and cache.
	DataDir     string `yaml:"data_dir"`
	Records     string `yaml:"records"`
	GroundTruth string `yaml:"ground_truth"`
	Output      string `yaml:"output"`
}

type Similarity struct {
	Threshold    float32 `yaml:"threshold"`
	ExactCeiling int     `yaml:"exact_ceiling"`
}

type Vector struct {
	K     int     `yaml:"k"`
	Floor float32 `yaml:"floor"`
}

type Evaluation struct {
	Rephrase   string `yaml:"rephrase"`
	Strategies string `yaml:"strategies"`
}

// Config is the complete datakg configuration.
type Config struct {
	LLM        LLM        `yaml:"llm"`
	Embedding  Embedding  `yaml:"embedding"`
	Logging    Logging    `yaml:"logging"`
	Paths      Paths      `yaml:"paths"`
	Similarity Similarity `yaml:"similarity"`
	Vector     Vector     `yaml:"vector"`
	Evaluation Evaluation `yaml:"evaluation"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiCfg := ai.DefaultConfig()
	sim := similarity.DefaultConfig()
	return &Config{
		LLM: LLM{
			Backend:     ai.BackendOllama,
			ModelName:   aiCfg.GeneratorModel,
			Temperature: 0,
			MaxTokens:   1000,
			APIURL:      "http://localhost:11434",
		},
		Embedding: Embedding{
			Host:      "http://localhost:11434",
			Model:     ai.DefaultEmbeddingModel,
			BatchSize: 32,
			Workers:   4,
			Retries:   3,
		},
		Logging: Logging{Level: "info"},
		Paths: Paths{
			DataDir:     "data",
			Records:     "metadata.json",
			GroundTruth: "ground_truth.json",
			Output:      "evaluation",
		},
		Similarity: Similarity{Threshold: sim.Threshold, ExactCeiling: sim.ExactCeiling},
		Vector:     Vector{K: retrieval.DefaultK, Floor: retrieval.DefaultFloor},
		Evaluation: Evaluation{Strategies: retrieval.SelectAll},
	}
}

// Load reads path over the defaults, then loads .env files and applies
// DATAKG_* overrides. A missing config file leaves the defaults in place;
// an empty path skips the file.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	logger := slog.Default().With("component", "config")

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("no config file, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := LoadEnv(envFiles...); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads .env style files into the process environment. Variables
// already set are not overwritten. Missing files are ignored; with no
// arguments ./.env is tried.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from DATAKG_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	o := overrider{lookup: lookup}
	o.setString("LLM_BACKEND", &c.LLM.Backend)
	o.setString("LLM_MODEL", &c.LLM.ModelName)
	o.setFloat64("LLM_TEMPERATURE", &c.LLM.Temperature)
	o.setInt("LLM_MAX_TOKENS", &c.LLM.MaxTokens)
	o.setString("LLM_API_URL", &c.LLM.APIURL)
	o.setBool("LLM_REFINE", &c.LLM.Refine)
	o.setString("EMBEDDING_HOST", &c.Embedding.Host)
	o.setString("EMBEDDING_MODEL", &c.Embedding.Model)
	o.setInt("EMBEDDING_BATCH_SIZE", &c.Embedding.BatchSize)
	o.setInt("EMBEDDING_WORKERS", &c.Embedding.Workers)
	o.setString("LOG_LEVEL", &c.Logging.Level)
	o.setString("DATA_DIR", &c.Paths.DataDir)
	o.setString("RECORDS", &c.Paths.Records)
	o.setString("GROUND_TRUTH", &c.Paths.GroundTruth)
	o.setFloat32("SIMILARITY_THRESHOLD", &c.Similarity.Threshold)
	o.setInt("SIMILARITY_EXACT_CEILING", &c.Similarity.ExactCeiling)
	o.setInt("VECTOR_K", &c.Vector.K)
	o.setFloat32("VECTOR_FLOOR", &c.Vector.Floor)
	return errors.Join(o.errs...)
}

// Validate checks ranges of the tunables.
func (c *Config) Validate() error {
	switch {
	case c.Similarity.Threshold < -1 || c.Similarity.Threshold > 1:
		return fmt.Errorf("%w: similarity.threshold must be within [-1, 1]", ErrInvalidConfig)
	case c.Vector.Floor < -1 || c.Vector.Floor > 1:
		return fmt.Errorf("%w: vector.floor must be within [-1, 1]", ErrInvalidConfig)
	case c.Vector.K < 1:
		return fmt.Errorf("%w: vector.k must be positive", ErrInvalidConfig)
	case c.Embedding.BatchSize < 1:
		return fmt.Errorf("%w: embedding.batch_size must be positive", ErrInvalidConfig)
	case c.Embedding.Retries < 1:
		return fmt.Errorf("%w: embedding.retries must be positive", ErrInvalidConfig)
	case c.Paths.DataDir == "":
		return fmt.Errorf("%w: paths.data_dir is required", ErrInvalidConfig)
	}
	if _, err := retrieval.ParseSelector(c.Evaluation.Strategies); err != nil {
		return fmt.Errorf("%w: evaluation.strategies: %w", ErrInvalidConfig, err)
	}
	return nil
}

// AI returns the AI provider configuration.
func (c *Config) AI() *ai.Config {
	cfg := ai.NewConfig(
		ai.WithBackend(c.LLM.Backend),
		ai.WithGeneratorHost(c.LLM.APIURL),
		ai.WithGeneratorModel(c.LLM.ModelName),
		ai.WithTemperature(c.LLM.Temperature),
		ai.WithMaxTokens(c.LLM.MaxTokens),
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
	)
	if c.Embedding.Workers > 0 {
		cfg.MaxConcurrentRequests = c.Embedding.Workers
	}
	return cfg
}

// SimilarityConfig returns the linker configuration.
func (c *Config) SimilarityConfig() similarity.Config {
	cfg := similarity.DefaultConfig()
	cfg.Threshold = c.Similarity.Threshold
	if c.Similarity.ExactCeiling > 0 {
		cfg.ExactCeiling = c.Similarity.ExactCeiling
	}
	return cfg
}

// Path resolves name inside the data directory.
func (c *Config) Path(name string) string {
	return filepath.Join(c.Paths.DataDir, name)
}

type overrider struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (o *overrider) get(key string) (string, bool) {
	v, ok := o.lookup(EnvPrefix + key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (o *overrider) fail(key, value string, err error) {
	o.errs = append(o.errs, fmt.Errorf("%w: %s%s=%q: %w", ErrInvalidValue, EnvPrefix, key, value, err))
}

func (o *overrider) setString(key string, dst *string) {
	if v, ok := o.get(key); ok {
		*dst = v
	}
}

func (o *overrider) setInt(key string, dst *int) {
	if v, ok := o.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			o.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (o *overrider) setFloat64(key string, dst *float64) {
	if v, ok := o.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			o.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (o *overrider) setFloat32(key string, dst *float32) {
	if v, ok := o.get(key); ok {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			o.fail(key, v, err)
			return
		}
		*dst = float32(f)
	}
}

func (o *overrider) setBool(key string, dst *bool) {
	if v, ok := o.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			o.fail(key, v, err)
			return
		}
		*dst = b
	}
}
