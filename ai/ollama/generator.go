package ollama

import (
	"context"
	"errors"
	"iter"
	"log/slog"

	"github.com/ollama/ollama/api"
	"github.com/poiesic/datakg/ai"
	"golang.org/x/sync/semaphore"
)

var errConsumerStopped = errors.New("stream consumer stopped")

// Generator implements ai.Generator using the Ollama generate endpoint.
type Generator struct {
	client      *api.Client
	model       string
	temperature float64
	maxTokens   int
	reqLock     *semaphore.Weighted
	logger      *slog.Logger
}

func newGenerator(config *ai.Config) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	client, err := newClient(config.GeneratorHost)
	if err != nil {
		return nil, err
	}
	return &Generator{
		client:      client,
		model:       config.GeneratorModel,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		reqLock:     newLimiter(config.MaxConcurrentRequests),
		logger:      slog.Default().With("component", "ollama-generator", "model", config.GeneratorModel),
	}, nil
}

// NewGenerator creates a streaming generator for the configured model.
func NewGenerator(config *ai.Config) (ai.Generator, error) {
	return newGenerator(config)
}

// Generate streams the "response" field of every line the server emits.
func (g *Generator) Generate(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return ai.Once(func(yield func(string, error) bool) {
		if err := g.reqLock.Acquire(ctx, 1); err != nil {
			yield("", err)
			return
		}
		defer g.reqLock.Release(1)

		stream := true
		req := &api.GenerateRequest{
			Model:  g.model,
			Prompt: prompt,
			Stream: &stream,
			Options: map[string]any{
				"temperature": g.temperature,
				"num_predict": g.maxTokens,
			},
		}

		stopped := false
		err := g.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
			if resp.Response == "" {
				return nil
			}
			if !yield(resp.Response, nil) {
				stopped = true
				return errConsumerStopped
			}
			return nil
		})
		if stopped {
			return
		}
		if err != nil {
			g.logger.Error("generate request failed", "err", err)
			yield("", err)
		}
	})
}
