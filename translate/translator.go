package translate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/datakg/ai"
	"github.com/poiesic/datakg/core"
)

// ErrGeneratorRequired is returned when no text generator is supplied.
var ErrGeneratorRequired = errors.New("generator is required")

// Translator generates pattern queries with a text generator.
type Translator struct {
	generator  ai.Generator
	onFragment func(partial string)
	logger     *slog.Logger
}

// Option configures a Translator.
type Option func(*Translator)

// WithPartialOutput registers fn to receive the accumulated generator
// output after every streamed fragment.
func WithPartialOutput(fn func(partial string)) Option {
	return func(t *Translator) { t.onFragment = fn }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Translator) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTranslator creates a Translator backed by generator.
func NewTranslator(generator ai.Generator, opts ...Option) (*Translator, error) {
	if generator == nil {
		return nil, ErrGeneratorRequired
	}
	t := &Translator{
		generator: generator,
		logger:    slog.Default().With("component", "translate"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Facets extracts search facets from query. It never fails.
func (t *Translator) Facets(query string) core.Facets {
	f := ExtractFacets(query)
	t.logger.Debug("extracted facets", "topic", f.Topic, "format", f.Format, "publisher", f.Publisher)
	return f
}

// PatternQuery asks the generator for a pattern query answering query. The
// full stream is collected before extraction. Generator failures carry
// core.ErrExternalService; output without a usable query carries
// core.ErrTranslation.
func (t *Translator) PatternQuery(ctx context.Context, query string) (string, error) {
	text, err := ai.Collect(t.generator.Generate(ctx, Prompt(query)), t.onFragment)
	if err != nil {
		return "", core.NewError(core.ErrExternalService, "generate pattern query", err)
	}
	q, err := ExtractQuery(text)
	if err != nil {
		t.logger.Warn("generated text holds no usable query", "error", err, "length", len(text))
		return "", core.NewError(core.ErrTranslation, "extract pattern query", err)
	}
	t.logger.Debug("generated pattern query", "query", q)
	return q, nil
}
