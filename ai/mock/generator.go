package mock

import (
	"context"
	"iter"
	"sync"

	"github.com/poiesic/datakg/ai"
)

// MockGenerator is a test double for ai.Generator. By default it streams the
// configured fragments; GenerateFunc overrides that per prompt.
type MockGenerator struct {
	// GenerateFunc, if set, returns the full response text for a prompt or an
	// error. The text is streamed back in FragmentSize-byte pieces.
	GenerateFunc func(ctx context.Context, prompt string) (string, error)

	// FragmentSize controls how GenerateFunc output is split. Default: 8.
	FragmentSize int

	fragments []string

	mu      sync.Mutex
	prompts []string
}

// NewMockGenerator creates a generator that streams fragments verbatim.
func NewMockGenerator(fragments ...string) *MockGenerator {
	return &MockGenerator{fragments: fragments, FragmentSize: 8}
}

// Generate streams the scripted output for prompt.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return ai.Once(func(yield func(string, error) bool) {
		m.mu.Lock()
		m.prompts = append(m.prompts, prompt)
		m.mu.Unlock()

		parts := m.fragments
		if m.GenerateFunc != nil {
			text, err := m.GenerateFunc(ctx, prompt)
			if err != nil {
				yield("", err)
				return
			}
			parts = split(text, m.FragmentSize)
		}
		for _, p := range parts {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	})
}

// Prompts returns every prompt received, in order.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// CallCount returns the number of generation streams consumed.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func split(text string, size int) []string {
	if size < 1 {
		size = 8
	}
	var parts []string
	for len(text) > size {
		parts = append(parts, text[:size])
		text = text[size:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}
