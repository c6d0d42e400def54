package evaluation

import (
	"context"
	"log/slog"

	"github.com/poiesic/datakg/embedding"
	"github.com/poiesic/datakg/normalize"
)

// Score is a precision/recall/F1 triple in [0,1].
type Score struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Scorer compares retrieved texts against relevant texts.
type Scorer interface {
	// Score compares aligned pairs of relevant and retrieved texts.
	Score(ctx context.Context, relevant, retrieved []string) (Score, error)

	// Name identifies the metric in reports.
	Name() string
}

// TextEmbedder embeds a batch of texts into normalized vectors.
type TextEmbedder interface {
	EmbedAll(ctx context.Context, texts []string) ([][]float32, error)
}

// SemanticScorer scores text pairs by greedy token matching in embedding
// space: each retrieved token is matched to its most similar relevant token
// for precision, each relevant token to its most similar retrieved token for
// recall. Tokens are the content words of the HTML-stripped text.
type SemanticScorer struct {
	embedder TextEmbedder
	logger   *slog.Logger
}

// NewSemanticScorer returns a scorer embedding tokens with embedder.
func NewSemanticScorer(embedder TextEmbedder) (*SemanticScorer, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	return &SemanticScorer{embedder: embedder, logger: slog.Default().With("component", "scorer")}, nil
}

func (s *SemanticScorer) Name() string { return "semantic-token-match" }

// Score truncates both lists to the shorter one and averages the per-pair
// scores. Returns ErrNoText when either list is empty or holds no content
// words at all.
func (s *SemanticScorer) Score(ctx context.Context, relevant, retrieved []string) (Score, error) {
	n := min(len(relevant), len(retrieved))
	if n == 0 {
		return Score{}, ErrNoText
	}
	s.logger.Debug("scoring", "relevant", len(relevant), "retrieved", len(retrieved), "pairs", n)

	refs := make([][]string, n)
	cands := make([][]string, n)
	index := make(map[string]int)
	var vocab []string
	add := func(words []string) {
		for _, w := range words {
			if _, ok := index[w]; !ok {
				index[w] = len(vocab)
				vocab = append(vocab, w)
			}
		}
	}
	for i := range n {
		refs[i] = tokens(relevant[i])
		cands[i] = tokens(retrieved[i])
		add(refs[i])
		add(cands[i])
	}
	if len(vocab) == 0 {
		return Score{}, ErrNoText
	}

	vectors, err := s.embedder.EmbedAll(ctx, vocab)
	if err != nil {
		return Score{}, err
	}
	lookup := func(words []string) [][]float32 {
		out := make([][]float32, len(words))
		for i, w := range words {
			out[i] = vectors[index[w]]
		}
		return out
	}

	var total Score
	for i := range n {
		p, r := greedyMatch(lookup(refs[i]), lookup(cands[i]))
		total.Precision += p
		total.Recall += r
		total.F1 += f1(p, r)
	}
	return Score{
		Precision: total.Precision / float64(n),
		Recall:    total.Recall / float64(n),
		F1:        total.F1 / float64(n),
	}, nil
}

func tokens(text string) []string {
	return normalize.ContentWords(normalize.StripHTML(text))
}

// greedyMatch returns the mean best-match similarity of candidate tokens
// (precision) and of reference tokens (recall). Similarities are clamped to
// [0,1].
func greedyMatch(ref, cand [][]float32) (precision, recall float64) {
	if len(ref) == 0 || len(cand) == 0 {
		return 0, 0
	}
	bestRef := make([]float64, len(ref))
	bestCand := make([]float64, len(cand))
	for i, c := range cand {
		for j, r := range ref {
			sim := min(max(float64(embedding.Dot(c, r)), 0), 1)
			bestCand[i] = max(bestCand[i], sim)
			bestRef[j] = max(bestRef[j], sim)
		}
	}
	return mean(bestCand), mean(bestRef)
}

func f1(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}
