package ingestion

import (
	"path/filepath"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/vectorindex"
)

// Artifact names recorded in the artifact repository.
const (
	ArtifactGraph      = "graph"
	ArtifactIndex      = "vectors"
	ArtifactSimilarity = "similarity"
)

// Layout names the files of a catalog inside its data directory.
type Layout struct {
	Dir string
}

func (l Layout) GraphPath() string      { return filepath.Join(l.Dir, "graph.ttl") }
func (l Layout) IndexPath() string      { return filepath.Join(l.Dir, "vectors.idx") }
func (l Layout) SimilarityPath() string { return filepath.Join(l.Dir, "similarity.mat") }
func (l Layout) CachePath() string      { return filepath.Join(l.Dir, "cache") }
func (l Layout) LockPath() string       { return filepath.Join(l.Dir, "build.lock") }

// Fingerprint identifies the embedded content of datasets under model.
func Fingerprint(model string, datasets []core.Dataset) uint64 {
	ids, texts := embeddingInputs(datasets)
	return vectorindex.Fingerprint(model, ids, texts)
}

func embeddingInputs(datasets []core.Dataset) (ids, texts []string) {
	ids = make([]string, len(datasets))
	texts = make([]string, len(datasets))
	for i := range datasets {
		ids[i] = datasets[i].ID
		texts[i] = datasets[i].EmbeddingText()
	}
	return ids, texts
}
