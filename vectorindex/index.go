// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package vectorindex

import (
	"cmp"
	"encoding/binary"
	"fmt"
	"slices"
	"sync"

	"github.com/go-crypt/x/blake2b"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/embedding"
)

// Hit is one search result.
type Hit struct {
	ID       string
	Distance float32
}

// Similarity converts the distance back to cosine similarity.
func (h Hit) Similarity() float32 { return 1 - h.Distance }

// Index is a flat cosine index. It is safe for concurrent use; Build
// replaces the contents in one step so searches never see a partial index.
type Index struct {
	mu          sync.RWMutex
	model       string
	fingerprint uint64
	dim         int
	ids         []string
	rows        []float32
}

// New creates an empty index for vectors of the given model.
func New(model string) *Index {
	return &Index{model: model}
}

// Model returns the embedding model the index was built for.
func (ix *Index) Model() string { return ix.model }

// Len returns the number of indexed vectors.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.ids)
}

// Dim returns the vector dimension, zero for an empty index.
func (ix *Index) Dim() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dim
}

// Fingerprint returns the content fingerprint recorded at build time.
func (ix *Index) Fingerprint() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.fingerprint
}

// IDs returns the indexed dataset ids in build order.
func (ix *Index) IDs() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return slices.Clone(ix.ids)
}

// Build replaces the index contents. vectors[i] is the embedding of ids[i].
func (ix *Index) Build(ids []string, vectors [][]float32, fingerprint uint64) error {
	if len(ids) != len(vectors) {
		return core.NewError(core.ErrIndex, "build index",
			fmt.Errorf("%w: %d ids, %d vectors", ErrLengthMismatch, len(ids), len(vectors)))
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	rows := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return core.NewError(core.ErrIndex, "build index",
				fmt.Errorf("%w: vector %d has %d, want %d", ErrDimensionMismatch, i, len(v), dim))
		}
		rows = append(rows, embedding.NormalizeVector(v)...)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.ids = slices.Clone(ids)
	ix.rows = rows
	ix.dim = dim
	ix.fingerprint = fingerprint
	return nil
}

// Search returns up to k hits ordered by ascending distance; equal
// distances keep build order. An empty index yields no hits and no error.
// A query of the wrong dimension is an index error.
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.ids) == 0 || k <= 0 {
		return []Hit{}, nil
	}
	if len(query) != ix.dim {
		return nil, core.NewError(core.ErrIndex, "search index",
			fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), ix.dim))
	}

	q := embedding.NormalizeVector(query)
	hits := make([]Hit, len(ix.ids))
	for i, id := range ix.ids {
		sim := embedding.Dot(q, ix.rows[i*ix.dim:(i+1)*ix.dim])
		hits[i] = Hit{ID: id, Distance: min(max(1-sim, 0), 2)}
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return hits[:min(k, len(hits))], nil
}

// Fingerprint identifies the content an index is built from: the model and
// each dataset id with the text that was embedded for it.
func Fingerprint(model string, ids, texts []string) uint64 {
	h, _ := blake2b.New(8, nil)
	var lenBuf [binary.MaxVarintLen64]byte
	write := func(s string) {
		n := binary.PutUvarint(lenBuf[:], uint64(len(s)))
		h.Write(lenBuf[:n])
		h.Write([]byte(s))
	}
	write(model)
	for i, id := range ids {
		write(id)
		if i < len(texts) {
			write(texts[i])
		}
	}
	return binary.LittleEndian.Uint64(h.Sum(nil))
}
