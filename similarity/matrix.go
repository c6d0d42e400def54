package similarity

import (
	"cmp"
	"iter"
	"slices"
)

// Pair is one compared dataset pair, I < J by position in Matrix.IDs.
type Pair struct {
	I, J  int
	Score float32
}

// Edge is a similarity link between two datasets. A precedes B in the
// order the matrix was built with.
type Edge struct {
	A, B  string
	Score float32
}

// Matrix holds the pairwise cosine scores of a set of datasets together with
// the dataset order it indexes. A dense matrix covers every pair; a sparse
// one only the candidate pairs an approximate pass compared. Scores are
// stored once per unordered pair, so Score(i, j) == Score(j, i).
type Matrix struct {
	IDs []string

	dense bool
	// upper triangle, row-major, diagonal excluded; dense only
	tri []float32
	// sorted by (I, J); sparse only
	pairs []Pair
}

func newDense(ids []string) *Matrix {
	n := len(ids)
	return &Matrix{IDs: ids, dense: true, tri: make([]float32, n*(n-1)/2)}
}

func newSparse(ids []string, pairs []Pair) *Matrix {
	slices.SortFunc(pairs, comparePairs)
	return &Matrix{IDs: ids, pairs: pairs}
}

// Len returns the number of datasets.
func (m *Matrix) Len() int { return len(m.IDs) }

// Dense reports whether every pair was compared.
func (m *Matrix) Dense() bool { return m.dense }

// PairCount returns the number of compared pairs.
func (m *Matrix) PairCount() int {
	if m.dense {
		return len(m.tri)
	}
	return len(m.pairs)
}

// Score returns the similarity of datasets i and j. The second result is
// false when the pair was not compared or an index is out of range.
func (m *Matrix) Score(i, j int) (float32, bool) {
	n := len(m.IDs)
	if i < 0 || j < 0 || i >= n || j >= n {
		return 0, false
	}
	if i == j {
		return 1, true
	}
	if i > j {
		i, j = j, i
	}
	if m.dense {
		return m.tri[m.offset(i, j)], true
	}
	k, ok := slices.BinarySearchFunc(m.pairs, Pair{I: i, J: j}, comparePairs)
	if !ok {
		return 0, false
	}
	return m.pairs[k].Score, true
}

func (m *Matrix) offset(i, j int) int {
	n := len(m.IDs)
	return i*n - i*(i+1)/2 + (j - i - 1)
}

func (m *Matrix) set(i, j int, score float32) {
	m.tri[m.offset(i, j)] = score
}

// Pairs yields every compared pair in (I, J) order.
func (m *Matrix) Pairs() iter.Seq[Pair] {
	return func(yield func(Pair) bool) {
		if !m.dense {
			for _, p := range m.pairs {
				if !yield(p) {
					return
				}
			}
			return
		}
		n := len(m.IDs)
		k := 0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if !yield(Pair{I: i, J: j, Score: m.tri[k]}) {
					return
				}
				k++
			}
		}
	}
}

// Edges returns one edge per pair scoring strictly above threshold, in pair
// order. Raising the threshold only ever removes edges.
func (m *Matrix) Edges(threshold float32) []Edge {
	var edges []Edge
	for p := range m.Pairs() {
		if p.Score > threshold {
			edges = append(edges, m.edge(p))
		}
	}
	return edges
}

// TopPairs returns the n highest scoring pairs, best first.
func (m *Matrix) TopPairs(n int) []Edge {
	if n <= 0 {
		return nil
	}
	var top []Pair
	for p := range m.Pairs() {
		top = append(top, p)
	}
	slices.SortStableFunc(top, func(a, b Pair) int {
		return cmp.Compare(b.Score, a.Score)
	})
	top = top[:min(n, len(top))]
	edges := make([]Edge, len(top))
	for i, p := range top {
		edges[i] = m.edge(p)
	}
	return edges
}

func (m *Matrix) edge(p Pair) Edge {
	return Edge{A: m.IDs[p.I], B: m.IDs[p.J], Score: p.Score}
}

func comparePairs(a, b Pair) int {
	if c := cmp.Compare(a.I, b.I); c != 0 {
		return c
	}
	return cmp.Compare(a.J, b.J)
}
