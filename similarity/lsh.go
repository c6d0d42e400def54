package similarity

import (
	"context"
	"math/rand/v2"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/datakg/embedding"
)

// approximate compares only pairs that share a bucket in at least one LSH
// table. Each table hashes a vector to the sign pattern of its projections
// onto random hyperplanes, so vectors at a small angle usually collide.
// Compared pairs get exact cosine scores.
func (l *Linker) approximate(ctx context.Context, ids []string, arena []float32, dim int) (*Matrix, error) {
	n := len(ids)
	planes := l.hyperplanes(dim)
	bits := max(min(l.config.Planes, 64), 1)

	candidates := make(map[uint64]struct{})
	for t := 0; t < max(l.config.Tables, 1); t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		buckets := make(map[uint64][]int)
		table := planes[t*bits : (t+1)*bits]
		for i := 0; i < n; i++ {
			sig := signature(arena[i*dim:(i+1)*dim], table)
			buckets[sig] = append(buckets[sig], i)
		}
		for _, members := range buckets {
			for a := 0; a < len(members); a++ {
				for b := a + 1; b < len(members); b++ {
					candidates[uint64(members[a])<<32|uint64(members[b])] = struct{}{}
				}
			}
		}
	}

	pairs := make([]Pair, 0, len(candidates))
	for key := range candidates {
		pairs = append(pairs, Pair{I: int(key >> 32), J: int(key & 0xffffffff)})
	}
	slices.SortFunc(pairs, comparePairs)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.config.Workers)
	chunk := max(l.config.BlockSize*l.config.BlockSize, 1)
	for start := 0; start < len(pairs); start += chunk {
		part := pairs[start:min(start+chunk, len(pairs))]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for k := range part {
				i, j := part[k].I, part[k].J
				part[k].Score = clamp(embedding.Dot(arena[i*dim:(i+1)*dim], arena[j*dim:(j+1)*dim]))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	l.logger.Debug("lsh candidate pairs", "pairs", len(pairs), "exhaustive", n*(n-1)/2)
	return newSparse(ids, pairs), nil
}

// hyperplanes draws Tables*Planes gaussian normals from the seeded source.
func (l *Linker) hyperplanes(dim int) [][]float32 {
	rng := rand.New(rand.NewPCG(l.config.Seed, l.config.Seed^0x9e3779b97f4a7c15))
	count := max(l.config.Tables, 1) * max(min(l.config.Planes, 64), 1)
	planes := make([][]float32, count)
	for p := range planes {
		plane := make([]float32, dim)
		for d := range plane {
			plane[d] = float32(rng.NormFloat64())
		}
		planes[p] = plane
	}
	return planes
}

func signature(v []float32, planes [][]float32) uint64 {
	var sig uint64
	for b, plane := range planes {
		if embedding.Dot(v, plane) >= 0 {
			sig |= 1 << uint(b)
		}
	}
	return sig
}
