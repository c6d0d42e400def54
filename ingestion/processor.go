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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/graph"
	"github.com/poiesic/datakg/normalize"
	"github.com/poiesic/datakg/similarity"
	"github.com/poiesic/datakg/vectorindex"
)

// build carries state between the stages of one run.
type build struct {
	records  []core.RawRecord
	datasets []core.Dataset
	ids      []string
	texts    []string
	vectors  [][]float32
	result   *Result
}

// stage is one step of a build. Stages run in order and the first error
// aborts the build.
type stage interface {
	name() string
	run(ctx context.Context, b *build) error
}

type normalizeStage struct {
	normalizer *normalize.Normalizer
	logger     *slog.Logger
}

func (normalizeStage) name() string { return "normalize" }

func (s normalizeStage) run(_ context.Context, b *build) error {
	datasets, issues := s.normalizer.NormalizeAll(b.records)
	b.result.Issues = append(b.result.Issues, issues...)

	b.datasets = datasets[:0]
	for i := range datasets {
		if err := core.ValidateDataset(&datasets[i]); err != nil {
			s.logger.Warn("skipping invalid dataset", "dataset", datasets[i].ID, "err", err)
			b.result.Issues = append(b.result.Issues, core.NewError(core.ErrInput, "validate dataset", err))
			b.result.Skipped++
			continue
		}
		b.datasets = append(b.datasets, datasets[i])
	}
	if len(b.datasets) == 0 {
		return ErrNoRecords
	}
	b.result.Datasets = len(b.datasets)
	s.logger.Info("records normalized", "records", len(b.records), "datasets", len(b.datasets), "issues", len(issues))
	return nil
}

type graphStage struct {
	opts   []graph.Option
	logger *slog.Logger
}

func (graphStage) name() string { return "graph" }

func (s graphStage) run(_ context.Context, b *build) error {
	store := graph.NewStore(s.opts...)
	for i := range b.datasets {
		if err := store.AddDataset(&b.datasets[i]); err != nil {
			return fmt.Errorf("add dataset %s: %w", b.datasets[i].ID, err)
		}
	}
	b.result.Graph = store
	s.logger.Info("graph built", "datasets", len(b.datasets), "triples", store.Len())
	return nil
}

type indexStage struct {
	model  string
	path   string
	logger *slog.Logger
}

func (indexStage) name() string { return "index" }

func (s indexStage) run(ctx context.Context, b *build) error {
	fingerprint := vectorindex.Fingerprint(s.model, b.ids, b.texts)
	ix, rebuilt, err := vectorindex.Open(ctx, s.path, s.model, fingerprint,
		func(context.Context) ([]string, [][]float32, error) {
			return b.ids, b.vectors, nil
		})
	if err != nil {
		return err
	}
	b.result.Index = ix
	b.result.Fingerprint = fingerprint
	b.result.IndexRebuilt = rebuilt
	s.logger.Info("vector index ready", "vectors", ix.Len(), "rebuilt", rebuilt)
	return nil
}

type linkStage struct {
	linker *similarity.Linker
	path   string
	logger *slog.Logger
}

func (linkStage) name() string { return "link" }

func (s linkStage) run(ctx context.Context, b *build) error {
	m, err := s.linker.Compute(ctx, b.ids, b.vectors)
	if err != nil {
		return err
	}
	if err := m.Save(ctx, s.path); err != nil {
		return fmt.Errorf("save similarity matrix: %w", err)
	}
	edges, err := s.linker.Link(ctx, b.result.Graph, m)
	if err != nil {
		return err
	}
	b.result.Matrix = m
	b.result.Edges = len(edges)
	s.logger.Info("similarity linked", "pairs", m.PairCount(), "edges", len(edges),
		"threshold", s.linker.Threshold(), "exact", m.Dense())
	return nil
}

type saveStage struct {
	path string
}

func (saveStage) name() string { return "save" }

func (s saveStage) run(ctx context.Context, b *build) error {
	return b.result.Graph.SaveFile(ctx, s.path)
}
