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


package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/poiesic/datakg"
	"github.com/poiesic/datakg/config"
	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/storage"
)

var subjects = []string{
	"Air Quality", "Road Traffic Counts", "School Admissions", "Housing Starts",
	"Crime Rates", "Bus Punctuality", "Tree Canopy Cover", "Noise Complaints",
	"Hospital Waiting Times", "Library Visits", "Energy Consumption", "Recycling Rates",
	"Planning Applications", "Business Rates", "Youth Unemployment", "Cycle Hire Usage",
	"Flood Risk Areas", "Population Estimates", "Child Poverty", "Sports Participation",
}

var qualifiers = []string{
	"by Borough", "by Ward", "Monthly", "Annual Summary", "Time Series",
	"by Age Group", "Forecast", "Survey Results", "per Household", "Map",
}

var phrases = []string{
	"Figures collected from monitoring stations across the city.",
	"Counts published by the local authority every quarter.",
	"Estimates derived from the latest census and administrative records.",
	"Survey responses weighted to the resident population.",
	"Includes historical values back to the first recorded year.",
	"Values are provisional and may be revised.",
	"Spatial boundaries follow the current ward definitions.",
	"Compiled from operator returns and audited annually.",
}

var publishers = []string{
	"Greater London Authority", "Transport for London", "Department for Education",
	"Office for National Statistics", "Environment Agency", "",
}

var formats = []string{"CSV", "JSON", "XLS", "PDF", "ZIP", "geojson", ""}

var (
	count   = flag.Int("n", 5000, "number of records to generate")
	seed    = flag.Uint64("seed", 1, "random seed")
	outFile = flag.String("out", "synthetic.jsonl", "output JSON lines file")
	build   = flag.Bool("build", false, "build a catalog from the generated records")
	cfgFile = flag.String("config", "config.yaml", "configuration file used with -build")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// syntheticRecords returns an iterator over n generated records. The same
// seed always yields the same records.
func syntheticRecords(n int, seed uint64) iter.Seq[core.RawRecord] {
	return func(yield func(core.RawRecord) bool) {
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		pick := func(values []string) string { return values[rng.IntN(len(values))] }
		for i := range n {
			title := pick(subjects) + " " + pick(qualifiers)
			r := core.RawRecord{
				ID:              fmt.Sprintf("synthetic-%05d", i),
				Title:           title,
				Summary:         pick(phrases) + " " + pick(phrases),
				Publisher:       pick(publishers),
				Tags:            []string{pick(subjects)},
				MetadataCreated: fmt.Sprintf("%d-%02d-01", 2010+rng.IntN(14), 1+rng.IntN(12)),
			}
			for j := range rng.IntN(3) {
				r.Resources = append(r.Resources, core.RawResource{
					URL:    fmt.Sprintf("https://data.example.org/%s/file-%d", r.ID, j),
					Format: pick(formats),
				})
			}
			if !yield(r) {
				return
			}
		}
	}
}

// writeRecords encodes records as JSON lines.
func writeRecords(w io.Writer, records iter.Seq[core.RawRecord]) (int, error) {
	enc := json.NewEncoder(w)
	n := 0
	for r := range records {
		if err := enc.Encode(r); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func main() {
	flag.Parse()

	var written int
	err := storage.WriteFileAtomic(*outFile, func(w io.Writer) error {
		var err error
		written, err = writeRecords(w, syntheticRecords(*count, *seed))
		return err
	})
	if err != nil {
		panic(err)
	}
	slog.Info("records written", "path", *outFile, "records", written)

	if !*build {
		return
	}
	cfg, err := config.Load(*cfgFile)
	if err != nil {
		panic(err)
	}
	engine, err := datakg.NewEngine(cfg, datakg.WithProgress(os.Stderr))
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	result, err := engine.BuildFile(context.Background(), *outFile)
	if err != nil {
		panic(err)
	}
	slog.Info("catalog built", "datasets", result.Datasets, "edges", result.Edges,
		"dense", result.Matrix.Dense(), "elapsed", result.Duration)
}
