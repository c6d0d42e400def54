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
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/datakg"
	"github.com/poiesic/datakg/config"
)

func init() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		panic(err)
	}
	engine, err := datakg.NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	query := "Can you show me datasets about air pollution?"
	if len(os.Args) > 1 {
		query = strings.Join(os.Args[1:], " ")
	}

	resp, err := engine.Search(context.Background(), query, nil)
	if err != nil {
		panic(err)
	}

	for _, w := range resp.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	fmt.Printf("Found %d datasets\n", len(resp.Results))
	for i, r := range resp.Results {
		fmt.Printf("%d: '%s' (%s)[%d resources]\n", i, r.Title, r.ID, len(r.Resources))
	}
	for kind, results := range resp.ByStrategy {
		fmt.Printf("  %s: %d\n", kind, len(results))
	}
}
