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
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/datakg"
	"github.com/poiesic/datakg/config"
)

// engineOptions are applied to every engine the commands open.
var engineOptions []datakg.Option

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "datakg",
		Usage: "Knowledge graph search over open-data catalogs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "Catalog directory (overrides paths.data_dir)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Build the graph, vector index and similarity links from raw records",
				Action: buildCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "records",
						Aliases: []string{"r"},
						Usage:   "Records file (.json, .jsonl or .yaml); defaults to paths.records",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report embedding progress on stderr",
						Value: true,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the catalog",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "strategy",
						Aliases: []string{"s"},
						Usage:   "Strategies to run: keyword, graph-pattern, vector, all or a comma separated list",
						Value:   "all",
					},
					&cli.BoolFlag{
						Name:  "refine",
						Usage: "Re-rank merged results with the text generator",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print results as JSON",
					},
				},
			},
			{
				Name:   "evaluate",
				Usage:  "Score retrieval strategies against a ground-truth file",
				Action: evaluateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "ground-truth",
						Aliases: []string{"g"},
						Usage:   "Ground-truth file (.json or .yaml); defaults to paths.ground_truth",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory for the CSV and JSON reports; defaults to paths.output",
					},
					&cli.StringFlag{
						Name:  "strategies",
						Usage: "Strategies to evaluate; defaults to evaluation.strategies",
					},
				},
			},
			{
				Name:   "enrich",
				Usage:  "Suggest missing themes from the controlled vocabulary",
				Action: enrichCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Datasets classified concurrently",
						Value: 1,
					},
				},
			},
			{
				Name:   "analyze",
				Usage:  "Report graph statistics, missing metadata and the most similar pairs",
				Action: analyzeCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top",
						Aliases: []string{"n"},
						Usage:   "Number of similar pairs to list",
						Value:   10,
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level log.Level
	switch levelStr {
	case "debug":
		level = log.DebugLevel
	case "info":
		level = log.InfoLevel
	case "warn":
		level = log.WarnLevel
	case "error":
		level = log.ErrorLevel
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	handler := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if dir := c.String("data-dir"); dir != "" {
		cfg.Paths.DataDir = dir
	}
	return cfg, nil
}

func openEngine(cfg *config.Config, opts ...datakg.Option) (*datakg.Engine, error) {
	e, err := datakg.NewEngine(cfg, append(opts, engineOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return e, nil
}
