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


// Package retrieval answers free-text dataset searches.
//
// Three strategies find candidate datasets:
//   - Keyword compiles extracted facets into graph filter clauses
//   - GraphPattern runs a generated, relevance-ranked pattern query
//   - Vector embeds the query and searches the vector index
//
// A Retriever runs the selected strategies, merges their rows into
// AggregatedResults and optionally refines them with a text generator.
// Strategy failures never fail a search: they are logged and returned as
// Warnings next to whatever results the other strategies produced.
package retrieval
