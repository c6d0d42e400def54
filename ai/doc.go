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


// Package ai provides abstractions for the AI services used by datakg.
//
// This package defines interfaces for text embeddings and text generation.
// Catalog building, retrieval and evaluation depend on these abstractions
// rather than on a concrete model server.
//
// # Interfaces
//
//   - Embedder: Generates vector embeddings from text
//   - Generator: Streams generated text for a prompt
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible APIs through langchaingo
//   - ai/ollama: the native Ollama API
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, ollama.NewGenerator, etc.) return
// INTERFACE types to enforce abstraction. Test utility constructors
// (mock.NewMockEmbedder, mock.NewMockGenerator) return CONCRETE types so tests
// can inject behavior and assert on call counts.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//	mockGen := mock.NewMockGenerator("PREFIX ")  // returns *mock.MockGenerator
//
// # Streaming
//
// Generator.Generate returns an iter.Seq2[string, error]. Fragments arrive as
// the model emits them; Collect concatenates them and can report partial
// text to a renderer. Callers that need a query or a facet set must wait for
// the full text.
//
//	text, err := ai.Collect(gen.Generate(ctx, prompt), func(partial string) {
//	    fmt.Fprintf(os.Stderr, "\r%d chars", len(partial))
//	})
package ai
