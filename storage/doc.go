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

// Package storage provides the persistence layer for datakg build artifacts.
//
// This package defines repository interfaces that decouple storage implementation
// from the build pipeline. The graph and vector index live in their own files;
// storage keeps what is expensive to recompute or needed to decide whether a
// file is stale:
//
//   - EmbeddingCache: vectors keyed by content hash and model
//   - ArtifactRepository: fingerprints and counts of built artifacts
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return interfaces:
//
//	cache, err := badger.NewEmbeddingCache(backend)  // returns storage.EmbeddingCache
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Files
//
// WriteFileAtomic and AcquireLock implement the exclusive, all-or-nothing
// replacement used for every artifact file: output is written to a temporary
// file and renamed into place, and a lock file keeps two builds from writing
// the same directory.
//
// # Serialization
//
// Values are encoded with mus-go primitive serializers. Slice helpers such as
// MarshalFloats and UnmarshalStrings follow the mus convention of writing into
// a pre-sized buffer and reporting the number of bytes consumed, so callers
// can compose them into larger records.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
