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

package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/datakg/storage"
)

// ArtifactRepository implements storage.ArtifactRepository for BadgerDB.
type ArtifactRepository struct {
	backend *Backend
}

var _ storage.ArtifactRepository = (*ArtifactRepository)(nil)

// NewArtifactRepository creates a new ArtifactRepository.
func NewArtifactRepository(backend *Backend) storage.ArtifactRepository {
	return &ArtifactRepository{
		backend: backend,
	}
}

// Close releases resources. ArtifactRepository has no resources to release.
func (r *ArtifactRepository) Close() error {
	return nil
}

// SaveArtifact persists metadata for a built artifact.
func (r *ArtifactRepository) SaveArtifact(ctx context.Context, meta *storage.ArtifactMeta) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if meta.BuiltAt.IsZero() {
			meta.BuiltAt = time.Now().UTC()
		}
		if err := tx.Set(makeArtifactKey(meta.Name), storage.MarshalArtifactMeta(meta)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadArtifact retrieves the metadata recorded under name.
// Returns nil, nil if no metadata exists.
func (r *ArtifactRepository) LoadArtifact(ctx context.Context, name string) (*storage.ArtifactMeta, error) {
	var meta *storage.ArtifactMeta
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeArtifactKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			meta, unmarshalErr = storage.UnmarshalArtifactMeta(val)
			return unmarshalErr
		})
	}, false)

	return meta, err
}
