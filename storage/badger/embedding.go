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

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/datakg/core"
	"github.com/poiesic/datakg/storage"
)

// EmbeddingRepository implements storage.EmbeddingCache for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingCache = (*EmbeddingRepository)(nil)

// NewEmbeddingCache creates a new embedding cache over backend.
func NewEmbeddingCache(backend *Backend) (storage.EmbeddingCache, error) {
	return newEmbeddingRepository(backend)
}

func newEmbeddingRepository(backend *Backend) (*EmbeddingRepository, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	return &EmbeddingRepository{backend: backend}, nil
}

// Close releases resources. EmbeddingRepository has no resources to release.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// GetEmbeddings returns the cached vectors for keys, omitting misses.
func (r *EmbeddingRepository) GetEmbeddings(ctx context.Context, model string, keys ...core.ID) (map[core.ID][]float32, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	found := make(map[core.ID][]float32, len(keys))
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := tx.Get(makeEmbeddingKey(model, id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				vec, err := storage.UnmarshalVector(val)
				if err != nil {
					return err
				}
				found[id] = vec
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// PutEmbeddings stores vectors under model. Large batches are split across
// transactions when badger reports the transaction is too big.
func (r *EmbeddingRepository) PutEmbeddings(ctx context.Context, model string, vectors map[core.ID][]float32) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := r.backend.db.NewTransaction(true)
	defer func() { tx.Discard() }()
	for id, vec := range vectors {
		if err := ctx.Err(); err != nil {
			return err
		}
		key, value := makeEmbeddingKey(model, id), storage.MarshalVector(vec)
		err := tx.Set(key, value)
		if errors.Is(err, badger.ErrTxnTooBig) {
			if err := tx.Commit(); err != nil {
				return err
			}
			tx = r.backend.db.NewTransaction(true)
			err = tx.Set(key, value)
		}
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Count returns the number of vectors cached for model.
func (r *EmbeddingRepository) Count(model string) (int, error) {
	return r.backend.CountPrefix(string(makeEmbeddingModelPrefix(model)))
}
