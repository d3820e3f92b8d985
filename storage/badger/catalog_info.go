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
	"github.com/poiesic/medimatch/core"
	"github.com/poiesic/medimatch/storage"
)

// CatalogInfoRepository implements storage.CatalogInfoRepository for BadgerDB.
type CatalogInfoRepository struct {
	backend *Backend
}

var _ storage.CatalogInfoRepository = (*CatalogInfoRepository)(nil)

// NewCatalogInfoRepository creates a new CatalogInfoRepository.
func NewCatalogInfoRepository(backend *Backend) *CatalogInfoRepository {
	return &CatalogInfoRepository{
		backend: backend,
	}
}

// SaveCatalogInfo persists the metadata of a catalogue.
func (r *CatalogInfoRepository) SaveCatalogInfo(ctx context.Context, info *core.CatalogInfo) error {
	if err := validateCatalog(info.Name); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		info.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeCatalogInfoKey(info.Name), storage.MarshalCatalogInfo(info)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadCatalogInfo retrieves the metadata of a catalogue.
// Returns nil, nil if none was saved.
func (r *CatalogInfoRepository) LoadCatalogInfo(ctx context.Context, name string) (*core.CatalogInfo, error) {
	if err := validateCatalog(name); err != nil {
		return nil, err
	}
	var info *core.CatalogInfo
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeCatalogInfoKey(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			info, unmarshalErr = storage.UnmarshalCatalogInfo(val)
			return unmarshalErr
		})
	}, false)

	return info, err
}

// ListCatalogs returns the metadata of every catalogue ordered by name.
func (r *CatalogInfoRepository) ListCatalogs(ctx context.Context) ([]*core.CatalogInfo, error) {
	var infos []*core.CatalogInfo
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(catalogInfoPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				info, err := storage.UnmarshalCatalogInfo(val)
				if err != nil {
					return err
				}
				infos = append(infos, info)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return infos, err
}
