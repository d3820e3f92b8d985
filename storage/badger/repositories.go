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
	"github.com/poiesic/medimatch/storage"
)

// OpenRepositories opens the concept and catalogue info repositories stored
// at path. Caller must close the backend when done.
func OpenRepositories(path string, opts ...Option) (storage.ConceptRepository, storage.CatalogInfoRepository, *Backend, error) {
	backend, err := OpenBackend(path, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	return newRepositories(backend)
}

// NewMemoryRepositories creates in-memory concept and catalogue info
// repositories for testing.
// Caller must close the backend when done.
func NewMemoryRepositories() (storage.ConceptRepository, storage.CatalogInfoRepository, *Backend, error) {
	backend, err := OpenBackend("", WithInMemory())
	if err != nil {
		return nil, nil, nil, err
	}
	return newRepositories(backend)
}

func newRepositories(backend *Backend) (storage.ConceptRepository, storage.CatalogInfoRepository, *Backend, error) {
	conceptRepo, err := NewConceptRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, err
	}
	return conceptRepo, NewCatalogInfoRepository(backend), backend, nil
}
