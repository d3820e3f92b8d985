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


// Package storage provides the persistence layer for concept catalogues.
//
// A database holds any number of named catalogues (for example "concepts"
// and "diseases"). Each catalogue is an ordered list of concepts with their
// embeddings, plus a CatalogInfo record describing how it was built.
//
// # Architecture
//
//   - ConceptRepository: concepts of a catalogue, keyed by ordinal
//   - CatalogInfoRepository: per-catalogue build metadata
//   - Repository: transaction support and lifecycle shared by both
//
// # Usage
//
// Open a database directory:
//
//	concepts, infos, backend, err := badger.OpenRepositories("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// Use in tests with in-memory storage:
//
//	concepts, infos, backend, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support. Pass context.Background() for operations
// without specific timeout requirements.
package storage
