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


package indexing

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when a Backoff allows no attempts.
	ErrInvalidMaxAttempts = errors.New("retry attempts must be greater than 0")

	// ErrRepositoryRequired is returned when a required repository is nil.
	ErrRepositoryRequired = errors.New("repository is required")

	// ErrEmbedderRequired is returned when the embedder is nil.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrEmbeddingMismatch is returned when the embedder returns the wrong
	// number of vectors or vectors of inconsistent dimension.
	ErrEmbeddingMismatch = errors.New("embedding mismatch")

	// ErrCatalogNotFound is returned when reindexing a catalogue that holds no concepts.
	ErrCatalogNotFound = errors.New("catalogue not found")
)
