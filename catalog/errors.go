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


package catalog

import "errors"

var (
	// ErrCatalogEmpty is returned when a store is built from zero concepts.
	ErrCatalogEmpty = errors.New("concept catalogue is empty")

	// ErrIndexMissing is returned when the vector index cannot be built,
	// usually because a concept carries no embedding.
	ErrIndexMissing = errors.New("vector index missing")

	// ErrDimensionMismatch is returned when a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrMalformedRecord is returned when a catalogue line cannot be decoded.
	ErrMalformedRecord = errors.New("malformed catalogue record")
)
