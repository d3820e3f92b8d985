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


package inference

import "errors"

var (
	// ErrInvalidConfig is returned when engine tunables are out of range.
	ErrInvalidConfig = errors.New("invalid inference config")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrClassifierRequired is returned when the provider has no entailment classifier.
	ErrClassifierRequired = errors.New("entailment classifier required")

	// ErrClassifierPanic is reported when the entailment classifier panics.
	ErrClassifierPanic = errors.New("entailment classifier panicked")

	// ErrLookupFailed is returned when the concept-only lookup cannot search the index.
	ErrLookupFailed = errors.New("concept lookup failed")
)
