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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidConcept indicates a Concept failed validation.
	ErrInvalidConcept = errors.New("invalid concept")

	// ErrEmptyConceptLabel indicates the concept Label field is empty.
	ErrEmptyConceptLabel = errors.New("concept label cannot be empty")

	// ErrInvalidTriageRule indicates a TriageRule failed validation.
	ErrInvalidTriageRule = errors.New("invalid triage rule")

	// ErrEmptyTriageLevel indicates a triage rule has no level.
	ErrEmptyTriageLevel = errors.New("triage level cannot be empty")

	// ErrNoTriageConditions indicates a triage rule has no conditions.
	ErrNoTriageConditions = errors.New("triage rule needs at least one condition")

	// ErrCorruptRecord indicates an encoded record has an impossible length.
	ErrCorruptRecord = errors.New("corrupt record")
)
