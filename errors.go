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


package medimatch

import "errors"

var (
	// ErrCatalogMissing is returned when the symptom concept catalogue has not
	// been indexed into the database.
	ErrCatalogMissing = errors.New("concept catalogue not indexed")

	// ErrCatalogInconsistent is returned when stored ordinals do not form
	// a contiguous sequence.
	ErrCatalogInconsistent = errors.New("stored catalogue is inconsistent")

	// ErrSymptomsRequired is returned by Predict for blank input.
	ErrSymptomsRequired = errors.New("symptoms required")
)
