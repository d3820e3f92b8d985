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


// Package inference turns a normalized symptom description into ranked
// diagnosis predictions and a triage level.
//
// An Engine runs four stages per call:
//   - Retrieval: hybrid vector and lexical candidates (package search)
//   - Confirmation: lexical short-circuit or entailment probability and margin
//   - Ranking: order by entailment, drop weak retrieval matches, keep the top N
//   - Triage: rule-based urgency over the text and predicted labels
//
// Engines are built once over a read-only catalogue and are safe for
// concurrent use. Release must be called to stop the classifier worker pool.
package inference
