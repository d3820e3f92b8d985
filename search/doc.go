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


// Package search retrieves candidate concepts for a symptom description.
//
// The Retriever merges two signals:
//   - Vector search over the concept embeddings (coarse top-k)
//   - Boundary-aware lexical matching of concept labels and synonyms
//
// Every surviving candidate is then re-scored with a precise cosine
// similarity between the query and the concept's "label. description" text,
// and ordered by that similarity plus the lexical boost.
package search
