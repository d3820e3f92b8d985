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


// Package triage assigns an urgency level to a symptom description.
//
// Rules are evaluated in declared order and the first satisfied condition
// wins. The raw input text is checked first, with every symptom expanded to
// its synonyms and matched as a whole phrase. Only when no rule matches the
// text are the predicted labels consulted, by exact string equality.
package triage
