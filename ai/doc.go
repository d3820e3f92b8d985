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


// Package ai provides abstractions for the AI services used by medimatch.
//
// This package defines interfaces for text embeddings and entailment
// (natural language inference) judgments. The inference engine depends on
// these abstractions rather than on any concrete model runtime.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//
//   - Embedder: Generates L2-normalized vector embeddings from text
//   - EntailmentClassifier: Scores a (premise, hypothesis) pair as
//     contradiction, neutral or entailment
//   - AIProvider: Aggregates AI services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible HTTP APIs (embeddings endpoint and a chat
//     model prompted to emit NLI probabilities as JSON)
//   - ai/onnx: Local cross-encoder NLI and sentence embedding models run
//     through ONNX Runtime
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, etc.) return
// INTERFACE types to enforce abstraction and prevent accidental coupling to
// concrete implementations.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder, mock.NewMockClassifier)
// return CONCRETE types to enable test assertions and behavior injection.
//
//	mockEmbed := mock.NewMockEmbedder()  // returns *mock.MockEmbedder
//	count := mockEmbed.CallCount()       // test assertion
//
// # Usage Example
//
//	config := ai.DefaultConfig()
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vec, err := provider.Embedder().EmbedText(ctx, "chest pain and sweating")
//	judgment, err := provider.Classifier().Entail(ctx,
//	    "chest pain and sweating", "The patient has Angina.")
//	fmt.Println(judgment.Entailment, judgment.Margin())
package ai
