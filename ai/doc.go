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


// Package ai defines the capability interfaces the retrieval engine consumes:
// text embedding for dense search and pairwise relevance scoring for the
// optional rerank stage.
//
// The interfaces keep retrieval logic independent of any model backend.
// Production code uses the openai subpackage against OpenAI-compatible local
// services; tests use the deterministic doubles in the mock subpackage.
//
//	// Production usage
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "grid frequency")
//	score, err := provider.RelevanceScorer().Score(ctx, "grid frequency", passageText)
//
//	// Testing usage with mocks
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test text")
//
// # Architecture Benefits
//
//   - Testability: Retrieval logic can be tested without external AI services
//   - Flexibility: Model backends can be swapped without changing retrieval logic
//   - Maintainability: Clear boundaries between AI services and domain logic
package ai
