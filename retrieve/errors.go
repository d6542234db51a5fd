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

package retrieve

import "errors"

var (
	// ErrPassageRepositoryRequired is returned when a passage repository is not provided.
	ErrPassageRepositoryRequired = errors.New("passage repository required")

	// ErrLexicalRepositoryRequired is returned when a lexical index repository is not provided.
	ErrLexicalRepositoryRequired = errors.New("lexical index repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrIndexNotLoaded is returned by Retrieve before the first Reload.
	ErrIndexNotLoaded = errors.New("index not loaded")

	// ErrInvalidTopK is returned for non-positive candidate pool sizes.
	ErrInvalidTopK = errors.New("candidate pool size must be positive")

	// ErrInvalidRRFK is returned for a non-positive fusion constant.
	ErrInvalidRRFK = errors.New("rrf constant must be positive")

	// ErrInvalidNeighborhood is returned for a negative expansion radius.
	ErrInvalidNeighborhood = errors.New("neighborhood radius must not be negative")

	// ErrInvalidFinalK is returned for a non-positive result count.
	ErrInvalidFinalK = errors.New("final result count must be positive")

	// ErrInvalidRerankTopK is returned for a non-positive rerank budget.
	ErrInvalidRerankTopK = errors.New("rerank budget must be positive")

	// ErrInvalidMinScore is returned when the rerank floor is outside [0, 1].
	ErrInvalidMinScore = errors.New("rerank floor must be between 0 and 1")
)
