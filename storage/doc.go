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


// Package storage provides the storage abstraction layer for docsearch.
//
// This package defines repository interfaces that decouple storage
// implementation from retrieval logic, so different backends (BadgerDB,
// in-memory, etc.) can be used interchangeably.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return these interfaces rather than
// concrete types:
//
//	repo, err := badger.NewPassageRepository(backend)  // returns storage.PassageRepository
//
// This keeps consumers decoupled from BadgerDB specifics and lets tests swap
// in alternative implementations without modification.
//
// # Architecture
//
//   - PassageRepository: passage records, section adjacency, file index
//   - LexicalIndexRepository: per-term posting lists for BM25
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines. Index rebuilds write a new generation and
// must not be interleaved with queries against the same snapshot.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support.
package storage
