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

// Package retrieve implements hybrid retrieval over an indexed corpus.
//
// A query is ranked twice in parallel: a BM25 pass over the term postings and
// a cosine pass over the embedding matrix. The two candidate pools are merged
// with reciprocal rank fusion, fused anchors are expanded into context windows
// of adjacent passages within their section, and an optional LLM reranking
// stage reorders the windows.
//
// The engine ranks against an immutable Snapshot built from the repositories;
// Reload builds a fresh snapshot and swaps it atomically, so queries never
// observe a half-built index.
//
// Retrieval degrades rather than fails: an empty dense index or an embedder
// outage produces lexical-only results with the degradation recorded in the
// result status, and a broken reranker falls back to fusion order.
package retrieve
