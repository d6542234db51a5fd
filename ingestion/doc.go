// Package ingestion builds the retrieval index from parsed document sections.
//
// The Pipeline type manages the indexing workflow for sections, including:
//   - Chunking section text into overlapping token windows
//   - Generating embeddings in batches over a worker pool
//   - Writing passages, adjacency indexes, and term postings to storage
//
// Embedding is performed concurrently using a worker pool to maximize
// throughput. Embedding failures are logged and leave the affected passages
// lexical-only; they never fail the indexing operation.
package ingestion
