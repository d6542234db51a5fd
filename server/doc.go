// Package server exposes the retrieval engine over a small HTTP API.
//
// Two endpoints are served: POST /query runs a retrieval query and returns
// context windows with citations, per-stage status, and an optional trace;
// GET /healthz reports liveness. Requests may override parts of the base
// retrieval configuration (result count, neighborhood, reranking, file and
// page filters) per query.
package server
