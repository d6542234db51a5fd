package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/poiesic/docsearch/core"
	"github.com/poiesic/docsearch/retrieve"
)

type queryRequest struct {
	Query string `json:"query"`

	// Optional overrides of the server's base retrieval configuration.
	FinalK       *int  `json:"final_k,omitempty"`
	Neighborhood *int  `json:"neighborhood,omitempty"`
	Rerank       *bool `json:"rerank,omitempty"`

	// Optional corpus filters.
	Files  []string `json:"files,omitempty"`
	PageLo int      `json:"page_lo,omitempty"`
	PageHi int      `json:"page_hi,omitempty"`

	// IncludeTrace adds per-stage ids and timings to the response.
	IncludeTrace bool `json:"trace,omitempty"`
}

type passagePayload struct {
	Id          core.ID  `json:"id"`
	Text        string   `json:"text"`
	File        string   `json:"file"`
	HeadingPath []string `json:"heading_path,omitempty"`
	Page        int      `json:"page,omitempty"`
}

type windowPayload struct {
	AnchorId  core.ID          `json:"anchor_id"`
	FusedRank int              `json:"fused_rank"`
	Citation  string           `json:"citation"`
	Passages  []passagePayload `json:"passages"`
}

type queryResponse struct {
	Windows []windowPayload `json:"windows"`
	Status  retrieve.Status `json:"status"`
	Trace   *retrieve.Trace `json:"trace,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding request: %w", err))
		return
	}

	cfg := s.retrieval
	if req.FinalK != nil {
		cfg.FinalK = *req.FinalK
	}
	if req.Neighborhood != nil {
		cfg.Neighborhood = *req.Neighborhood
	}
	if req.Rerank != nil {
		cfg.Rerank.Enabled = *req.Rerank
	}
	if len(req.Files) > 0 || req.PageLo > 0 || req.PageHi > 0 {
		cfg.Filter = &retrieve.Filter{
			Files:  req.Files,
			PageLo: req.PageLo,
			PageHi: req.PageHi,
		}
	}

	result, err := s.engine.Retrieve(r.Context(), req.Query, cfg)
	if err != nil {
		switch {
		case errors.Is(err, retrieve.ErrIndexNotLoaded):
			writeError(w, http.StatusServiceUnavailable, err)
		case errors.Is(err, retrieve.ErrInvalidTopK),
			errors.Is(err, retrieve.ErrInvalidRRFK),
			errors.Is(err, retrieve.ErrInvalidNeighborhood),
			errors.Is(err, retrieve.ErrInvalidFinalK),
			errors.Is(err, retrieve.ErrInvalidRerankTopK),
			errors.Is(err, retrieve.ErrInvalidMinScore):
			writeError(w, http.StatusBadRequest, err)
		default:
			s.logger.Error("query failed", "err", err)
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	resp := queryResponse{
		Windows: make([]windowPayload, 0, len(result.Windows)),
		Status:  result.Status,
	}
	if req.IncludeTrace {
		resp.Trace = result.Trace
	}

	for _, window := range result.Windows {
		payload := windowPayload{
			AnchorId:  window.AnchorId,
			FusedRank: window.FusedRank,
			Passages:  make([]passagePayload, 0, len(window.Passages)),
		}
		for _, passage := range window.Passages {
			payload.Passages = append(payload.Passages, passagePayload{
				Id:          passage.Id,
				Text:        passage.Text,
				File:        passage.File,
				HeadingPath: passage.HeadingPath,
				Page:        passage.Page,
			})
			if passage.Id == window.AnchorId {
				payload.Citation = citationFor(passage)
			}
		}
		resp.Windows = append(resp.Windows, payload)
	}

	writeJSON(w, http.StatusOK, resp)
}

// citationFor formats a human-readable source reference for a passage.
func citationFor(passage *core.Passage) string {
	citation := passage.File
	if len(passage.HeadingPath) > 0 {
		citation += " > " + strings.Join(passage.HeadingPath, " > ")
	}
	if passage.Page > 0 {
		citation += fmt.Sprintf(" (p.%d)", passage.Page)
	}
	return citation
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
