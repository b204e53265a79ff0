package web

import (
	"net/http"
)

// handleEdit replaces the flagged cell with a new value.
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}
	ref, value, err := req.parse()
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	rep, err := s.session.Edit(ctx, ref, value)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, s.newReportResponse(rep, nil))
}

// handleDelete removes the row an issue belongs to.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}
	ref, err := req.ref()
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	rep, err := s.session.Delete(ctx, ref)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, s.newReportResponse(rep, nil))
}

// handleConfirm accepts a confirmable value as correct.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err, 0)
		return
	}
	ref, err := req.ref()
	if err != nil {
		respondError(w, r, err, 0)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	rep, err := s.session.Confirm(ctx, ref)
	if err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, s.newReportResponse(rep, nil))
}

// handleReset discards the dataset and removes it from the store.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.session.Clear(ctx); err != nil {
		respondError(w, r, err, 0)
		return
	}
	writeJSON(w, map[string]string{"status": "reset"})
}
