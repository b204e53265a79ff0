package web

import (
	"net/http"

	"github.com/JonMunkholm/servicepulse/internal/core"
)

const defaultHistoryPage = 50

// handleHistory returns recent session actions, newest first.
// ?limit=N caps the result; ?action= and ?severity= filter it.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", defaultHistoryPage)
	action := core.Action(r.URL.Query().Get("action"))
	severity := core.Severity(r.URL.Query().Get("severity"))

	entries := s.session.History(0)
	total := len(entries)

	out := make([]core.HistoryEntry, 0, min(limit, total))
	for _, e := range entries {
		if action != "" && e.Action != action {
			continue
		}
		if severity != "" && e.Severity != severity {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}

	writeJSON(w, map[string]any{
		"entries": out,
		"total":   total,
	})
}

// handleConfirmations lists accepted values with their current rows.
func (s *Server) handleConfirmations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"confirmations": s.session.Confirmations(),
	})
}
