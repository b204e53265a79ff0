package web

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/servicepulse/internal/core"
)

// handleHealth reports liveness plus whether a change is in flight.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := s.session.Info()
	writeJSON(w, map[string]any{
		"status": "ok",
		"rows":   info.Rows,
		"busy":   s.session.Gate().Busy(),
	})
}

// datasetResponse is the current dataset with its session summary.
type datasetResponse struct {
	Info    core.SessionInfo `json:"info"`
	Records []core.Record    `json:"records"`
}

// handleDataset returns every row. An empty session returns no records.
func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	records := s.session.Snapshot().Records()
	if records == nil {
		records = []core.Record{}
	}
	writeJSON(w, datasetResponse{
		Info:    s.session.Info(),
		Records: records,
	})
}

// handleExport downloads the current dataset as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ds := s.session.Snapshot()
	if ds == nil {
		respondError(w, r, core.ErrNoDataset, 0)
		return
	}

	filename := exportName(s.session.Info().FileName)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write([]byte(core.FormatCSV(ds)))
}

// exportName derives the download name from the uploaded file name.
func exportName(uploaded string) string {
	base := strings.TrimSuffix(filepath.Base(uploaded), filepath.Ext(uploaded))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "servicepulse"
	}
	base = strings.Map(func(r rune) rune {
		if r == '"' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, base)
	return base + "_cleaned.csv"
}

// handleIssues lists current issues, optionally filtered by column.
// Counts always cover the unfiltered list.
func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.newReportResponse(s.session.Report(), parseColumns(r)))
}
