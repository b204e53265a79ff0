package web

import (
	"net/http"

	"github.com/JonMunkholm/servicepulse/internal/analytics"
)

// Analytics read a snapshot, so they never block or observe a half-applied
// change. Without a dataset every aggregate is its zero value.

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, analytics.Summarize(s.session.Snapshot(), s.session.Schema()))
}

func (s *Server) handleSatisfaction(w http.ResponseWriter, r *http.Request) {
	ds, schema := s.session.Snapshot(), s.session.Schema()
	writeJSON(w, map[string]any{
		"satisfaction": analytics.Score(analytics.Scores(ds, schema.Score)),
		"engagement":   analytics.EngagementSplit(ds, schema),
	})
}

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, analytics.CompareSegments(s.session.Snapshot(), s.session.Schema()))
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, analytics.Categories(s.session.Snapshot(), s.session.Schema()))
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, analytics.Monthly(s.session.Snapshot(), s.session.Schema()))
}
