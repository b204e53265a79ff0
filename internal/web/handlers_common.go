package web

// handlers_common.go holds request parsing helpers shared by the handlers.

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/servicepulse/internal/core"
)

// maxBodySize bounds JSON request bodies. Uploads have their own limit.
const maxBodySize = 1 << 20

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseColumns reads the column filter. Both ?column=a,b and repeated
// ?column=a&column=b are accepted.
func parseColumns(r *http.Request) []string {
	var cols []string
	for _, v := range r.URL.Query()["column"] {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cols = append(cols, c)
			}
		}
	}
	return cols
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data", errBadRequest)
	}
	return nil
}

// issueRequest addresses one issue by its 0-based row index and column.
type issueRequest struct {
	Row    *int   `json:"row"`
	Column string `json:"column"`
}

func (req issueRequest) ref() (core.IssueRef, error) {
	if req.Row == nil || req.Column == "" {
		return core.IssueRef{}, fmt.Errorf("%w: row and column are required", errBadRequest)
	}
	return core.IssueRef{Row: *req.Row, Column: req.Column}, nil
}

// editRequest carries the replacement value. Value may be a JSON string or
// a bare number or boolean; either way the session coerces its text form.
type editRequest struct {
	Row    *int            `json:"row"`
	Column string          `json:"column"`
	Value  json.RawMessage `json:"value"`
}

func (req editRequest) parse() (core.IssueRef, string, error) {
	ref, err := issueRequest{Row: req.Row, Column: req.Column}.ref()
	if err != nil {
		return ref, "", err
	}
	if len(req.Value) == 0 || string(req.Value) == "null" {
		return ref, "", fmt.Errorf("%w: value is required", errBadRequest)
	}
	var s string
	if err := json.Unmarshal(req.Value, &s); err == nil {
		return ref, s, nil
	}
	return ref, strings.TrimSpace(string(req.Value)), nil
}

// reportResponse is returned by every resolution action.
type reportResponse struct {
	Issues   []core.Issue       `json:"issues"`
	Complete bool               `json:"complete"`
	Total    int                `json:"total"`
	Counts   []core.ColumnCount `json:"counts"`
}

func (s *Server) newReportResponse(rep core.Report, columns []string) reportResponse {
	issues := core.FilterIssues(rep.Issues, columns...)
	counts := core.CountByColumn(s.session.Schema(), rep.Issues)
	if counts == nil {
		counts = []core.ColumnCount{}
	}
	return reportResponse{
		Issues:   issues,
		Complete: rep.Complete,
		Total:    len(rep.Issues),
		Counts:   counts,
	}
}
