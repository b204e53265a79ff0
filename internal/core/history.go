package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of operation recorded in the session history.
type Action string

const (
	ActionIngest    Action = "ingest"
	ActionCellEdit  Action = "cell_edit"
	ActionRowDelete Action = "row_delete"
	ActionConfirm   Action = "confirm"
	ActionClear     Action = "clear"
)

// Severity grades how destructive an action was.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// HistoryEntry is a single recorded operator action.
type HistoryEntry struct {
	ID           string    `json:"id"`
	Action       Action    `json:"action"`
	Severity     Severity  `json:"severity"`
	RowIndex     *int      `json:"rowIndex,omitempty"`
	RowID        int       `json:"rowId,omitempty"`
	Column       string    `json:"column,omitempty"`
	OldValue     string    `json:"oldValue,omitempty"`
	NewValue     string    `json:"newValue,omitempty"`
	RowData      Record    `json:"rowData,omitempty"`
	RowsAffected int       `json:"rowsAffected,omitempty"`
	FileName     string    `json:"fileName,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	IPAddress    string    `json:"ipAddress,omitempty"`
	UserAgent    string    `json:"userAgent,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// severityFor returns the severity recorded for an action.
func severityFor(a Action) Severity {
	switch a {
	case ActionIngest, ActionRowDelete:
		return SeverityHigh
	case ActionClear:
		return SeverityCritical
	case ActionConfirm:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// DefaultHistoryLimit caps the number of retained entries.
const DefaultHistoryLimit = 500

// History is a bounded, append-only log of operator actions, newest last.
// It lives in memory only and is reset with the session.
type History struct {
	mu      sync.RWMutex
	entries []HistoryEntry
	limit   int
	now     func() time.Time
}

// NewHistory creates a history that keeps at most limit entries.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit, now: time.Now}
}

// Record stamps e with an id, severity and time and appends it.
func (h *History) Record(e HistoryEntry) HistoryEntry {
	e.ID = uuid.NewString()
	e.Severity = severityFor(e.Action)
	e.CreatedAt = h.now().UTC()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, e)
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([]HistoryEntry(nil), h.entries[over:]...)
	}
	return e
}

// Entries returns the most recent entries, newest first. limit <= 0 returns all.
func (h *History) Entries(limit int) []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]HistoryEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, h.entries[i])
	}
	return out
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Reset drops every entry.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}
