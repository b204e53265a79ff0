package core

// session.go owns the dataset and is its only writer.
//
// Every mutating operation takes the single-slot Gate first, so a parse and
// a resolution action never overlap. Readers take the read lock and receive
// copies. After each Edit or Delete the full validation pass reruns before
// the gate is released, which means the next action always resolves its
// IssueRef against a fresh issue list.

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultMaxFileSize is the largest accepted upload.
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

// DatasetStore persists the dataset between restarts.
// LoadDataset returns (nil, nil) when nothing has been saved.
type DatasetStore interface {
	LoadDataset(ctx context.Context) (*Dataset, error)
	SaveDataset(ctx context.Context, ds *Dataset) error
	ClearDataset(ctx context.Context) error
}

// SessionConfig configures a Session. Zero values take defaults.
type SessionConfig struct {
	MaxFileSize       int64
	AllowedExtensions []string
	OperationWait     time.Duration
	CostMargin        float64
	HistoryLimit      int
	Logger            *slog.Logger
}

// ConfirmedException is an operator-accepted value, reported with the row's
// current position.
type ConfirmedException struct {
	RowIndex int    `json:"rowIndex"`
	RowID    int    `json:"rowId"`
	Column   string `json:"column"`
	Value    Value  `json:"value"`
}

// SessionInfo summarises the loaded dataset.
type SessionInfo struct {
	DatasetID     string    `json:"datasetId,omitempty"`
	FileName      string    `json:"fileName,omitempty"`
	Rows          int       `json:"rows"`
	Headers       []string  `json:"headers"`
	Schema        Schema    `json:"schema"`
	Issues        int       `json:"issues"`
	Complete      bool      `json:"complete"`
	Confirmations int       `json:"confirmations"`
	LoadedAt      time.Time `json:"loadedAt,omitempty"`
}

// Session holds one dataset, its confirmations and its current report.
type Session struct {
	store   DatasetStore
	gate    *Gate
	history *History
	logger  *slog.Logger

	maxFileSize int64
	allowedExt  []string
	costMargin  float64

	mu        sync.RWMutex
	ds        *Dataset
	validator *Validator
	confirmed ConfirmedSet
	report    Report
	datasetID string
	fileName  string
	loadedAt  time.Time
}

// NewSession creates an empty session. store may be nil for a session that
// lives only in memory.
func NewSession(store DatasetStore, cfg SessionConfig) *Session {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{".csv"}
	}
	if cfg.CostMargin <= 0 {
		cfg.CostMargin = DefaultCostMargin
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Session{
		store:       store,
		gate:        NewGate(cfg.OperationWait),
		history:     NewHistory(cfg.HistoryLimit),
		logger:      cfg.Logger,
		maxFileSize: cfg.MaxFileSize,
		allowedExt:  normalizeExtensions(cfg.AllowedExtensions),
		costMargin:  cfg.CostMargin,
	}
	s.resetLocked()
	return s
}

// Gate exposes the operation gate so servers can drain it on shutdown.
func (s *Session) Gate() *Gate { return s.gate }

// Load restores the persisted dataset, if any. A missing dataset leaves the
// session empty.
func (s *Session) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.gate.Acquire(ctx); err != nil {
		return err
	}
	defer s.gate.Release()

	ds, err := s.store.LoadDataset(ctx)
	if err != nil {
		storeErrors.WithLabelValues("load").Inc()
		return fmt.Errorf("load dataset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	if ds == nil {
		return nil
	}
	s.installLocked(ds, "")
	s.logger.Info("dataset restored",
		"rows", ds.Len(),
		"issues", len(s.report.Issues),
	)
	return nil
}

// CheckFile rejects uploads by extension and size before any parsing.
func (s *Session) CheckFile(name string, size int64) error {
	if size == 0 {
		return &FileConstraintError{FileName: name, Reason: "empty file"}
	}
	if size > s.maxFileSize {
		return &FileConstraintError{
			FileName: name,
			Reason:   fmt.Sprintf("file too large: %d bytes exceeds limit of %d", size, s.maxFileSize),
		}
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !slices.Contains(s.allowedExt, ext) {
		return &FileConstraintError{
			FileName: name,
			Reason:   fmt.Sprintf("invalid file type %q: allowed %s", ext, strings.Join(s.allowedExt, ", ")),
		}
	}
	return nil
}

// Ingest checks, parses and installs a new dataset, replacing the current
// one and discarding all confirmations. On any error the prior dataset is
// left untouched.
func (s *Session) Ingest(ctx context.Context, name string, data []byte) (Report, error) {
	if err := s.CheckFile(name, int64(len(data))); err != nil {
		observeAction(ActionIngest, err)
		return Report{}, err
	}

	if err := s.gate.Acquire(ctx); err != nil {
		return Report{}, err
	}
	defer s.gate.Release()

	ds, err := Parse(string(sanitizeUTF8(data)))
	if err != nil {
		observeAction(ActionIngest, err)
		s.logger.Info("upload rejected", "file", name, "error", err)
		return Report{}, err
	}

	s.mu.Lock()
	s.resetLocked()
	s.installLocked(ds, name)
	report := s.reportLocked()
	datasetID := s.datasetID
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.record(ctx, HistoryEntry{
		Action:       ActionIngest,
		FileName:     name,
		RowsAffected: ds.Len(),
	})
	observeAction(ActionIngest, nil)
	s.logger.Info("dataset ingested",
		"dataset", datasetID,
		"file", name,
		"rows", ds.Len(),
		"issues", len(report.Issues),
	)
	return report, nil
}

// Edit replaces the value of the cell an issue points at and re-validates.
// Numeric columns reject values that do not coerce with *EditRejectedError.
func (s *Session) Edit(ctx context.Context, ref IssueRef, raw string) (Report, error) {
	if err := s.gate.Acquire(ctx); err != nil {
		return Report{}, err
	}
	defer s.gate.Release()

	s.mu.Lock()
	issue, err := s.resolveLocked(ref)
	if err != nil {
		s.mu.Unlock()
		observeAction(ActionCellEdit, err)
		return Report{}, err
	}

	v, err := CoerceEdit(s.validator.Schema(), issue.Column, raw)
	if err != nil {
		s.mu.Unlock()
		observeAction(ActionCellEdit, err)
		return Report{}, err
	}

	s.ds.Set(issue.RowIndex, issue.Column, v)
	s.revalidateLocked()
	report := s.reportLocked()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.record(ctx, HistoryEntry{
		Action:       ActionCellEdit,
		RowIndex:     intPtr(issue.RowIndex),
		RowID:        issue.RowID,
		Column:       issue.Column,
		OldValue:     issue.Value.Text(),
		NewValue:     v.Text(),
		Reason:       issue.Reason,
		RowsAffected: 1,
	})
	observeAction(ActionCellEdit, nil)
	s.logger.Info("cell edited",
		"row", issue.DisplayRow(),
		"column", issue.Column,
		"old", issue.Value.Text(),
		"new", v.Text(),
	)
	return report, nil
}

// Delete removes the row an issue points at. Later rows shift down by one.
func (s *Session) Delete(ctx context.Context, ref IssueRef) (Report, error) {
	if err := s.gate.Acquire(ctx); err != nil {
		return Report{}, err
	}
	defer s.gate.Release()

	s.mu.Lock()
	issue, err := s.resolveLocked(ref)
	if err != nil {
		s.mu.Unlock()
		observeAction(ActionRowDelete, err)
		return Report{}, err
	}

	row := s.ds.Record(issue.RowIndex).Clone()
	s.ds.Delete(issue.RowIndex)
	s.confirmed.DropRow(issue.RowID)
	s.revalidateLocked()
	report := s.reportLocked()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.record(ctx, HistoryEntry{
		Action:       ActionRowDelete,
		RowIndex:     intPtr(issue.RowIndex),
		RowID:        issue.RowID,
		Column:       issue.Column,
		RowData:      row,
		Reason:       issue.Reason,
		RowsAffected: 1,
	})
	observeAction(ActionRowDelete, nil)
	s.logger.Info("row deleted", "row", issue.DisplayRow(), "rowId", issue.RowID)
	return report, nil
}

// Confirm accepts a confirmable issue's value. Only that issue leaves the
// list; no full pass is needed because the new confirmation suppresses
// exactly that finding.
func (s *Session) Confirm(ctx context.Context, ref IssueRef) (Report, error) {
	if err := s.gate.Acquire(ctx); err != nil {
		return Report{}, err
	}
	defer s.gate.Release()

	s.mu.Lock()
	issue, err := s.resolveLocked(ref)
	if err == nil && !issue.Confirmable {
		err = ErrNotConfirmable
	}
	if err != nil {
		s.mu.Unlock()
		observeAction(ActionConfirm, err)
		return Report{}, err
	}

	s.confirmed.Add(issue.RowID, issue.Column, issue.Value)
	kept := make([]Issue, 0, len(s.report.Issues))
	for _, is := range s.report.Issues {
		if is.RowIndex == issue.RowIndex && is.Column == issue.Column {
			continue
		}
		kept = append(kept, is)
	}
	s.report = Report{Issues: kept, Complete: len(kept) == 0}
	observeReport(s.ds, s.report)
	report := s.reportLocked()
	s.mu.Unlock()

	s.record(ctx, HistoryEntry{
		Action:   ActionConfirm,
		RowIndex: intPtr(issue.RowIndex),
		RowID:    issue.RowID,
		Column:   issue.Column,
		OldValue: issue.Value.Text(),
		Reason:   issue.Reason,
	})
	observeAction(ActionConfirm, nil)
	s.logger.Info("value confirmed",
		"row", issue.DisplayRow(),
		"column", issue.Column,
		"value", issue.Value.Text(),
	)
	return report, nil
}

// Clear removes the persisted dataset and resets the session to empty.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.gate.Acquire(ctx); err != nil {
		return err
	}
	defer s.gate.Release()

	if s.store != nil {
		if err := s.store.ClearDataset(ctx); err != nil {
			storeErrors.WithLabelValues("clear").Inc()
			observeAction(ActionClear, err)
			return fmt.Errorf("clear dataset: %w", err)
		}
	}

	s.mu.Lock()
	rows := s.ds.Len()
	s.resetLocked()
	s.mu.Unlock()

	s.record(ctx, HistoryEntry{Action: ActionClear, RowsAffected: rows})
	observeAction(ActionClear, nil)
	s.logger.Info("session cleared", "rows", rows)
	return nil
}

// Report returns the current validation report.
func (s *Session) Report() Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reportLocked()
}

// Issues returns current issues, optionally limited to the given columns.
func (s *Session) Issues(columns ...string) []Issue {
	return FilterIssues(s.Report().Issues, columns...)
}

// Complete reports whether the current dataset has no open issues.
func (s *Session) Complete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report.Complete
}

// Snapshot returns a deep copy of the dataset, or nil when none is loaded.
func (s *Session) Snapshot() *Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ds.Clone()
}

// Schema returns the column layout detected for the current dataset.
func (s *Session) Schema() Schema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validator.Schema()
}

// Info summarises the session state.
func (s *Session) Info() SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info := SessionInfo{
		DatasetID:     s.datasetID,
		FileName:      s.fileName,
		Rows:          s.ds.Len(),
		Headers:       []string{},
		Schema:        s.validator.Schema(),
		Issues:        len(s.report.Issues),
		Complete:      s.report.Complete,
		Confirmations: len(s.confirmed),
		LoadedAt:      s.loadedAt,
	}
	if s.ds != nil {
		info.Headers = append(info.Headers, s.ds.Headers...)
	}
	return info
}

// Confirmations lists accepted values in row order.
func (s *Session) Confirmations() []ConfirmedException {
	s.mu.RLock()
	defer s.mu.RUnlock()

	index := make(map[int]int, s.ds.Len())
	for i := 0; i < s.ds.Len(); i++ {
		index[s.ds.RowID(i)] = i
	}

	out := make([]ConfirmedException, 0, len(s.confirmed))
	for k := range s.confirmed {
		i, ok := index[k.RowID]
		if !ok {
			continue
		}
		out = append(out, ConfirmedException{RowIndex: i, RowID: k.RowID, Column: k.Column, Value: k.Value})
	}
	slices.SortFunc(out, func(a, b ConfirmedException) int {
		if a.RowIndex != b.RowIndex {
			return a.RowIndex - b.RowIndex
		}
		return strings.Compare(a.Column, b.Column)
	})
	return out
}

// History returns recent actions, newest first.
func (s *Session) History(limit int) []HistoryEntry {
	return s.history.Entries(limit)
}

// resolveLocked finds the current issue a reference points at.
func (s *Session) resolveLocked(ref IssueRef) (Issue, error) {
	if s.ds == nil {
		return Issue{}, ErrNoDataset
	}
	for _, is := range s.report.Issues {
		if is.RowIndex == ref.Row && is.Column == ref.Column {
			return is, nil
		}
	}
	return Issue{}, fmt.Errorf("%w: row %d column %q", ErrIssueNotFound, ref.Row+1, ref.Column)
}

func (s *Session) resetLocked() {
	s.ds = nil
	s.validator = NewValidator(DefaultSchema, WithCostMargin(s.costMargin))
	s.confirmed = make(ConfirmedSet)
	s.report = Report{Issues: []Issue{}, Complete: true}
	s.datasetID = ""
	s.fileName = ""
	s.loadedAt = time.Time{}
	observeReport(nil, s.report)
}

func (s *Session) installLocked(ds *Dataset, name string) {
	s.ds = ds
	s.datasetID = uuid.NewString()
	s.validator = NewValidator(DetectSchema(ds.Headers), WithCostMargin(s.costMargin))
	s.fileName = name
	s.loadedAt = time.Now().UTC()
	s.revalidateLocked()
}

func (s *Session) revalidateLocked() {
	s.report = s.validator.Validate(s.ds, s.confirmed)
	validationPasses.Inc()
	observeReport(s.ds, s.report)
}

func (s *Session) reportLocked() Report {
	return Report{
		Issues:   append([]Issue{}, s.report.Issues...),
		Complete: s.report.Complete,
	}
}

// persistLocked saves the dataset. A failed save is logged and counted but
// does not fail the operation; the in-memory state stays authoritative.
func (s *Session) persistLocked(ctx context.Context) {
	if s.store == nil || s.ds == nil {
		return
	}
	if err := s.store.SaveDataset(ctx, s.ds); err != nil {
		storeErrors.WithLabelValues("save").Inc()
		s.logger.Warn("persist dataset failed", "error", err)
	}
}

func (s *Session) record(ctx context.Context, e HistoryEntry) {
	a := ActorFromContext(ctx)
	e.IPAddress = a.IPAddress
	e.UserAgent = a.UserAgent
	s.history.Record(e)
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// sanitizeUTF8 replaces invalid byte sequences with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	return []byte(strings.ToValidUTF8(string(data), "\uFFFD"))
}

func intPtr(i int) *int { return &i }
