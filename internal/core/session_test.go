package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"
)

// fakeStore is an in-memory DatasetStore that records calls.
type fakeStore struct {
	mu      sync.Mutex
	saved   *Dataset
	saves   int
	clears  int
	saveErr error
	loadErr error
}

func (f *fakeStore) LoadDataset(ctx context.Context) (*Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.saved.Clone(), nil
}

func (f *fakeStore) SaveDataset(ctx context.Context, ds *Dataset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = ds.Clone()
	return nil
}

func (f *fakeStore) ClearDataset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	f.saved = nil
	return nil
}

func newTestSession(t *testing.T, store DatasetStore) *Session {
	t.Helper()
	return NewSession(store, SessionConfig{
		OperationWait: 100 * time.Millisecond,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func ingest(t *testing.T, s *Session, text string) Report {
	t.Helper()
	r, err := s.Ingest(context.Background(), "feedback.csv", []byte(text))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	return r
}

func TestSession_Ingest(t *testing.T) {
	store := &fakeStore{}
	s := newTestSession(t, store)

	report := ingest(t, s, exampleCSV)
	if len(report.Issues) != 4 {
		t.Fatalf("got %d issues, want 4", len(report.Issues))
	}
	if store.saves != 1 || store.saved.Len() != 2 {
		t.Errorf("store saves = %d, saved rows = %d", store.saves, store.saved.Len())
	}
	info := s.Info()
	if info.FileName != "feedback.csv" || info.Rows != 2 || info.Issues != 4 || info.Complete {
		t.Errorf("Info() = %+v", info)
	}
	if info.Schema.Score != "score" {
		t.Errorf("schema not detected from headers: %+v", info.Schema)
	}
	if info.DatasetID == "" {
		t.Error("DatasetID not assigned on ingest")
	}
	h := s.History(0)
	if len(h) != 1 || h[0].Action != ActionIngest || h[0].ID == "" || h[0].Severity != SeverityHigh {
		t.Errorf("History() = %+v", h)
	}

	first := info.DatasetID
	ingest(t, s, exampleCSV)
	if got := s.Info().DatasetID; got == first {
		t.Errorf("DatasetID = %q, want a new id per ingest", got)
	}
}

func TestSession_IngestRejections(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     []byte
		check    func(error) bool
	}{
		{
			name:     "wrong extension",
			fileName: "data.xlsx",
			data:     []byte(exampleCSV),
			check:    func(err error) bool { var fe *FileConstraintError; return errors.As(err, &fe) },
		},
		{
			name:     "too large",
			fileName: "data.csv",
			data:     make([]byte, 65),
			check:    func(err error) bool { var fe *FileConstraintError; return errors.As(err, &fe) },
		},
		{
			name:     "empty file",
			fileName: "data.csv",
			data:     nil,
			check:    func(err error) bool { var fe *FileConstraintError; return errors.As(err, &fe) },
		},
		{
			name:     "header only",
			fileName: "data.csv",
			data:     []byte("a,b\n"),
			check:    func(err error) bool { var pe *ParseError; return errors.As(err, &pe) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(nil, SessionConfig{
				MaxFileSize: 64,
				Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
			})
			ingest(t, s, "cost\n5\n")
			before := s.Snapshot()

			_, err := s.Ingest(context.Background(), tt.fileName, tt.data)
			if !tt.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
			if !reflect.DeepEqual(s.Snapshot(), before) {
				t.Error("prior dataset was modified by a rejected upload")
			}
		})
	}
}

func TestSession_IngestResetsConfirmations(t *testing.T) {
	s := newTestSession(t, nil)
	ingest(t, s, costCSV("50", "-10"))
	if _, err := s.Confirm(context.Background(), IssueRef{Row: 1, Column: "cost"}); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	report := ingest(t, s, costCSV("50", "-10"))
	if len(report.Issues) != 1 || len(s.Confirmations()) != 0 {
		t.Errorf("confirmations survived a new upload: %+v", s.Confirmations())
	}
}

func TestSession_Edit(t *testing.T) {
	store := &fakeStore{}
	s := newTestSession(t, store)
	ingest(t, s, exampleCSV)
	ctx := context.Background()

	t.Run("rejects non-numeric value without mutation", func(t *testing.T) {
		before := s.Snapshot()
		_, err := s.Edit(ctx, IssueRef{Row: 1, Column: "score"}, "ten")
		var rej *EditRejectedError
		if !errors.As(err, &rej) {
			t.Fatalf("expected *EditRejectedError, got %v", err)
		}
		if !reflect.DeepEqual(s.Snapshot(), before) {
			t.Error("dataset mutated by a rejected edit")
		}
	})

	t.Run("valid edit re-validates", func(t *testing.T) {
		report, err := s.Edit(ctx, IssueRef{Row: 1, Column: "score"}, "8")
		if err != nil {
			t.Fatalf("Edit: %v", err)
		}
		if len(report.Issues) != 3 {
			t.Fatalf("got %d issues, want 3", len(report.Issues))
		}
		if got := s.Snapshot().Value(1, "score"); got != Number(8) {
			t.Errorf("score = %#v, want 8", got)
		}
		if got := s.Snapshot().Value(1, "cost"); got != Number(-10) {
			t.Errorf("other cells changed: cost = %#v", got)
		}
		if store.saved.Value(1, "score") != Number(8) {
			t.Error("edit was not persisted")
		}
	})

	t.Run("reference to a resolved issue is stale", func(t *testing.T) {
		_, err := s.Edit(ctx, IssueRef{Row: 1, Column: "score"}, "9")
		if !errors.Is(err, ErrIssueNotFound) {
			t.Errorf("expected ErrIssueNotFound, got %v", err)
		}
	})

	t.Run("engagement lower-cased", func(t *testing.T) {
		s2 := newTestSession(t, nil)
		ingest(t, s2, "engagement,score,cost,date,category\nmaybe,9,50,01/15/24,Tune-up\n")
		report, err := s2.Edit(ctx, IssueRef{Row: 0, Column: "engagement"}, "YES")
		if err != nil {
			t.Fatalf("Edit: %v", err)
		}
		if !report.Complete {
			t.Errorf("expected complete report, got %+v", report.Issues)
		}
		if got := s2.Snapshot().Value(0, "engagement"); got != String("yes") {
			t.Errorf("engagement = %#v, want \"yes\"", got)
		}
	})
}

func TestSession_DeleteShiftsIndices(t *testing.T) {
	s := newTestSession(t, nil)
	ingest(t, s, "engagement,score,cost,date,category\n"+
		"Yes,9,50,01/15/24,A\n"+
		"Yes,9,50,01/15/24,\n"+
		"Yes,11,50,01/15/24,C\n"+
		"Yes,9,50,01/15/24,D\n"+
		"Yes,9,50,01/15/24,E\n")
	ctx := context.Background()

	report, err := s.Delete(ctx, IssueRef{Row: 1, Column: "category"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Snapshot().Len() != 4 {
		t.Fatalf("Len() = %d, want 4", s.Snapshot().Len())
	}
	if len(report.Issues) != 1 || report.Issues[0].RowIndex != 1 || report.Issues[0].Column != "score" {
		t.Fatalf("former row 3 should now be row 2: %+v", report.Issues)
	}

	_, err = s.Delete(ctx, IssueRef{Row: 2, Column: "score"})
	if !errors.Is(err, ErrIssueNotFound) {
		t.Errorf("stale index: expected ErrIssueNotFound, got %v", err)
	}
}

func TestSession_DeleteDropsConfirmations(t *testing.T) {
	s := newTestSession(t, nil)
	ingest(t, s, "engagement,score,cost,date,category\n"+
		"Yes,9,-5,01/15/24,\n"+
		"Yes,9,-5,01/15/24,B\n")
	ctx := context.Background()

	for _, row := range []int{0, 1} {
		if _, err := s.Confirm(ctx, IssueRef{Row: row, Column: "cost"}); err != nil {
			t.Fatalf("Confirm row %d: %v", row, err)
		}
	}
	if _, err := s.Confirm(ctx, IssueRef{Row: 0, Column: "cost"}); !errors.Is(err, ErrIssueNotFound) {
		t.Fatalf("confirmed issue should not be addressable, got %v", err)
	}

	report, err := s.Delete(ctx, IssueRef{Row: 0, Column: "category"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !report.Complete {
		t.Errorf("expected complete after delete, got %+v", report.Issues)
	}

	if len(s.confirmed) != 1 {
		t.Errorf("deleted row's confirmation kept: %d entries", len(s.confirmed))
	}
	got := s.Confirmations()
	want := []ConfirmedException{
		{RowIndex: 0, RowID: 2, Column: "cost", Value: Number(-5)},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Confirmations() = %+v, want %+v", got, want)
	}
}

func TestSession_ConfirmStaysWithPhysicalRow(t *testing.T) {
	s := newTestSession(t, nil)
	ingest(t, s, "engagement,score,cost,date,category\n"+
		"Yes,9,50,01/15/24,\n"+
		"Yes,9,-5,01/15/24,B\n"+
		"Yes,9,-5,01/15/24,C\n")
	ctx := context.Background()

	if _, err := s.Confirm(ctx, IssueRef{Row: 1, Column: "cost"}); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	report, err := s.Delete(ctx, IssueRef{Row: 0, Column: "category"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// Row C shifted into index 1 but was never confirmed.
	if len(report.Issues) != 1 || report.Issues[0].RowIndex != 1 || report.Issues[0].Row["category"] != String("C") {
		t.Errorf("confirmation moved to a different physical row: %+v", report.Issues)
	}
}

func TestSession_Confirm(t *testing.T) {
	ctx := context.Background()

	t.Run("hard rule is not confirmable", func(t *testing.T) {
		s := newTestSession(t, nil)
		ingest(t, s, exampleCSV)
		_, err := s.Confirm(ctx, IssueRef{Row: 1, Column: "score"})
		if !errors.Is(err, ErrNotConfirmable) {
			t.Errorf("expected ErrNotConfirmable, got %v", err)
		}
	})

	t.Run("removes exactly that issue", func(t *testing.T) {
		s := newTestSession(t, nil)
		ingest(t, s, costCSV("100", "100", "100", "100", "700")+"Yes,9,-1,01/15/24,Tune-up\n")
		before := s.Report()

		report, err := s.Confirm(ctx, IssueRef{Row: 4, Column: "cost"})
		if err != nil {
			t.Fatalf("Confirm: %v", err)
		}
		if len(report.Issues) != len(before.Issues)-1 {
			t.Fatalf("got %d issues, want %d", len(report.Issues), len(before.Issues)-1)
		}
		for _, is := range report.Issues {
			if is.RowIndex == 4 {
				t.Errorf("confirmed issue still listed: %+v", is)
			}
		}

		full := NewValidator(s.Schema()).Validate(s.Snapshot(), s.confirmed)
		if !reflect.DeepEqual(report, full) {
			t.Error("confirm result differs from a full re-validation")
		}
	})

	t.Run("different value in a confirmed cell is flagged again", func(t *testing.T) {
		s := newTestSession(t, nil)
		ingest(t, s, costCSV("50", "-10"))
		if _, err := s.Confirm(ctx, IssueRef{Row: 1, Column: "cost"}); err != nil {
			t.Fatalf("Confirm: %v", err)
		}
		if !s.Complete() {
			t.Fatal("expected complete after confirm")
		}

		s.mu.Lock()
		s.ds.Set(1, "cost", Number(-20))
		s.revalidateLocked()
		s.mu.Unlock()

		issues := s.Issues("cost")
		if len(issues) != 1 || issues[0].Value != Number(-20) {
			t.Errorf("different value should be flagged again: %+v", issues)
		}
	})
}

func TestSession_Busy(t *testing.T) {
	s := newTestSession(t, nil)
	ingest(t, s, exampleCSV)

	if !s.Gate().TryAcquire() {
		t.Fatal("could not take the gate")
	}
	defer s.Gate().Release()

	_, err := s.Edit(context.Background(), IssueRef{Row: 1, Column: "score"}, "9")
	if !errors.Is(err, ErrSessionBusy) {
		t.Errorf("expected ErrSessionBusy, got %v", err)
	}
	if got := s.Snapshot().Value(1, "score"); got != String("") {
		t.Errorf("busy edit mutated the dataset: %#v", got)
	}
}

func TestSession_NoDataset(t *testing.T) {
	s := newTestSession(t, nil)
	_, err := s.Edit(context.Background(), IssueRef{Row: 0, Column: "cost"}, "1")
	if !errors.Is(err, ErrNoDataset) {
		t.Errorf("expected ErrNoDataset, got %v", err)
	}
	if !s.Complete() || s.Snapshot() != nil {
		t.Error("empty session should be complete with no snapshot")
	}
}

func TestSession_PersistFailureDoesNotFail(t *testing.T) {
	store := &fakeStore{saveErr: errors.New("disk full")}
	s := newTestSession(t, store)

	report := ingest(t, s, exampleCSV)
	if len(report.Issues) != 4 {
		t.Errorf("got %d issues, want 4", len(report.Issues))
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
}

func TestSession_LoadAndClear(t *testing.T) {
	store := &fakeStore{}
	first := newTestSession(t, store)
	ingest(t, first, exampleCSV)

	second := newTestSession(t, store)
	if err := second.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := second.Report(); len(got.Issues) != 4 {
		t.Fatalf("restored session has %d issues, want 4", len(got.Issues))
	}

	if err := second.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if store.clears != 1 || store.saved != nil {
		t.Error("store was not cleared")
	}
	if second.Snapshot() != nil || !second.Complete() {
		t.Error("session not reset after Clear")
	}
	if h := second.History(1); len(h) != 1 || h[0].Action != ActionClear || h[0].Severity != SeverityCritical {
		t.Errorf("History(1) = %+v", h)
	}

	third := newTestSession(t, store)
	if err := third.Load(context.Background()); err != nil {
		t.Fatalf("Load after clear: %v", err)
	}
	if third.Snapshot() != nil {
		t.Error("expected empty session after loading a cleared store")
	}
}

func TestSession_LoadError(t *testing.T) {
	s := newTestSession(t, &fakeStore{loadErr: errors.New("connection refused")})
	if err := s.Load(context.Background()); err == nil {
		t.Error("expected load error")
	}
}

func TestSession_HistoryCarriesActor(t *testing.T) {
	s := newTestSession(t, nil)
	ctx := ContextWithActor(context.Background(), Actor{IPAddress: "10.0.0.1", UserAgent: "curl"})
	if _, err := s.Ingest(ctx, "feedback.csv", []byte(exampleCSV)); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if _, err := s.Delete(ctx, IssueRef{Row: 1, Column: "date"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	h := s.History(0)
	if len(h) != 2 {
		t.Fatalf("len(History) = %d, want 2", len(h))
	}
	del := h[0]
	if del.Action != ActionRowDelete || del.IPAddress != "10.0.0.1" || del.RowData["cost"] != Number(-10) {
		t.Errorf("delete entry = %+v", del)
	}
}
