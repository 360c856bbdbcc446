package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pwlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func TestReaderIteratesEvents(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), AccountID: "acct-1", Category: CategoryStateChange},
		{Timestamp: time.Now(), AccountID: "acct-2", Category: CategoryAttempt},
		{Timestamp: time.Now(), AccountID: "acct-3", Category: CategoryDrop},
	}

	path := createTestLogFile(t, events)

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	var read []Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		read = append(read, event)
	}

	if len(read) != 3 {
		t.Fatalf("got %d events, want 3", len(read))
	}
	if read[0].AccountID != "acct-1" {
		t.Errorf("first event AccountID = %q, want %q", read[0].AccountID, "acct-1")
	}
	if read[2].AccountID != "acct-3" {
		t.Errorf("last event AccountID = %q, want %q", read[2].AccountID, "acct-3")
	}
}

func TestReaderHandlesEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.pwlog")

	logger, _ := NewFileLogger(path)
	logger.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	event, err := reader.Next()
	if err != io.EOF {
		t.Errorf("expected io.EOF, got err=%v, event=%+v", err, event)
	}
}

func TestReaderFilterByAccountID(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), AccountID: "acct-A", Category: CategoryStateChange},
		{Timestamp: time.Now(), AccountID: "acct-B", Category: CategoryAttempt},
		{Timestamp: time.Now(), AccountID: "acct-A", Category: CategoryDrop},
	}

	path := createTestLogFile(t, events)

	reader, err := NewFilteredReader(path, Filter{AccountID: "acct-A"})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	read, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	if len(read) != 2 {
		t.Fatalf("got %d events, want 2", len(read))
	}
	for _, e := range read {
		if e.AccountID != "acct-A" {
			t.Errorf("event AccountID = %q, want %q", e.AccountID, "acct-A")
		}
	}
}

func TestReaderFilterByCategory(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), AccountID: "acct-1", Category: CategoryStateChange},
		{Timestamp: time.Now(), AccountID: "acct-1", Category: CategoryAttempt},
		{Timestamp: time.Now(), AccountID: "acct-1", Category: CategoryAttempt},
		{Timestamp: time.Now(), AccountID: "acct-1", Category: CategoryDrop},
	}

	path := createTestLogFile(t, events)

	cat := CategoryAttempt
	reader, err := NewFilteredReader(path, Filter{Category: &cat})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	read, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	if len(read) != 2 {
		t.Fatalf("got %d events, want 2", len(read))
	}
}

func TestReaderFilterByPhase(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), AccountID: "acct-1", Category: CategoryAttempt, Attempt: &AttemptEvent{Phase: PhaseInitial, Number: 1}},
		{Timestamp: time.Now(), AccountID: "acct-1", Category: CategoryAttempt, Attempt: &AttemptEvent{Phase: PhaseRuntime, Number: 1}},
		{Timestamp: time.Now(), AccountID: "acct-1", Category: CategoryAttempt, Attempt: &AttemptEvent{Phase: PhaseRuntime, Number: 2}},
		// Non-attempt events never match a phase filter.
		{Timestamp: time.Now(), AccountID: "acct-1", Category: CategoryDrop, Drop: &DropEvent{Reason: "periodic"}},
	}

	path := createTestLogFile(t, events)

	phase := PhaseRuntime
	reader, err := NewFilteredReader(path, Filter{Phase: &phase})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	read, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	if len(read) != 2 {
		t.Fatalf("got %d events, want 2", len(read))
	}
	for _, e := range read {
		if e.Attempt == nil || e.Attempt.Phase != PhaseRuntime {
			t.Errorf("unexpected event in phase-filtered read: %+v", e)
		}
	}
}

func TestReaderFilterByTimeRange(t *testing.T) {
	base := time.Now().Truncate(time.Second)
	events := []Event{
		{Timestamp: base, AccountID: "acct-1", Category: CategoryStateChange},
		{Timestamp: base.Add(10 * time.Second), AccountID: "acct-1", Category: CategoryAttempt},
		{Timestamp: base.Add(20 * time.Second), AccountID: "acct-1", Category: CategoryDrop},
	}

	path := createTestLogFile(t, events)

	start := base.Add(5 * time.Second)
	end := base.Add(15 * time.Second)
	reader, err := NewFilteredReader(path, Filter{TimeStart: &start, TimeEnd: &end})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	read, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}

	if len(read) != 1 {
		t.Fatalf("got %d events, want 1", len(read))
	}
	if read[0].Category != CategoryAttempt {
		t.Errorf("event Category = %v, want %v", read[0].Category, CategoryAttempt)
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.pwlog")); err == nil {
		t.Error("NewReader on missing file succeeded, want error")
	}
}
