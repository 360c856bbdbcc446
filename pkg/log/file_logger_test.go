package log

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pwlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestFileLoggerWritesCBOR(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pwlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	event := Event{
		Timestamp: time.Now(),
		AccountID: "acct-123",
		Category:  CategoryAttempt,
		Attempt: &AttemptEvent{
			Phase:  PhaseInitial,
			Number: 2,
			Delay:  time.Second,
			Error:  "connection refused",
		},
	}

	logger.Log(event)
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("log file is empty")
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("failed to decode event: %v", err)
	}

	if decoded.AccountID != event.AccountID {
		t.Errorf("AccountID: got %q, want %q", decoded.AccountID, event.AccountID)
	}
	if decoded.Category != CategoryAttempt {
		t.Errorf("Category: got %v, want %v", decoded.Category, CategoryAttempt)
	}
	if decoded.Attempt == nil {
		t.Error("Attempt is nil")
	} else {
		if decoded.Attempt.Number != 2 {
			t.Errorf("Attempt.Number: got %d, want 2", decoded.Attempt.Number)
		}
		if decoded.Attempt.Error != "connection refused" {
			t.Errorf("Attempt.Error: got %q, want %q", decoded.Attempt.Error, "connection refused")
		}
	}
}

func TestFileLoggerAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pwlog")

	logger1, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger1.Log(Event{Timestamp: time.Now(), AccountID: "acct-1", Category: CategoryStateChange})
	logger1.Close()

	info1, _ := os.Stat(path)
	size1 := info1.Size()

	logger2, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger second open failed: %v", err)
	}
	logger2.Log(Event{Timestamp: time.Now(), AccountID: "acct-2", Category: CategoryDrop})
	logger2.Close()

	info2, _ := os.Stat(path)
	if info2.Size() <= size1 {
		t.Errorf("file did not grow: size before=%d, size after=%d", size1, info2.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	decoder := NewDecoder(bytes.NewReader(data))
	var events []Event
	for {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			break
		}
		events = append(events, event)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].AccountID != "acct-1" {
		t.Errorf("first event AccountID = %q, want %q", events[0].AccountID, "acct-1")
	}
	if events[1].AccountID != "acct-2" {
		t.Errorf("second event AccountID = %q, want %q", events[1].AccountID, "acct-2")
	}
}

func TestFileLoggerThreadSafe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pwlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	const numGoroutines = 10
	const eventsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				logger.Log(Event{
					Timestamp: time.Now(),
					AccountID: "acct-" + string(rune('A'+id)),
					Category:  CategoryAttempt,
				})
			}
		}(i)
	}
	wg.Wait()
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	decoder := NewDecoder(bytes.NewReader(data))
	count := 0
	for {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			break
		}
		count++
	}

	if want := numGoroutines * eventsPerGoroutine; count != want {
		t.Errorf("event count: got %d, want %d", count, want)
	}
}

func TestFileLoggerClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pwlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	logger.Log(Event{Timestamp: time.Now(), AccountID: "acct-1", Category: CategoryStateChange})

	if err := logger.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	// Double close should not panic or error
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	// Logging after close should not panic
	logger.Log(Event{Timestamp: time.Now(), AccountID: "acct-2", Category: CategoryDrop})
}
