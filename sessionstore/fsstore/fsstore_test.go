package fsstore

import (
	"context"
	"testing"
	"time"

	"codeforge.dev/agentcore/sessionstore"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	summary := sessionstore.Summary{
		SessionID:       "run-42",
		StartTime:       time.Unix(1000, 0).UTC(),
		EndTime:         time.Unix(1010, 0).UTC(),
		DurationSeconds: 10,
		TasksCompleted:  []string{"task-001"},
		ToolsUsed:       map[string]int{"write_file": 1},
		Success:         true,
	}
	if err := store.Save(context.Background(), summary); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(context.Background(), "run-42")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.SessionID != summary.SessionID || got.DurationSeconds != summary.DurationSeconds || !got.Success {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, summary)
	}
}

func TestLoadMissingSessionReturnsError(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := store.Load(context.Background(), "does-not-exist"); err == nil {
		t.Fatalf("expected an error loading a session that was never saved")
	}
}

func TestListOrdersMostRecentFirst(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Save(context.Background(), sessionstore.Summary{SessionID: "first"}); err != nil {
		t.Fatalf("Save first: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := store.Save(context.Background(), sessionstore.Summary{SessionID: "second"}); err != nil {
		t.Fatalf("Save second: %v", err)
	}
	ids, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 || ids[0] != "second" || ids[1] != "first" {
		t.Fatalf("expected [second first], got %v", ids)
	}
}

func TestSaveRejectsEmptySessionID(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Save(context.Background(), sessionstore.Summary{}); err == nil {
		t.Fatalf("expected an error saving a summary with no session_id")
	}
}
