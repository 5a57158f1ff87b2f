package history

import (
	"path/filepath"
	"testing"
	"time"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history.jsonl"))
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	return store
}

func TestAppendAndRecent(t *testing.T) {
	store := testStore(t)

	for i, id := range []string{"first", "second", "third"} {
		err := store.Append(Record{
			UnitID:     id,
			Input:      "in",
			Output:     "out",
			DurationMS: int64(i),
			Success:    true,
		})
		if err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}

	records, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Recent(2) returned %d records", len(records))
	}
	if records[0].UnitID != "second" || records[1].UnitID != "third" {
		t.Errorf("records = %s, %s, want the last two oldest-first", records[0].UnitID, records[1].UnitID)
	}
	if records[0].Timestamp.IsZero() {
		t.Error("Append() should stamp records")
	}
}

func TestRecentMissingFile(t *testing.T) {
	store := testStore(t)

	records, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if records != nil {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestFailedRunRecord(t *testing.T) {
	store := testStore(t)

	err := store.Append(Record{
		UnitID:  "openai/gpt-4o-mini",
		Input:   "in",
		Success: false,
		Error:   "rate limited",
	})
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	records, err := store.Recent(0)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(records) != 1 || records[0].Success || records[0].Error != "rate limited" {
		t.Errorf("records = %+v", records)
	}
}

func TestClear(t *testing.T) {
	store := testStore(t)

	if err := store.Append(Record{UnitID: "u", Input: "in", Timestamp: time.Now()}); err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() on missing file error: %v", err)
	}

	records, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty history after Clear, got %d", len(records))
	}
}
