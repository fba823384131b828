package callhistory

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordSwitchAndEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	id, err := store.RecordSwitch(10, "Parrot", DirectionRF, start)
	if err != nil {
		t.Fatalf("RecordSwitch: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected a non-zero record id")
	}

	end := start.Add(5 * time.Second)
	if err := store.RecordEnd(id, end); err != nil {
		t.Fatalf("RecordEnd: %v", err)
	}

	recs, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("Recent() returned %d records, want 1", len(recs))
	}
	if recs[0].DGID != 10 || recs[0].BackendDesc != "Parrot" || recs[0].Direction != string(DirectionRF) {
		t.Errorf("unexpected record: %+v", recs[0])
	}
	if recs[0].EndedAt == nil {
		t.Errorf("expected EndedAt to be set")
	}
}

func TestRecordEndZeroIDIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if err := store.RecordEnd(0, time.Now()); err != nil {
		t.Errorf("RecordEnd(0, ...) should be a no-op, got error: %v", err)
	}
}
