package cache

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	results := []byte(`{"web": [], "code": [{"source": "pattern-scanner", "severity": 5.0}]}`)
	if err := store.Save(ctx, "scan-1", results); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	entry, err := store.Get(ctx, "scan-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry == nil {
		t.Fatal("Get() returned nil for saved entry")
	}
	if entry.ScanID != "scan-1" {
		t.Errorf("ScanID = %q, want %q", entry.ScanID, "scan-1")
	}
	if !bytes.Equal(entry.Results, results) {
		t.Errorf("Results = %s, want %s", entry.Results, results)
	}
	if entry.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestStore_GetAbsent(t *testing.T) {
	store := openTestStore(t)

	entry, err := store.Get(context.Background(), "never-saved")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if entry != nil {
		t.Errorf("Get() = %+v, want nil for absent key", entry)
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "scan-1", []byte(`{"web": [], "code": []}`)); err != nil {
		t.Fatal(err)
	}
	second := []byte(`{"web": [{"severity": 9.0}], "code": []}`)
	if err := store.Save(ctx, "scan-1", second); err != nil {
		t.Fatal(err)
	}

	entry, err := store.Get(ctx, "scan-1")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(entry.Results, second) {
		t.Errorf("Results = %s, want last write %s", entry.Results, second)
	}
}

func TestStore_ResultStoreMethods(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	raw, err := store.GetResults(ctx, "missing")
	if err != nil || raw != nil {
		t.Errorf("GetResults(missing) = %v, %v, want nil, nil", raw, err)
	}

	payload := []byte(`{"web": [], "code": []}`)
	if err := store.SaveResults(ctx, "scan-2", payload); err != nil {
		t.Fatal(err)
	}
	raw, err = store.GetResults(ctx, "scan-2")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw, payload) {
		t.Errorf("GetResults = %s, want %s", raw, payload)
	}
}

func TestStore_Prune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "recent", []byte(`{"web": [], "code": []}`)); err != nil {
		t.Fatal(err)
	}
	// Backdate one entry past the cutoff.
	old := time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339)
	if _, err := store.conn.ExecContext(ctx,
		"INSERT INTO scan_results (scan_id, results, created_at) VALUES (?, ?, ?)",
		"stale", `{"web": [], "code": []}`, old); err != nil {
		t.Fatal(err)
	}

	n, err := store.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() removed %d, want 1", n)
	}

	if entry, _ := store.Get(ctx, "stale"); entry != nil {
		t.Error("stale entry should be pruned")
	}
	if entry, _ := store.Get(ctx, "recent"); entry == nil {
		t.Error("recent entry should survive pruning")
	}
}
