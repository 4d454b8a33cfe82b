package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/griffi-gh/awfuldb/internal/engine"
)

func TestBackupRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	db, err := engine.Create(f)
	if err != nil {
		t.Fatalf("engine.Create: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	snapshot := filepath.Join(dir, "db.gz")
	if err := cmdBackup([]string{path, snapshot}); err != nil {
		t.Fatalf("cmdBackup: %v", err)
	}

	restored := filepath.Join(dir, "db.restored")
	if err := cmdRestore([]string{snapshot, restored}); err != nil {
		t.Fatalf("cmdRestore: %v", err)
	}

	got, err := os.ReadFile(restored)
	if err != nil {
		t.Fatalf("ReadFile restored: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("restored file mismatch: got %d bytes, want %d bytes", len(got), len(want))
	}
}
