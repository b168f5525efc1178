package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreWriteAndURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "http://localhost:8080/static/")
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	key, err := store.Write(context.Background(), "./exports/abc/reports.csv", []byte("a,b\n"))
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if key != "exports/abc/reports.csv" {
		t.Fatalf("unexpected key %q", key)
	}
	data, err := os.ReadFile(filepath.Join(dir, "exports", "abc", "reports.csv"))
	if err != nil || string(data) != "a,b\n" {
		t.Fatalf("stored file = %q, %v", data, err)
	}
	if got := store.URL(key); got != "http://localhost:8080/static/exports/abc/reports.csv" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	for _, key := range []string{"", "../etc/passwd", "exports/../../x", "."} {
		if _, err := store.Write(context.Background(), key, nil); err == nil {
			t.Fatalf("Write(%q) expected error", key)
		}
	}
	if got := store.URL("exports/a.csv"); got != "/static/exports/a.csv" {
		t.Fatalf("unexpected relative url %q", got)
	}
}

func TestFileStorePrune(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "")
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	ctx := context.Background()
	oldKey, _ := store.Write(ctx, "exports/old/a.csv", []byte("x"))
	if _, err := store.Write(ctx, "exports/new/b.csv", []byte("y")); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, filepath.FromSlash(oldKey)), past, past); err != nil {
		t.Fatalf("Chtimes error: %v", err)
	}

	removed, err := store.Prune(ctx, "exports", time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed file, got %d", removed)
	}
	if _, err := os.Stat(filepath.Join(dir, "exports", "new", "b.csv")); err != nil {
		t.Fatalf("fresh export should survive: %v", err)
	}

	if n, err := store.Prune(ctx, "missing", time.Now()); err != nil || n != 0 {
		t.Fatalf("Prune on missing prefix = %d, %v", n, err)
	}
}
