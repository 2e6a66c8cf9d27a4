package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	domrepo "TraderBlock/internal/domain/repository"
)

func exerciseStore(t *testing.T, s domrepo.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx)
	if err != nil || got != nil {
		t.Fatalf("empty store: got %q, %v", got, err)
	}
	if err := s.Save(ctx, []byte(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, []byte(`{"b":2}`)); err != nil {
		t.Fatal(err)
	}
	got, err = s.Load(ctx)
	if err != nil || string(got) != `{"b":2}` {
		t.Fatalf("expected last snapshot, got %q, %v", got, err)
	}
}

func TestFileSnapshotStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	s := NewFileSnapshotStore(path)
	exerciseStore(t, s)

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestSQLiteSnapshotStore(t *testing.T) {
	s, err := NewSQLiteSnapshotStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestNoopSnapshotStore(t *testing.T) {
	var s NoopSnapshotStore
	if err := s.Save(context.Background(), []byte("x")); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Load(context.Background()); got != nil {
		t.Fatalf("noop store must not return data")
	}
}
