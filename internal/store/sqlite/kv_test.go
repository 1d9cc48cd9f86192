package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestReadMissingKey(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.ReadString(context.Background(), "nope")
	if err != nil {
		t.Fatalf("ReadString: %v", err)
	}
	if ok {
		t.Fatal("missing key should report absent")
	}
}

func TestWriteReadRemove(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.WriteString(ctx, "k", `{"count":2}`); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	got, ok, err := s.ReadString(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("ReadString = %v, %v", ok, err)
	}
	if got != `{"count":2}` {
		t.Fatalf("got %q", got)
	}

	// Upsert replaces.
	if err := s.WriteString(ctx, "k", "v2"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	got, _, _ = s.ReadString(ctx, "k")
	if got != "v2" {
		t.Fatalf("got %q after upsert", got)
	}

	if err := s.RemoveKey(ctx, "k"); err != nil {
		t.Fatalf("RemoveKey: %v", err)
	}
	if _, ok, _ := s.ReadString(ctx, "k"); ok {
		t.Fatal("removed key should be absent")
	}

	// Removing an absent key is not an error.
	if err := s.RemoveKey(ctx, "k"); err != nil {
		t.Fatalf("RemoveKey absent: %v", err)
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.WriteString(ctx, "k", "v"); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, ok, err := s2.ReadString(ctx, "k")
	if err != nil || !ok || got != "v" {
		t.Fatalf("ReadString after reopen = %q, %v, %v", got, ok, err)
	}
}
