package cas

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteRead_RoundTrip(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	content := "Controls the *thing*.\n\nSee [X](cmakeref://var/X)."
	hash, err := s.Write(content)
	if err != nil {
		t.Fatal(err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}

	got, err := s.Read(hash)
	if err != nil {
		t.Fatal(err)
	}
	if got != content {
		t.Errorf("round-trip failed: got %q, want %q", got, content)
	}
}

func TestWrite_Dedup(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	hash1, err := s.Write("shared body")
	if err != nil {
		t.Fatal(err)
	}
	hash2, err := s.Write("shared body")
	if err != nil {
		t.Fatal(err)
	}
	if hash1 != hash2 {
		t.Errorf("same content produced different hashes: %s vs %s", hash1, hash2)
	}
}

func TestWrite_Sharding(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)

	hash, err := s.Write("body")
	if err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(dir, hash[:2], hash[2:]+".md.zst")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected body file at %s: %v", want, err)
	}
}

func TestRead_Missing(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir())

	if _, err := s.Read("0000000000000000000000000000000000000000000000000000000000000000"); err == nil {
		t.Fatal("expected error for missing body")
	}
	if _, err := s.Read("xy"); err == nil {
		t.Fatal("expected error for invalid hash")
	}
}

func TestClear(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir)

	hash, err := s.Write("body")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(hash); err == nil {
		t.Error("body survived Clear")
	}
}
