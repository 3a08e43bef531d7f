// Package cas stores rendered description bodies content-addressed by
// SHA-256, zstd-compressed. Identical bodies across documents and across
// incremental builds share one file.
package cas

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// path returns the sharded file path for a hash: <dir>/<first2>/<rest>.md.zst
func (s *Store) path(hash string) string {
	return filepath.Join(s.dir, hash[:2], hash[2:]+".md.zst")
}

// Write stores content, returning its SHA-256 hash. Writing content that
// already exists is a no-op.
func (s *Store) Write(content string) (string, error) {
	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(content)))

	p := s.path(hash)
	if _, err := os.Stat(p); err == nil {
		return hash, nil
	}

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("creating body store directory: %w", err)
	}

	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return "", fmt.Errorf("creating zstd writer: %w", err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		w.Close()
		return "", fmt.Errorf("compressing body: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("closing zstd writer: %w", err)
	}

	if err := os.WriteFile(p, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing body file: %w", err)
	}

	return hash, nil
}

// Read retrieves content by hash.
func (s *Store) Read(hash string) (string, error) {
	if len(hash) < 3 {
		return "", fmt.Errorf("invalid body hash %q", hash)
	}

	f, err := os.Open(s.path(hash))
	if err != nil {
		return "", fmt.Errorf("opening body file: %w", err)
	}
	defer f.Close()

	r, err := zstd.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("creating zstd reader: %w", err)
	}
	defer r.Close()

	content, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decompressing body: %w", err)
	}

	return string(content), nil
}

// Clear removes the whole store.
func (s *Store) Clear() error {
	return os.RemoveAll(s.dir)
}
