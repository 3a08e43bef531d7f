package build

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MarcoKoch/sphinx-cmake-domain/internal/state"
)

// Source is one discovered source document.
type Source struct {
	Document string // document id: source-relative path, slash-separated
	Path     string // filesystem path
	Hash     string
	Order    int // deterministic document-processing rank
}

// Plan describes the work of one build pass.
type Plan struct {
	Sources []Source // all current documents, in document order
	Changed []Source // documents to purge and re-read
	Removed []string // documents that no longer exist
}

// DiscoverSources walks the source directory for markdown documents and
// hashes their content. Document order is the sorted document id order,
// which keeps resolution deterministic regardless of read parallelism.
func DiscoverSources(dir string) ([]Source, error) {
	var sources []Source
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		sources = append(sources, Source{
			Document: filepath.ToSlash(rel),
			Path:     path,
			Hash:     fmt.Sprintf("%x", sha256.Sum256(content)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(sources, func(i, j int) bool { return sources[i].Document < sources[j].Document })
	for i := range sources {
		sources[i].Order = i
	}
	return sources, nil
}

// MakePlan compares the discovered sources against the stored document
// records. force marks every document as changed.
func MakePlan(sources []Source, stored map[string]state.DocInfo, force bool) Plan {
	p := Plan{Sources: sources}

	current := make(map[string]bool, len(sources))
	for _, src := range sources {
		current[src.Document] = true
		info, ok := stored[src.Document]
		if force || !ok || info.Hash != src.Hash {
			p.Changed = append(p.Changed, src)
		}
	}

	for doc := range stored {
		if !current[doc] {
			p.Removed = append(p.Removed, doc)
		}
	}
	sort.Strings(p.Removed)
	return p
}
