package build

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MarcoKoch/sphinx-cmake-domain/internal/cas"
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/domain"
)

var testLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func readTestDocument(t *testing.T, content string) (*readResult, *cas.Store) {
	t.Helper()
	dir := t.TempDir()
	writeSource(t, dir, "doc.md", content)
	bodies := cas.New(filepath.Join(dir, "cas"))

	res, err := readDocument(Source{
		Document: "doc.md",
		Path:     filepath.Join(dir, "doc.md"),
		Order:    0,
	}, bodies, domain.DisplayOptions{FunctionParens: true}, testLog)
	if err != nil {
		t.Fatal(err)
	}
	return res, bodies
}

func TestReadDocument(t *testing.T) {
	t.Parallel()

	res, bodies := readTestDocument(t, `Intro referencing :cmake:var:`+"`MY_OPTION`"+`.

.. cmake:var:: MY_OPTION ON
   :type: BOOL

   Controls the thing.
`)

	if len(res.Page.Blocks) != 2 {
		t.Fatalf("blocks = %+v", res.Page.Blocks)
	}

	prose := res.Page.Blocks[0]
	if prose.Kind != blockProse || prose.BodyHash == "" {
		t.Fatalf("prose block = %+v", prose)
	}
	body, err := bodies.Read(prose.BodyHash)
	if err != nil {
		t.Fatal(err)
	}
	// Roles are stored in encoded link form.
	if !strings.Contains(body, "cmakeref://var/MY_OPTION") {
		t.Errorf("stored prose = %q", body)
	}

	entity := res.Page.Blocks[1]
	if entity.Kind != blockEntity {
		t.Fatalf("entity block = %+v", entity)
	}
	if len(entity.Headers) != 1 || entity.Headers[0].Text != "MY_OPTION = ON" {
		t.Errorf("headers = %+v", entity.Headers)
	}
	if len(entity.Refs) != 1 || entity.Refs[0].Key != "MY_OPTION" {
		t.Errorf("refs = %+v", entity.Refs)
	}

	matches := res.Registry.Lookup(domain.Variable, "MY_OPTION")
	if len(matches) != 1 || matches[0].VarType != "BOOL" {
		t.Fatalf("registry = %+v", matches)
	}
	if matches[0].BodyHash != entity.BodyHash {
		t.Error("entity body not shared with the page block")
	}
}

func TestReadDocument_UnknownDirectiveBecomesProse(t *testing.T) {
	t.Parallel()

	res, _ := readTestDocument(t, `.. cmake:property:: WHATEVER

   Body text.
`)

	if len(res.Page.Blocks) != 1 || res.Page.Blocks[0].Kind != blockProse {
		t.Fatalf("blocks = %+v", res.Page.Blocks)
	}
	if got := len(res.Registry.All(domain.AnyType)); got != 0 {
		t.Errorf("unknown directive registered %d entities", got)
	}
}

func TestReadDocument_MissingFile(t *testing.T) {
	t.Parallel()

	bodies := cas.New(t.TempDir())
	_, err := readDocument(Source{Document: "gone.md", Path: filepath.Join(t.TempDir(), "gone.md")},
		bodies, domain.DisplayOptions{}, testLog)
	if err == nil {
		t.Fatal("expected error for missing source")
	}
}
