package build

import (
	"strings"
	"testing"

	"github.com/MarcoKoch/sphinx-cmake-domain/internal/cas"
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/config"
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/domain"
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/markup"
)

func newRenderSession(t *testing.T) *Session {
	t.Helper()
	return &Session{
		cfg: &config.Config{
			SourceDir:              "docs",
			OutputDir:              t.TempDir(),
			AddFunctionParentheses: true,
			HTMLDomainIndices:      true,
		},
		bodies: cas.New(t.TempDir()),
		log:    testLog,
	}
}

func TestRenderPage_ResolvesReferences(t *testing.T) {
	t.Parallel()
	s := newRenderSession(t)

	reg := domain.NewRegistry()
	reg.SetDocumentRank("vars.md", 0)
	reg.SetDocumentRank("funcs.md", 1)
	reg.Register(&domain.Entity{
		Type: domain.Variable, Key: "MY_VAR", Document: "vars.md", Anchor: "cmake-var-my_var",
	})
	reg.Register(&domain.Entity{
		Type: domain.Function, Key: "do_thing", Document: "funcs.md", Anchor: "cmake-func-do_thing",
	})

	body := markup.EncodeRoles("See :cmake:var:`MY_VAR`, :cmake:func:`do_thing` and :cmake:var:`MISSING`.")
	hash, err := s.bodies.Write(body)
	if err != nil {
		t.Fatal(err)
	}

	out, err := s.renderPage(reg, &Page{
		Document: "funcs.md",
		Blocks:   []PageBlock{{Kind: blockProse, BodyHash: hash}},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Same-page reference keeps a bare fragment href.
	if !strings.Contains(out, `href="#cmake-func-do_thing"`) {
		t.Errorf("same-page link missing: %q", out)
	}
	if !strings.Contains(out, `href="vars.html#cmake-var-my_var"`) {
		t.Errorf("cross-page link missing: %q", out)
	}
	// Display decoration in the link text.
	if !strings.Contains(out, ">do_thing()<") {
		t.Errorf("decorated link text missing: %q", out)
	}
	// Unresolved reference degrades to literal text.
	if !strings.Contains(out, "<code>MISSING</code>") {
		t.Errorf("unresolved reference not degraded: %q", out)
	}
}

func TestRenderPage_EntityBlock(t *testing.T) {
	t.Parallel()
	s := newRenderSession(t)

	reg := domain.NewRegistry()
	reg.SetDocumentRank("vars.md", 0)
	reg.Register(&domain.Entity{
		Type: domain.Variable, Key: "MY_OPTION", Document: "vars.md",
		Anchor: "cmake-var-my_option", VarType: "BOOL",
		Values: []domain.ValueDoc{{Value: "ON", Doc: "enabled"}},
	})

	hash, err := s.bodies.Write("Controls the thing.")
	if err != nil {
		t.Fatal(err)
	}

	out, err := s.renderPage(reg, &Page{
		Document: "vars.md",
		Blocks: []PageBlock{{
			Kind:     blockEntity,
			BodyHash: hash,
			Headers:  []domain.Header{{Text: "MY_OPTION = ON", Anchor: "cmake-var-my_option"}},
			Refs:     []EntityRef{{Type: domain.Variable, Key: "MY_OPTION"}},
		}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out, `<dt id="cmake-var-my_option">`) {
		t.Errorf("anchored header missing: %q", out)
	}
	if !strings.Contains(out, "MY_OPTION = ON") {
		t.Errorf("header text missing: %q", out)
	}
	if !strings.Contains(out, "Controls the thing.") {
		t.Errorf("body missing: %q", out)
	}
	if !strings.Contains(out, "BOOL") || !strings.Contains(out, "enabled") {
		t.Errorf("field list missing: %q", out)
	}
}

func TestRenderIndex(t *testing.T) {
	t.Parallel()
	s := newRenderSession(t)

	reg := domain.NewRegistry()
	reg.SetDocumentRank("sub/vars.md", 0)
	reg.Register(&domain.Entity{
		Type: domain.Variable, Key: "MY_VAR", Document: "sub/vars.md", Anchor: "cmake-var-my_var",
	})

	out := s.renderIndex(reg)
	if !strings.Contains(out, "<h2>M</h2>") {
		t.Errorf("group heading missing: %q", out)
	}
	if !strings.Contains(out, `href="sub/vars.html#cmake-var-my_var"`) {
		t.Errorf("index link missing: %q", out)
	}
	if !strings.Contains(out, "(variable)") {
		t.Errorf("type label missing: %q", out)
	}
}

func TestRelHref(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to, want string
	}{
		{"a.md", "a.md", ""},
		{"a.md", "b.md", "b.html"},
		{"sub/a.md", "b.md", "../b.html"},
		{"a.md", "sub/b.md", "sub/b.html"},
		{"sub/a.md", "sub/b.md", "b.html"},
	}
	for _, tt := range tests {
		if got := relHref(tt.from, tt.to); got != tt.want {
			t.Errorf("relHref(%q, %q) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}
