package build

import (
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/MarcoKoch/sphinx-cmake-domain/internal/domain"
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/markup"
)

// IndexDocument is the document id of the generated entity index page.
const IndexDocument = "cmake-index"

// writeOutput renders every page from its persisted model and the merged
// registry. Unresolvable references degrade to literal text with a warning;
// they never fail the build.
func (s *Session) writeOutput(reg *domain.Registry, sources []Source) (int, error) {
	pages, err := s.store.Pages()
	if err != nil {
		return 0, err
	}

	written := 0
	for _, src := range sources {
		raw, ok := pages[src.Document]
		if !ok {
			s.log.Warn("no page model, skipping", "document", src.Document)
			continue
		}
		var page Page
		if err := json.Unmarshal([]byte(raw), &page); err != nil {
			return written, fmt.Errorf("decoding page of %s: %w", src.Document, err)
		}
		out, err := s.renderPage(reg, &page)
		if err != nil {
			return written, err
		}
		if err := s.writePage(src.Document, out); err != nil {
			return written, err
		}
		written++
	}

	if s.cfg.HTMLDomainIndices {
		if err := s.writePage(IndexDocument+".md", s.renderIndex(reg)); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// writePage writes one rendered page under the output directory, swapping
// the ".md" suffix for ".html".
func (s *Session) writePage(doc, content string) error {
	rel := strings.TrimSuffix(doc, ".md") + ".html"
	dst := filepath.Join(s.cfg.OutputDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dst, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}

func (s *Session) renderPage(reg *domain.Registry, page *Page) (string, error) {
	rewrite := s.refRewriter(reg, page.Document)
	entities := entitiesByRef(reg, page.Document)

	var b strings.Builder
	seenAnchors := make(map[string]bool)
	for _, block := range page.Blocks {
		body := ""
		if block.BodyHash != "" {
			var err error
			if body, err = s.bodies.Read(block.BodyHash); err != nil {
				return "", fmt.Errorf("body %s of %s: %w", block.BodyHash, page.Document, err)
			}
		}

		if block.Kind == blockProse {
			if body != "" {
				b.WriteString(markup.RenderHTML(markup.RewriteRefLinks(body, rewrite)))
				b.WriteString("\n")
			}
			continue
		}

		b.WriteString(`<dl class="cmake">` + "\n")
		for _, h := range block.Headers {
			// Multi-name declarations share one anchor; emit the id once.
			if h.Anchor != "" && !seenAnchors[h.Anchor] {
				seenAnchors[h.Anchor] = true
				fmt.Fprintf(&b, "<dt id=%q><code>%s</code></dt>\n", h.Anchor, html.EscapeString(h.Text))
			} else {
				fmt.Fprintf(&b, "<dt><code>%s</code></dt>\n", html.EscapeString(h.Text))
			}
		}
		b.WriteString("<dd>\n")
		if body != "" {
			b.WriteString(markup.RenderHTML(markup.RewriteRefLinks(body, rewrite)))
			b.WriteString("\n")
		}
		for _, ref := range block.Refs {
			if e, ok := entities[ref]; ok {
				b.WriteString(s.renderFields(e, rewrite))
			}
		}
		b.WriteString("</dd>\n</dl>\n")
	}

	title := strings.TrimSuffix(path.Base(page.Document), ".md")
	return htmlPage(title, b.String()), nil
}

// entitiesByRef maps a page's entity references to the registry entities
// the page's document contributed.
func entitiesByRef(reg *domain.Registry, doc string) map[EntityRef]*domain.Entity {
	out := make(map[EntityRef]*domain.Entity)
	for _, e := range reg.ByDocument(doc) {
		out[EntityRef{Type: e.Type, Key: e.Key}] = e
	}
	return out
}

// renderFields renders the structured field list of one entity.
func (s *Session) renderFields(e *domain.Entity, rewrite markup.RefRewriter) string {
	var rows []string
	row := func(label, valueHTML string) {
		rows = append(rows, fmt.Sprintf("<dt>%s</dt><dd>%s</dd>",
			html.EscapeString(label), valueHTML))
	}

	if e.VarType != "" {
		row("Type", html.EscapeString(e.VarType))
	}
	if e.DefaultField != "" {
		row("Default", s.renderInline(e.DefaultField, rewrite))
	}
	for _, v := range e.Values {
		row("Value "+v.Value, s.renderInline(v.Doc, rewrite))
	}
	for _, p := range e.Params {
		row("Parameter "+p.Name, s.renderInline(p.Doc, rewrite))
	}

	if len(rows) == 0 {
		return ""
	}
	return `<dl class="field-list">` + "\n" + strings.Join(rows, "\n") + "\n</dl>\n"
}

// renderInline renders a one-line markdown fragment without the block-level
// paragraph wrapper.
func (s *Session) renderInline(src string, rewrite markup.RefRewriter) string {
	out := markup.RenderHTML(markup.RewriteRefLinks(markup.EncodeRoles(src), rewrite))
	out = strings.TrimPrefix(out, "<p>")
	out = strings.TrimSuffix(out, "</p>")
	return out
}

// refRewriter resolves role references relative to one page. Resolution
// failures are authoring warnings, never build errors.
func (s *Session) refRewriter(reg *domain.Registry, doc string) markup.RefRewriter {
	opts := s.cfg.Display()
	return func(role, target string) (string, string, bool) {
		res := domain.Resolve(reg, role, target, opts)
		switch res.State {
		case domain.Resolved:
			return relHref(doc, res.Entity.Document) + "#" + res.Entity.Anchor, res.Title, true
		case domain.Ambiguous:
			s.log.Warn("ambiguous reference",
				"document", doc, "role", role, "target", target,
				"candidates", len(res.Candidates))
		default:
			s.log.Warn("unresolved reference",
				"document", doc, "role", role, "target", target)
		}
		return "", "", false
	}
}

// relHref builds the href from one document's page to another's.
func relHref(from, to string) string {
	if from == to {
		return ""
	}
	rel, err := filepath.Rel(path.Dir(from), to)
	if err != nil {
		rel = to
	}
	return strings.TrimSuffix(filepath.ToSlash(rel), ".md") + ".html"
}

func (s *Session) renderIndex(reg *domain.Registry) string {
	groups := domain.BuildIndex(reg, s.cfg.IndexOptions())

	var b strings.Builder
	b.WriteString("<h1>CMake Index</h1>\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "<h2>%s</h2>\n<ul>\n", html.EscapeString(g.Key))
		for _, entry := range g.Entries {
			b.WriteString(indexItem(entry))
		}
		b.WriteString("</ul>\n")
	}
	return htmlPage("CMake Index", b.String())
}

func indexItem(entry domain.IndexEntry) string {
	var b strings.Builder
	b.WriteString("<li>")
	if entry.Document != "" {
		href := relHref(IndexDocument+".md", entry.Document) + "#" + entry.Anchor
		fmt.Fprintf(&b, "<a href=%q>%s</a>", href, html.EscapeString(entry.Name))
	} else {
		b.WriteString(html.EscapeString(entry.Name))
	}
	if entry.TypeLabel != "" {
		fmt.Fprintf(&b, " <em>(%s)</em>", html.EscapeString(entry.TypeLabel))
	}
	if len(entry.Subentries) > 0 {
		b.WriteString("\n<ul>\n")
		for _, sub := range entry.Subentries {
			b.WriteString(indexItem(sub))
		}
		b.WriteString("</ul>\n")
	}
	b.WriteString("</li>\n")
	return b.String()
}

func htmlPage(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`, html.EscapeString(title), body)
}
