package build

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/MarcoKoch/sphinx-cmake-domain/internal/cas"
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/domain"
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/markup"
)

// readResult is one document's contribution to the build: its scratch
// registry and its page model.
type readResult struct {
	Source   Source
	Registry *domain.Registry
	Page     *Page
}

// readDocument parses one source document, registers its entities into a
// fresh scratch registry and assembles its page model. Role references are
// encoded as pseudo-links inside the stored bodies; they stay unresolved
// until the whole document set is assembled.
func readDocument(src Source, bodies *cas.Store, opts domain.DisplayOptions, log *slog.Logger) (*readResult, error) {
	content, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src.Path, err)
	}

	doc, err := markup.Parse(src.Document, content)
	if err != nil {
		return nil, err
	}

	reg := domain.NewRegistry()
	reg.SetDocumentRank(src.Document, src.Order)
	page := &Page{Document: src.Document}

	for _, block := range doc.Blocks {
		body := markup.EncodeRoles(block.Markdown)
		var bodyHash string
		if body != "" {
			if bodyHash, err = bodies.Write(body); err != nil {
				return nil, fmt.Errorf("storing body of %s: %w", src.Document, err)
			}
		}

		if block.Kind == markup.ProseBlock {
			page.Blocks = append(page.Blocks, PageBlock{Kind: blockProse, BodyHash: bodyHash})
			continue
		}

		d := &domain.Directive{
			Name:       block.Directive.Name,
			Signatures: block.Directive.Signatures,
			Options:    block.Directive.Options,
			Fields:     toDomainFields(block.Directive.Fields),
			Document:   src.Document,
			Line:       block.Directive.Line,
			BodyHash:   bodyHash,
		}

		before := reg.ByDocument(src.Document)
		headers, err := domain.HandleDirective(reg, d, opts, log)
		if err != nil {
			// Unknown directive name: authoring mistake, keep the body as prose.
			log.Warn("skipping directive", "document", src.Document, "line", d.Line, "error", err)
			page.Blocks = append(page.Blocks, PageBlock{Kind: blockProse, BodyHash: bodyHash})
			continue
		}

		pb := PageBlock{Kind: blockEntity, BodyHash: bodyHash, Headers: headers}
		for _, e := range reg.ByDocument(src.Document)[len(before):] {
			pb.Refs = append(pb.Refs, EntityRef{Type: e.Type, Key: e.Key})
		}
		page.Blocks = append(page.Blocks, pb)
	}

	return &readResult{Source: src, Registry: reg, Page: page}, nil
}

func toDomainFields(fields []markup.Field) []domain.Field {
	out := make([]domain.Field, len(fields))
	for i, f := range fields {
		out[i] = domain.Field{Name: f.Name, Arg: f.Arg, Value: f.Value}
	}
	return out
}
