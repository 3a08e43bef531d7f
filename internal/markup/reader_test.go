package markup

import (
	"strings"
	"testing"
)

func TestParse_ProseOnly(t *testing.T) {
	t.Parallel()

	doc, err := Parse("test.md", []byte("# Title\n\nSome prose.\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Blocks) != 1 || doc.Blocks[0].Kind != ProseBlock {
		t.Fatalf("blocks = %+v", doc.Blocks)
	}
	if !strings.Contains(doc.Blocks[0].Markdown, "Some prose.") {
		t.Errorf("markdown = %q", doc.Blocks[0].Markdown)
	}
}

func TestParse_DirectiveBlock(t *testing.T) {
	t.Parallel()

	src := `Intro prose.

.. cmake:var:: MY_OPTION ON
   :noindexentry:
   :type: BOOL

   Controls the thing.
   Spans two lines.

Outro prose.
`
	doc, err := Parse("test.md", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(doc.Blocks))
	}

	d := doc.Blocks[1].Directive
	if d == nil {
		t.Fatal("middle block is not a directive")
	}
	if d.Name != "cmake:var" {
		t.Errorf("name = %q", d.Name)
	}
	if len(d.Signatures) != 1 || d.Signatures[0] != "MY_OPTION ON" {
		t.Errorf("signatures = %v", d.Signatures)
	}
	if !d.Options["noindexentry"] {
		t.Error("option not parsed")
	}
	if len(d.Fields) != 1 || d.Fields[0].Name != "type" || d.Fields[0].Value != "BOOL" {
		t.Errorf("fields = %+v", d.Fields)
	}
	if want := "Controls the thing.\nSpans two lines."; d.Body != want {
		t.Errorf("body = %q, want %q", d.Body, want)
	}
	if doc.Blocks[1].Markdown != d.Body {
		t.Error("block markdown must mirror the directive body")
	}
}

func TestParse_MultipleSignatureLines(t *testing.T) {
	t.Parallel()

	src := `.. cmake:function:: my_install(<target>)
   my_install(<target> DESTINATION <dir>)
   :param <target>: what to install

   Installs things.
`
	doc, err := Parse("f.md", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	d := doc.Blocks[0].Directive
	if len(d.Signatures) != 2 {
		t.Fatalf("signatures = %v", d.Signatures)
	}
	if len(d.Fields) != 1 || d.Fields[0].Name != "param" || d.Fields[0].Arg != "<target>" {
		t.Errorf("fields = %+v", d.Fields)
	}
}

func TestParse_FieldWithRoleValue(t *testing.T) {
	t.Parallel()

	// The value's role colons must not be mistaken for the field delimiter.
	src := ".. cmake:var:: A\n   :default: see :cmake:var:`B`\n"
	doc, err := Parse("v.md", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	f := doc.Blocks[0].Directive.Fields[0]
	if f.Name != "default" || f.Arg != "" {
		t.Errorf("field = %+v", f)
	}
	if want := "see :cmake:var:`B`"; f.Value != want {
		t.Errorf("value = %q, want %q", f.Value, want)
	}
}

func TestParse_FieldContinuation(t *testing.T) {
	t.Parallel()

	src := `.. cmake:var:: A
   :value ON: enables the feature
      and all its friends
`
	doc, err := Parse("v.md", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	f := doc.Blocks[0].Directive.Fields[0]
	if f.Arg != "ON" {
		t.Errorf("arg = %q", f.Arg)
	}
	if want := "enables the feature and all its friends"; f.Value != want {
		t.Errorf("value = %q, want %q", f.Value, want)
	}
}

func TestParse_DeclarationAfterOptionsFails(t *testing.T) {
	t.Parallel()

	src := `.. cmake:var:: A
   :type: BOOL
   B
`
	if _, err := Parse("v.md", []byte(src)); err == nil {
		t.Fatal("expected error for declaration line after options")
	}
}

func TestParse_DirectiveWithoutBody(t *testing.T) {
	t.Parallel()

	doc, err := Parse("v.md", []byte(".. cmake:target:: mylib\n\nAfter.\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Blocks) != 2 {
		t.Fatalf("blocks = %d", len(doc.Blocks))
	}
	if doc.Blocks[0].Directive.Body != "" {
		t.Errorf("body = %q", doc.Blocks[0].Directive.Body)
	}
}

func TestParse_IndentedProseStaysWithDirective(t *testing.T) {
	t.Parallel()

	src := `.. cmake:module:: FindFoo

   First paragraph.

   Second paragraph.
Unindented ends the block.
`
	doc, err := Parse("m.md", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Blocks) != 2 {
		t.Fatalf("blocks = %d", len(doc.Blocks))
	}
	body := doc.Blocks[0].Directive.Body
	if !strings.Contains(body, "First paragraph.") || !strings.Contains(body, "Second paragraph.") {
		t.Errorf("body = %q", body)
	}
	if doc.Blocks[1].Kind != ProseBlock {
		t.Error("trailing prose lost")
	}
}
