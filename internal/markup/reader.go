// Package markup implements the host framework's reader surface for the
// CMake domain: a lightweight markup of markdown documents with embedded
// directive blocks and inline reference roles.
//
// A directive block looks like
//
//	.. cmake:var:: MY_OPTION ON
//	   :noindexentry:
//	   :type: BOOL
//
//	   Body in markdown.
//
// Everything indented under the directive line belongs to the block:
// further declaration lines first, then option and field lines, then the
// description body.
package markup

import (
	"fmt"
	"regexp"
	"strings"
)

// BlockKind discriminates the parts of a parsed document.
type BlockKind int

const (
	ProseBlock BlockKind = iota
	DirectiveBlock
)

// Block is one segment of a source document: either plain markdown prose
// or a directive invocation.
type Block struct {
	Kind      BlockKind
	Line      int
	Markdown  string     // prose content, or the directive's body
	Directive *Directive // set for DirectiveBlock
}

// Directive is a tokenized directive invocation, ready to hand to the
// domain's directive handlers.
type Directive struct {
	Name       string
	Signatures []string
	Options    map[string]bool
	Fields     []Field
	Line       int
	Body       string
}

// Field is one field-list entry, e.g. ":param <glob>: pattern to match".
type Field struct {
	Name  string
	Arg   string
	Value string
}

// Document is a parsed source document.
type Document struct {
	Path   string
	Blocks []Block
}

var (
	directiveStartRe = regexp.MustCompile(`^\.\.\s+([\w:]+)::\s*(.*)$`)
	// The field name ends at the first colon; an argument between name and
	// closing colon must not swallow roles in the value.
	fieldLineRe = regexp.MustCompile(`^:([\w-]+)(?:[ \t]+([^:\n]*?))?:\s*(.*)$`)
)

// Parse splits a source document into prose and directive blocks. Parsing
// is line-based: a directive owns every subsequent line that is blank or
// indented relative to the margin.
func Parse(path string, src []byte) (*Document, error) {
	lines := strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
	doc := &Document{Path: path}

	var prose []string
	proseStart := 0
	flushProse := func(next int) {
		text := strings.TrimSpace(strings.Join(prose, "\n"))
		if text != "" {
			doc.Blocks = append(doc.Blocks, Block{Kind: ProseBlock, Line: proseStart + 1, Markdown: text})
		}
		prose = prose[:0]
		proseStart = next
	}

	i := 0
	for i < len(lines) {
		m := directiveStartRe.FindStringSubmatch(lines[i])
		if m == nil {
			prose = append(prose, lines[i])
			i++
			continue
		}

		flushProse(i)
		start := i
		i++

		var body []string
		for i < len(lines) {
			line := lines[i]
			if strings.TrimSpace(line) != "" && !isIndented(line) {
				break
			}
			body = append(body, line)
			i++
		}

		d, err := parseDirectiveBlock(m[1], m[2], dedent(body), start+1)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, start+1, err)
		}
		doc.Blocks = append(doc.Blocks, Block{Kind: DirectiveBlock, Line: start + 1, Markdown: d.Body, Directive: d})
		proseStart = i
	}
	flushProse(len(lines))

	return doc, nil
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

// dedent strips the common leading whitespace of the block's non-blank
// lines, taking the first non-blank line as the reference.
func dedent(lines []string) []string {
	var indent string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent = line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		break
	}
	if indent == "" {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.TrimPrefix(line, indent)
	}
	return out
}

// parseDirectiveBlock tokenizes the content of one directive: additional
// declaration lines first, then options and fields, then the body. A blank
// line ends the header section.
func parseDirectiveBlock(name, firstSig string, content []string, line int) (*Directive, error) {
	d := &Directive{
		Name:    name,
		Options: make(map[string]bool),
		Line:    line,
	}
	if s := strings.TrimSpace(firstSig); s != "" {
		d.Signatures = append(d.Signatures, s)
	}

	i := 0
	inHeader := true
	var lastField *Field
	for ; i < len(content) && inHeader; i++ {
		text := strings.TrimSpace(content[i])
		if text == "" {
			inHeader = false
			break
		}

		if m := fieldLineRe.FindStringSubmatch(text); m != nil {
			fname, arg, value := m[1], strings.TrimSpace(m[2]), m[3]
			if arg == "" && value == "" {
				d.Options[fname] = true
				lastField = nil
				continue
			}
			d.Fields = append(d.Fields, Field{Name: fname, Arg: arg, Value: value})
			lastField = &d.Fields[len(d.Fields)-1]
			continue
		}

		if lastField != nil && isIndented(content[i]) {
			// Continuation of the previous field's description.
			lastField.Value = strings.TrimSpace(lastField.Value + " " + text)
			continue
		}
		if len(d.Fields) > 0 || len(d.Options) > 0 {
			return nil, fmt.Errorf("declaration line %q after options in %s directive", text, name)
		}
		d.Signatures = append(d.Signatures, text)
	}

	if i < len(content) {
		d.Body = strings.TrimSpace(strings.Join(content[i:], "\n"))
	}
	return d, nil
}
