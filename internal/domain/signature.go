package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Signature is one parsed macro/function declaration line.
type Signature struct {
	Name string `json:"name"`
	// ParamsPresent distinguishes "name()" (empty list, still rendered
	// with parentheses) from a bare "name" (no list at all).
	ParamsPresent bool `json:"params_present"`
	// Raw is the verbatim parameter-list text between the parentheses.
	Raw string `json:"raw,omitempty"`
	// Params is the parsed parameter tree. Nil when the list is absent or
	// could not be parsed; Raw is still available for verbatim display.
	Params *ParamNode `json:"params,omitempty"`
}

// ParamKind classifies a node in a parsed parameter list.
type ParamKind string

const (
	ParamArgument ParamKind = "argument" // <value>
	ParamKeyword  ParamKind = "keyword"  // KEYWORD
	ParamEllipsis ParamKind = "ellipsis" // ...
	ParamOptional ParamKind = "optional" // [ ... ]
	ParamGroup    ParamKind = "group"    // ( ... )
	ParamChoice   ParamKind = "choice"   // a|b
	paramRoot     ParamKind = "root"
)

// ParamNode is a node in a macro/function parameter tree. The tree mirrors
// the bracket/alternation notation authors use to express optional and
// alternative arguments; it is a delimiting structure, not a semantic one.
type ParamNode struct {
	Kind     ParamKind    `json:"kind"`
	Token    string       `json:"token,omitempty"` // argument name or keyword text
	Children []*ParamNode `json:"children,omitempty"`
}

// Render returns the plain-text form of the node.
func (n *ParamNode) Render() string {
	switch n.Kind {
	case ParamArgument:
		return "<" + n.Token + ">"
	case ParamKeyword:
		return n.Token
	case ParamEllipsis:
		return "..."
	case ParamOptional:
		return "[" + joinChildren(n, " ") + "]"
	case ParamGroup:
		return "(" + joinChildren(n, " ") + ")"
	case ParamChoice:
		return joinChildren(n, "|")
	case paramRoot:
		return joinChildren(n, " ")
	default:
		return ""
	}
}

func joinChildren(n *ParamNode, sep string) string {
	parts := make([]string, len(n.Children))
	for i, c := range n.Children {
		parts[i] = c.Render()
	}
	return strings.Join(parts, sep)
}

// Tokens collects the parameter tokens of the tree: argument names in
// their "<name>" spelling and keywords verbatim. Used to match :param:
// fields against declared parameters.
func (n *ParamNode) Tokens() []string {
	var tokens []string
	n.walk(func(node *ParamNode) {
		switch node.Kind {
		case ParamArgument:
			tokens = append(tokens, "<"+node.Token+">")
		case ParamKeyword:
			tokens = append(tokens, node.Token)
		}
	})
	return tokens
}

func (n *ParamNode) walk(fn func(*ParamNode)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// ParseSignature parses a macro/function declaration into a name and an
// optional parameter list. The whole text is the name when no "(" is
// present. Unbalanced parentheses or trailing text after the list make the
// declaration malformed: the returned signature is still usable as a
// best-effort result, alongside a non-nil error.
func ParseSignature(text string) (Signature, error) {
	text = strings.TrimSpace(text)

	open := strings.IndexByte(text, '(')
	if open < 0 {
		return Signature{Name: text}, nil
	}

	name := strings.TrimSpace(text[:open])
	sig := Signature{Name: name, ParamsPresent: true}
	if name == "" {
		return sig, fmt.Errorf("missing name before parameter list in %q", text)
	}

	end := matchingParen(text, open)
	if end < 0 {
		sig.Raw = strings.TrimSpace(text[open+1:])
		return sig, fmt.Errorf("unbalanced parentheses in declaration %q", text)
	}
	if rest := strings.TrimSpace(text[end+1:]); rest != "" {
		sig.Raw = strings.TrimSpace(text[open+1 : end])
		return sig, fmt.Errorf("unexpected text %q after parameter list in %q", rest, text)
	}

	sig.Raw = strings.TrimSpace(text[open+1 : end])

	params, err := parseParamList(text[open+1 : end])
	if err != nil {
		return sig, fmt.Errorf("parsing parameters of %s: %w", name, err)
	}
	sig.Params = params
	return sig, nil
}

// matchingParen returns the index of the parenthesis closing the one at
// open, or -1 if the list never closes.
func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// Parameter-list token patterns, tried in order against the remaining text.
var paramTokenPatterns = []struct {
	kind ParamKind
	re   *regexp.Regexp
}{
	{ParamArgument, regexp.MustCompile(`^\s*<(\w+)>`)},
	{ParamKeyword, regexp.MustCompile(`^\s*(\w+)`)},
	{ParamEllipsis, regexp.MustCompile(`^\s*\.\.\.`)},
	{"(", regexp.MustCompile(`^\s*\(`)},
	{")", regexp.MustCompile(`^\s*\)`)},
	{"[", regexp.MustCompile(`^\s*\[`)},
	{"]", regexp.MustCompile(`^\s*\]`)},
	{"|", regexp.MustCompile(`^\s*\|`)},
}

type paramToken struct {
	kind ParamKind
	text string // argument/keyword payload
	pos  int
}

func tokenizeParamList(params string) ([]paramToken, error) {
	var tokens []paramToken
	pos := 0
	for pos < len(params) {
		if rest := strings.TrimSpace(params[pos:]); rest == "" {
			break
		}
		matched := false
		for _, p := range paramTokenPatterns {
			m := p.re.FindStringSubmatch(params[pos:])
			if m == nil {
				continue
			}
			tok := paramToken{kind: p.kind, pos: pos}
			if len(m) > 1 {
				tok.text = m[1]
			}
			tokens = append(tokens, tok)
			pos += len(m[0])
			matched = true
			break
		}
		if !matched {
			return nil, fmt.Errorf("unexpected text at column %d: %q", pos, params[pos:])
		}
	}
	return tokens, nil
}

// parseParamList builds the parameter tree for the text between the outer
// parentheses of a declaration. A whitespace-only list yields a root node
// with no children, which is distinct from an absent list.
func parseParamList(params string) (*ParamNode, error) {
	tokens, err := tokenizeParamList(params)
	if err != nil {
		return nil, err
	}

	root := &ParamNode{Kind: paramRoot}
	stack := []*ParamNode{root}
	top := func() *ParamNode { return stack[len(stack)-1] }

	for i, tok := range tokens {
		newFrame := false

		switch tok.kind {
		case ParamArgument:
			appendChild(top(), &ParamNode{Kind: ParamArgument, Token: tok.text})

		case ParamKeyword:
			appendChild(top(), &ParamNode{Kind: ParamKeyword, Token: tok.text})

		case ParamEllipsis:
			if len(top().Children) == 0 {
				return nil, unexpectedToken(tok, i)
			}
			appendChild(top(), &ParamNode{Kind: ParamEllipsis})

		case "(":
			node := &ParamNode{Kind: ParamGroup}
			appendChild(top(), node)
			stack = append(stack, node)
			newFrame = true

		case ")":
			if top().Kind != ParamGroup {
				return nil, unexpectedToken(tok, i)
			}
			closed := top()
			stack = stack[:len(stack)-1]
			switch len(closed.Children) {
			case 0:
				removeChild(top(), closed)
			case 1:
				// A group around a single element adds nothing.
				replaceChild(top(), closed, closed.Children[0])
			}

		case "[":
			node := &ParamNode{Kind: ParamOptional}
			appendChild(top(), node)
			stack = append(stack, node)
			newFrame = true

		case "]":
			if top().Kind != ParamOptional {
				return nil, unexpectedToken(tok, i)
			}
			closed := top()
			stack = stack[:len(stack)-1]
			if len(closed.Children) == 0 {
				removeChild(top(), closed)
			} else if len(closed.Children) == 1 && closed.Children[0].Kind == ParamGroup {
				// "[(A B)]" flattens to "[A B]".
				closed.Children = closed.Children[0].Children
			}

		case "|":
			if top().Kind == ParamChoice || len(top().Children) == 0 {
				return nil, unexpectedToken(tok, i)
			}
			prev := top().Children[len(top().Children)-1]
			if prev.Kind == ParamChoice {
				// Continue the existing alternation.
				stack = append(stack, prev)
			} else {
				choice := &ParamNode{Kind: ParamChoice}
				replaceChild(top(), prev, choice)
				appendChild(choice, prev)
				stack = append(stack, choice)
			}
			newFrame = true
		}

		// A choice frame accepts exactly one node after its "|" token and
		// is then popped again, unlike bracketing frames which stay open
		// until their closing token.
		frame := len(stack) - 1
		if newFrame {
			frame--
		}
		if frame >= 0 && stack[frame].Kind == ParamChoice {
			stack = append(stack[:frame], stack[frame+1:]...)
		}
	}

	if len(stack) > 1 {
		return nil, fmt.Errorf("unexpected end of parameter list")
	}
	return root, nil
}

func unexpectedToken(tok paramToken, i int) error {
	what := string(tok.kind)
	if tok.text != "" {
		what = tok.text
	}
	return fmt.Errorf("unexpected token at position %d: %q (%s)", i, what, tok.kind)
}

func appendChild(parent, child *ParamNode) {
	parent.Children = append(parent.Children, child)
}

func removeChild(parent, child *ParamNode) {
	for i, c := range parent.Children {
		if c == child {
			parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
			return
		}
	}
}

func replaceChild(parent, old, new *ParamNode) {
	for i, c := range parent.Children {
		if c == old {
			parent.Children[i] = new
			return
		}
	}
}

// Render returns the display form of the signature: the bare name when the
// parameter list is absent, the name with a parenthesized list otherwise.
// Unparseable lists render their raw text verbatim.
func (s Signature) Render() string {
	if !s.ParamsPresent {
		return s.Name
	}
	if s.Params == nil {
		if s.Raw == "" {
			return s.Name + "()"
		}
		return s.Name + "(" + s.Raw + ")"
	}
	inner := s.Params.Render()
	if inner == "" {
		return s.Name + "()"
	}
	return s.Name + "(" + inner + ")"
}
