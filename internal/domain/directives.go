package domain

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Directive is one parsed directive invocation as handed over by the host
// framework's reader: declaration lines, an option set, field entries and
// the already-rendered description body (opaque to the domain).
type Directive struct {
	Name       string // e.g. "cmake:var"
	Signatures []string
	Options    map[string]bool // noindex, noindexentry
	Fields     []Field
	Document   string
	Line       int
	BodyHash   string
}

// Field is one field-list entry of a directive body, e.g.
// ":param <glob>: ..." has Name "param", Arg "<glob>" and the description
// as Value.
type Field struct {
	Name  string
	Arg   string
	Value string
}

// Header is the decorated signature text a directive hands back to the
// rendering pipeline, together with the anchor its entity is linked under.
type Header struct {
	Text   string
	Anchor string
}

// paramFieldNames are the recognized aliases for macro/function parameter
// documentation fields.
var paramFieldNames = map[string]bool{
	"param":     true,
	"parameter": true,
	"arg":       true,
	"argument":  true,
	"keyword":   true,
	"option":    true,
}

// DirectiveNames lists the directive names the domain registers with the
// host, mapped to the entity type each one documents. "cmake:macro" and
// "cmake:function" are aliases.
var DirectiveNames = map[string]EntityType{
	"cmake:var":      Variable,
	"cmake:macro":    Function,
	"cmake:function": Function,
	"cmake:module":   Module,
	"cmake:target":   Target,
}

// variableSigRe parses a variable declaration: a name optionally followed
// by a literal default value.
var variableSigRe = regexp.MustCompile(`^(\w+)(?:\s+(.+))?$`)

// HandleDirective parses a directive invocation into entities and registers
// them. Malformed declarations are logged as authoring warnings and degrade
// to best-effort entities; the returned headers reflect whatever was
// registered. The error return is reserved for unknown directive names.
func HandleDirective(reg *Registry, d *Directive, opts DisplayOptions, log *slog.Logger) ([]Header, error) {
	typ, ok := DirectiveNames[d.Name]
	if !ok {
		return nil, fmt.Errorf("unknown directive %q", d.Name)
	}
	if log == nil {
		log = slog.Default()
	}

	h := &handler{reg: reg, d: d, opts: opts, log: log}
	switch typ {
	case Variable:
		return h.variable(), nil
	case Function:
		return h.function(), nil
	case Module:
		return h.module(), nil
	default:
		return h.target(), nil
	}
}

type handler struct {
	reg  *Registry
	d    *Directive
	opts DisplayOptions
	log  *slog.Logger
}

// newEntity fills the attributes every entity shares: visibility flags from
// the options, defining document, body reference and anchor. A repeated
// declaration of the same key on one page gets a numbered anchor so that
// every header stays individually linkable.
func (h *handler) newEntity(typ EntityType, key string) *Entity {
	noindex := h.d.Options["noindex"]
	anchor := MakeAnchor(typ, key)
	if n := h.priorDeclarations(typ, key); n > 0 {
		anchor = fmt.Sprintf("%s-%d", anchor, n)
	}
	return &Entity{
		Type:         typ,
		Key:          key,
		Document:     h.d.Document,
		Anchor:       anchor,
		NoIndexEntry: noindex || h.d.Options["noindexentry"],
		NoXRef:       noindex,
		BodyHash:     h.d.BodyHash,
	}
}

// priorDeclarations counts earlier entities with the same type and key in
// the directive's document.
func (h *handler) priorDeclarations(typ EntityType, key string) int {
	n := 0
	for _, e := range h.reg.ByDocument(h.d.Document) {
		if e.Type == typ && e.Key == key {
			n++
		}
	}
	return n
}

func (h *handler) register(e *Entity) {
	if c := h.reg.Register(e); c != nil {
		h.log.Warn("duplicate entity description",
			"type", e.Type.String(),
			"name", e.DisplayName(h.opts),
			"document", e.Document,
			"previous", c.Previous.Document)
	}
}

func (h *handler) warn(msg string, args ...any) {
	args = append(args, "document", h.d.Document, "line", h.d.Line)
	h.log.Warn(msg, args...)
}

// variable handles cmake:var. Each declaration line documents one variable;
// several lines make several reference targets sharing one body.
func (h *handler) variable() []Header {
	var headers []Header
	for _, sig := range h.d.Signatures {
		sig = strings.TrimSpace(sig)
		m := variableSigRe.FindStringSubmatch(sig)

		var name, value string
		if m == nil {
			h.warn("invalid variable declaration", "declaration", sig)
			if sig == "" {
				continue
			}
			// Best effort: treat the first word as the name.
			name = strings.Fields(sig)[0]
		} else {
			name, value = m[1], m[2]
		}

		e := h.newEntity(Variable, NormalizeName(name, Variable))
		e.Default = strings.TrimSpace(value)
		for _, f := range h.d.Fields {
			switch f.Name {
			case "type":
				e.VarType = f.Value
			case "default":
				e.DefaultField = f.Value
			case "value":
				e.Values = append(e.Values, ValueDoc{Value: f.Arg, Doc: f.Value})
			}
		}
		h.register(e)

		text := e.DisplayName(h.opts)
		if e.Default != "" {
			text += " = " + e.Default
		}
		headers = append(headers, Header{Text: text, Anchor: e.Anchor})
	}
	return headers
}

// function handles cmake:macro / cmake:function. Declaration lines are
// parsed independently; lines sharing a normalized name fold into one
// multi-signature entity, distinct names become separate reference targets
// pointing at the same entry (same anchor, body and parameter docs).
func (h *handler) function() []Header {
	var params []ParamDoc
	for _, f := range h.d.Fields {
		if paramFieldNames[f.Name] {
			params = append(params, ParamDoc{Name: f.Arg, Doc: f.Value})
		}
	}

	var order []string
	byName := make(map[string]*Entity)
	var headers []Header
	var anchor string

	for _, raw := range h.d.Signatures {
		sig, err := ParseSignature(raw)
		if err != nil {
			h.warn("invalid macro/function declaration", "declaration", raw, "error", err)
		}
		if sig.Name == "" {
			continue
		}

		key := NormalizeName(sig.Name, Function)
		e, ok := byName[key]
		if !ok {
			e = h.newEntity(Function, key)
			e.Params = params
			if anchor == "" {
				anchor = e.Anchor
			}
			// All names declared by one directive link to the same entry.
			e.Anchor = anchor
			byName[key] = e
			order = append(order, key)
		}
		e.Signatures = append(e.Signatures, sig)
		headers = append(headers, Header{Text: sig.Render(), Anchor: anchor})
	}

	for _, key := range order {
		e := byName[key]
		h.checkParamDocs(e)
		h.register(e)
	}
	if len(headers) == 0 {
		h.warn("macro/function directive declares no usable signature")
	}
	return headers
}

// checkParamDocs matches documented parameters against the declared
// signature tokens. Parameters documented but absent from every signature
// are kept anyway: the argument-list notation is unstructured, so this is
// informational only.
func (h *handler) checkParamDocs(e *Entity) {
	declared := make(map[string]bool)
	for _, sig := range e.Signatures {
		if sig.Params == nil {
			continue
		}
		for _, tok := range sig.Params.Tokens() {
			declared[tok] = true
			declared[strings.Trim(tok, "<>")] = true
		}
	}
	for _, p := range e.Params {
		if len(declared) > 0 && !declared[p.Name] && !declared[strings.Trim(p.Name, "<>")] {
			h.log.Debug("documented parameter not found in any signature",
				"function", e.Key, "param", p.Name, "document", e.Document)
		}
	}
}

// module handles cmake:module. The ".cmake" extension is normalized away;
// whether it shows up again is purely a configuration decision.
func (h *handler) module() []Header {
	var headers []Header
	for _, sig := range h.d.Signatures {
		name := NormalizeName(sig, Module)
		if name == "" {
			h.warn("empty module declaration")
			continue
		}
		e := h.newEntity(Module, name)
		h.register(e)
		headers = append(headers, Header{Text: e.DisplayName(h.opts), Anchor: e.Anchor})
	}
	return headers
}

// target handles cmake:target.
func (h *handler) target() []Header {
	var headers []Header
	for _, sig := range h.d.Signatures {
		name := NormalizeName(sig, Target)
		if name == "" {
			h.warn("empty target declaration")
			continue
		}
		e := h.newEntity(Target, name)
		h.register(e)
		headers = append(headers, Header{Text: e.DisplayName(h.opts), Anchor: e.Anchor})
	}
	return headers
}
