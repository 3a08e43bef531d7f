package domain

import (
	"regexp"
	"strings"
)

// EntityType tags the kind of CMake object an entity describes.
type EntityType int

const (
	Variable EntityType = iota
	Function             // covers both macros and functions
	Module
	Target
)

// AnyType is passed to lookups that search across all entity types.
const AnyType EntityType = -1

// EntityTypes lists all concrete entity types in a stable order.
var EntityTypes = []EntityType{Variable, Function, Module, Target}

func (t EntityType) String() string {
	switch t {
	case Variable:
		return "variable"
	case Function:
		return "macro/function"
	case Module:
		return "module"
	case Target:
		return "target"
	default:
		return "unknown"
	}
}

// Role returns the primary cross-reference role name for the type.
func (t EntityType) Role() string {
	switch t {
	case Variable:
		return "var"
	case Function:
		return "func"
	case Module:
		return "mod"
	case Target:
		return "tgt"
	default:
		return ""
	}
}

// TypeForRole maps a role name to the entity type it references.
// "macro" is an alias for "func".
func TypeForRole(role string) (EntityType, bool) {
	switch role {
	case "var":
		return Variable, true
	case "func", "macro":
		return Function, true
	case "mod":
		return Module, true
	case "tgt":
		return Target, true
	default:
		return AnyType, false
	}
}

// ValueDoc documents one possible value of a variable.
type ValueDoc struct {
	Value string `json:"value"`
	Doc   string `json:"doc"`
}

// ParamDoc documents one macro/function parameter.
type ParamDoc struct {
	Name string `json:"name"`
	Doc  string `json:"doc"`
}

// Entity is a single documented CMake object. The same struct covers all
// four entity types; type-specific fields are unused for the other types.
type Entity struct {
	Type     EntityType `json:"type"`
	Key      string     `json:"key"` // normalized storage key, decoration-free
	Document string     `json:"document"`
	Anchor   string     `json:"anchor"`
	Seq      int        `json:"seq"` // registration order within the document

	NoIndexEntry bool `json:"no_index_entry"`
	NoXRef       bool `json:"no_xref"`

	// BodyHash addresses the rendered description in the body store.
	BodyHash string `json:"body_hash,omitempty"`

	// Variable fields.
	Default      string     `json:"default,omitempty"` // inline value from the declaration
	VarType      string     `json:"var_type,omitempty"`
	DefaultField string     `json:"default_field,omitempty"`
	Values       []ValueDoc `json:"values,omitempty"`

	// Macro/function fields. A single entry may document several call
	// signatures; all of them share the body and parameter docs.
	Signatures []Signature `json:"signatures,omitempty"`
	Params     []ParamDoc  `json:"params,omitempty"`
}

// DisplayOptions are the presentation settings that control decorations.
// They mirror the add_function_parentheses and cmake_modules_add_extension
// configuration values.
type DisplayOptions struct {
	FunctionParens  bool
	ModuleExtension bool
}

// DisplayName returns the decorated name shown for the entity in indices
// and reference link text. Decorations depend only on configuration, never
// on how the author spelled the name.
func (e *Entity) DisplayName(opts DisplayOptions) string {
	return DisplayName(e.Key, e.Type, opts)
}

// DisplayName decorates a storage key for presentation.
func DisplayName(key string, typ EntityType, opts DisplayOptions) string {
	switch typ {
	case Function:
		if opts.FunctionParens {
			return key + "()"
		}
	case Module:
		if opts.ModuleExtension {
			return key + moduleExt
		}
	}
	return key
}

var anchorSanitizeRe = regexp.MustCompile(`[^a-z0-9_.-]+`)

// MakeAnchor builds the document anchor used to link to an entity.
func MakeAnchor(typ EntityType, key string) string {
	id := anchorSanitizeRe.ReplaceAllString(strings.ToLower(key), "-")
	return "cmake-" + typ.Role() + "-" + id
}
