package domain

import "strings"

// ResolutionState classifies the outcome of a reference lookup. Absence and
// ambiguity are ordinary results, not errors.
type ResolutionState int

const (
	Resolved ResolutionState = iota
	Unresolved
	Ambiguous
)

func (s ResolutionState) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Unresolved:
		return "unresolved"
	default:
		return "ambiguous"
	}
}

// Resolution is the result of resolving a role reference.
type Resolution struct {
	State ResolutionState
	// Entity is the resolved target when State is Resolved.
	Entity *Entity
	// Candidates lists the colliding matches when State is Ambiguous.
	Candidates []*Entity
	// Title is the decorated link text (e.g. "MyModule.cmake" when the
	// module extension is displayed).
	Title string
}

// AnyRole is the host framework's generic reference role.
const AnyRole = "any"

// Resolve looks up a reference target for the given role name. Typed roles
// (var, func, macro, mod, tgt) search one entity type; AnyRole searches all
// of them. Decorations on the target text (trailing parentheses, ".cmake")
// are stripped the same way the normalizer strips them at registration, so
// references succeed regardless of the author's spelling. Entities flagged
// as not referenceable are invisible to every lookup.
func Resolve(reg *Registry, role, target string, opts DisplayOptions) Resolution {
	target = strings.TrimSpace(target)

	if role != AnyRole {
		typ, ok := TypeForRole(role)
		if !ok {
			return Resolution{State: Unresolved}
		}
		return resolveTyped(reg, typ, NormalizeName(target, typ), opts)
	}

	// A decorated target pins down the entity type by itself.
	if strings.HasSuffix(target, "()") {
		return resolveTyped(reg, Function, NormalizeName(target, Function), opts)
	}
	if len(target) > len(moduleExt) && strings.EqualFold(target[len(target)-len(moduleExt):], moduleExt) {
		return resolveTyped(reg, Module, NormalizeName(target, Module), opts)
	}

	var candidates []*Entity
	for _, typ := range EntityTypes {
		if e := referenceable(reg.Lookup(typ, NormalizeName(target, typ))); e != nil {
			candidates = append(candidates, e)
		}
	}
	switch len(candidates) {
	case 0:
		return Resolution{State: Unresolved}
	case 1:
		e := candidates[0]
		return Resolution{State: Resolved, Entity: e, Title: e.DisplayName(opts)}
	default:
		return Resolution{State: Ambiguous, Candidates: candidates}
	}
}

func resolveTyped(reg *Registry, typ EntityType, key string, opts DisplayOptions) Resolution {
	e := referenceable(reg.Lookup(typ, key))
	if e == nil {
		return Resolution{State: Unresolved}
	}
	return Resolution{State: Resolved, Entity: e, Title: e.DisplayName(opts)}
}

// referenceable picks the last-wins entity among the referenceable matches.
// A hidden entity never shadows a referenceable one sharing its key.
func referenceable(matches []*Entity) *Entity {
	for i := len(matches) - 1; i >= 0; i-- {
		if !matches[i].NoXRef {
			return matches[i]
		}
	}
	return nil
}
