package domain

import (
	"regexp"
	"strings"
)

// moduleExt is the optional file extension on module names. It is stripped
// for storage and re-added for display when cmake_modules_add_extension is
// enabled.
const moduleExt = ".cmake"

// emptyParensRe matches a trailing parenthesis pair containing only
// whitespace, e.g. "my_func()" or "my_func( )".
var emptyParensRe = regexp.MustCompile(`\(\s*\)\s*$`)

// NormalizeName canonicalizes a raw entity name into its storage key.
// Decorations are removed regardless of whether the author wrote them:
// modules lose a case-insensitive ".cmake" suffix, macros/functions lose
// trailing empty parentheses. Variables and targets are only trimmed.
// Malformed input degrades to the trimmed raw string; this is a
// normalization helper, not a validator.
func NormalizeName(raw string, typ EntityType) string {
	name := strings.TrimSpace(raw)

	switch typ {
	case Module:
		if len(name) > len(moduleExt) && strings.EqualFold(name[len(name)-len(moduleExt):], moduleExt) {
			name = name[:len(name)-len(moduleExt)]
		}
	case Function:
		if loc := emptyParensRe.FindStringIndex(name); loc != nil && loc[0] > 0 {
			name = strings.TrimSpace(name[:loc[0]])
		}
	}

	return name
}
