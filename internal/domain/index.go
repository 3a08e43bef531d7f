package domain

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DuplicatePolicy controls which description an index listing shows when
// the same name is documented more than once.
type DuplicatePolicy string

const (
	// ListBoth lists every occurrence as sub-entries under a bare parent.
	ListBoth DuplicatePolicy = "list-both"
	// FirstWins lists only the occurrence that was documented first.
	FirstWins DuplicatePolicy = "first-wins"
	// LastWins lists only the occurrence that governs reference resolution.
	LastWins DuplicatePolicy = "last-wins"
)

// IndexOptions configure index generation.
type IndexOptions struct {
	Display DisplayOptions
	// IgnoredPrefixes are stripped from display names for sort order only
	// (first match, longest first). From cmake_index_common_prefix.
	IgnoredPrefixes []string
	Duplicates      DuplicatePolicy
}

// IndexEntry is one line of the entity index. Subentries are non-empty only
// under the ListBoth policy when a name is documented multiple times; the
// parent entry then carries no link of its own.
type IndexEntry struct {
	Name       string // unstripped display name
	TypeLabel  string // "" on bare parent entries
	Document   string
	Anchor     string
	Subentries []IndexEntry
}

// IndexGroup is one alphabetical section of the index.
type IndexGroup struct {
	Key     string // upper-cased first character of the stripped sort key
	Entries []IndexEntry
}

// BuildIndex produces the sorted, grouped entity index. Entities flagged
// with "no index entry" are excluded. Sorting compares display names with
// any configured ignored prefix stripped, case-insensitively; the displayed
// name keeps its prefix.
func BuildIndex(reg *Registry, opts IndexOptions) []IndexGroup {
	if opts.Duplicates == "" {
		opts.Duplicates = ListBoth
	}
	prefixes := append([]string(nil), opts.IgnoredPrefixes...)
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	// Collect indexable entities by display name.
	byName := make(map[string][]*Entity)
	for _, e := range reg.All(AnyType) {
		if e.NoIndexEntry {
			continue
		}
		name := e.DisplayName(opts.Display)
		byName[name] = append(byName[name], e)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a := strings.ToLower(sortKey(names[i], prefixes))
		b := strings.ToLower(sortKey(names[j], prefixes))
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})

	var groups []IndexGroup
	for _, name := range names {
		key := groupKey(sortKey(name, prefixes))
		if len(groups) == 0 || groups[len(groups)-1].Key != key {
			groups = append(groups, IndexGroup{Key: key})
		}
		g := &groups[len(groups)-1]
		g.Entries = append(g.Entries, indexEntries(name, byName[name], opts)...)
	}
	return groups
}

// indexEntries renders the occurrences of one display name. Entities of
// different types sharing the name always stay separate entries; the
// duplicate policy only arbitrates between occurrences of one type.
func indexEntries(name string, es []*Entity, opts IndexOptions) []IndexEntry {
	var entries []IndexEntry
	for _, typ := range EntityTypes {
		var group []*Entity
		for _, e := range es {
			if e.Type == typ {
				group = append(group, e)
			}
		}
		if len(group) > 0 {
			entries = append(entries, typeEntries(name, group, opts)...)
		}
	}
	return entries
}

// typeEntries applies the duplicate policy to the occurrences of one
// (type, display name) pair.
func typeEntries(name string, es []*Entity, opts IndexOptions) []IndexEntry {
	if len(es) == 1 {
		return []IndexEntry{entryFor(name, es[0])}
	}

	switch opts.Duplicates {
	case FirstWins:
		return []IndexEntry{entryFor(name, es[0])}
	case LastWins:
		return []IndexEntry{entryFor(name, es[len(es)-1])}
	default:
		parent := IndexEntry{Name: name}
		for _, e := range es {
			parent.Subentries = append(parent.Subentries, entryFor(name, e))
		}
		return []IndexEntry{parent}
	}
}

func entryFor(name string, e *Entity) IndexEntry {
	return IndexEntry{
		Name:      name,
		TypeLabel: e.Type.String(),
		Document:  e.Document,
		Anchor:    e.Anchor,
	}
}

// sortKey strips the first matching ignored prefix from a name, for
// ordering purposes only. A prefix equal to the whole name never matches.
func sortKey(name string, prefixes []string) string {
	for _, prefix := range prefixes {
		if strings.HasPrefix(name, prefix) && name != prefix {
			return name[len(prefix):]
		}
	}
	return name
}

// groupKey is the index section heading for a sort key.
func groupKey(key string) string {
	r, _ := utf8.DecodeRuneInString(key)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}
