package domain

import (
	"sort"
)

// entityKey identifies a registry bucket.
type entityKey struct {
	typ EntityType
	key string
}

// Conflict describes a duplicate registration: the entity that previously
// held the key and the one just registered. Duplicates are an authoring
// convenience, not an error; callers decide whether to warn.
type Conflict struct {
	Previous *Entity
	New      *Entity
}

// Registry is the per-build store of documented entities. It is mutated
// during the read phase and treated as read-only afterwards; the host's
// build lifecycle enforces that boundary.
//
// Duplicate keys are all retained so the index can list or pick between
// them. Resolution order is deterministic: document rank (assigned by the
// host from its document-processing order) breaks ties first, then the
// in-document registration sequence. Merging registries built in parallel
// therefore yields the same winners as sequential processing.
type Registry struct {
	entities map[entityKey][]*Entity
	byDoc    map[string][]*Entity
	docRank  map[string]int
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[entityKey][]*Entity),
		byDoc:    make(map[string][]*Entity),
		docRank:  make(map[string]int),
	}
}

// SetDocumentRank records the deterministic processing position of a
// document. Ranks must be assigned consistently across a build (and across
// the registries that will be merged into it).
func (r *Registry) SetDocumentRank(doc string, rank int) {
	r.docRank[doc] = rank
}

// DocumentRank returns the rank assigned to a document. Unranked documents
// sort last, ordered by name, so behavior stays deterministic even when the
// host forgets a rank.
func (r *Registry) DocumentRank(doc string) (int, bool) {
	rank, ok := r.docRank[doc]
	return rank, ok
}

// Register inserts an entity under its (type, key) pair. The entity's Seq
// is assigned from the number of entities already registered for its
// document. Returns conflict info when the key was already taken, nil
// otherwise.
func (r *Registry) Register(e *Entity) *Conflict {
	e.Seq = len(r.byDoc[e.Document])
	r.byDoc[e.Document] = append(r.byDoc[e.Document], e)

	k := entityKey{e.Type, e.Key}
	existing := r.entities[k]
	r.entities[k] = append(existing, e)

	if len(existing) > 0 {
		return &Conflict{Previous: r.winner(existing), New: e}
	}
	return nil
}

// Purge removes every entity defined by the given document. Purging a
// document with no entities is a no-op.
func (r *Registry) Purge(doc string) {
	owned := r.byDoc[doc]
	if len(owned) == 0 {
		return
	}
	delete(r.byDoc, doc)

	for _, e := range owned {
		k := entityKey{e.Type, e.Key}
		kept := r.entities[k][:0]
		for _, other := range r.entities[k] {
			if other.Document != doc {
				kept = append(kept, other)
			}
		}
		if len(kept) == 0 {
			delete(r.entities, k)
		} else {
			r.entities[k] = kept
		}
	}
}

// Merge unions another registry into this one. Ordering is re-derived from
// document ranks and in-document sequences, so the result is independent of
// merge arrival order.
func (r *Registry) Merge(other *Registry) {
	for doc, rank := range other.docRank {
		r.docRank[doc] = rank
	}
	for doc, owned := range other.byDoc {
		// A document is owned by exactly one registry at a time; later
		// registration wholly replaces earlier state for that document.
		r.Purge(doc)
		for _, e := range owned {
			k := entityKey{e.Type, e.Key}
			r.entities[k] = append(r.entities[k], e)
			r.byDoc[doc] = append(r.byDoc[doc], e)
		}
	}
}

// Lookup returns the entities registered under (typ, key) in deterministic
// build order, oldest first. Pass AnyType to search all entity types; the
// result then contains at most one entry per type (the last-wins one).
func (r *Registry) Lookup(typ EntityType, key string) []*Entity {
	if typ != AnyType {
		matches := append([]*Entity(nil), r.entities[entityKey{typ, key}]...)
		r.sortEntities(matches)
		return matches
	}

	var matches []*Entity
	for _, t := range EntityTypes {
		if w := r.winner(r.entities[entityKey{t, key}]); w != nil {
			matches = append(matches, w)
		}
	}
	return matches
}

// All returns every registered entity of the given type (or of all types
// for AnyType) in deterministic build order.
func (r *Registry) All(typ EntityType) []*Entity {
	var all []*Entity
	for k, es := range r.entities {
		if typ != AnyType && k.typ != typ {
			continue
		}
		all = append(all, es...)
	}
	r.sortEntities(all)
	return all
}

// ByDocument returns the entities a document contributed, in registration
// order.
func (r *Registry) ByDocument(doc string) []*Entity {
	return append([]*Entity(nil), r.byDoc[doc]...)
}

// Documents returns the documents that currently contribute entities.
func (r *Registry) Documents() []string {
	docs := make([]string, 0, len(r.byDoc))
	for doc := range r.byDoc {
		docs = append(docs, doc)
	}
	sort.Strings(docs)
	return docs
}

// winner picks the last-registered entity by deterministic build order.
func (r *Registry) winner(es []*Entity) *Entity {
	var best *Entity
	for _, e := range es {
		if best == nil || r.less(best, e) {
			best = e
		}
	}
	return best
}

func (r *Registry) sortEntities(es []*Entity) {
	sort.SliceStable(es, func(i, j int) bool { return r.less(es[i], es[j]) })
}

func (r *Registry) less(a, b *Entity) bool {
	ra, aok := r.docRank[a.Document]
	rb, bok := r.docRank[b.Document]
	switch {
	case aok && !bok:
		return true
	case !aok && bok:
		return false
	case !aok && !bok:
		if a.Document != b.Document {
			return a.Document < b.Document
		}
	default:
		if ra != rb {
			return ra < rb
		}
	}
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	// Same document and sequence can only compare an entity with itself or
	// with co-registered multi-name targets; fall back to key order.
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.Key < b.Key
}
