package build

import (
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/domain"
)

// Page is the persisted rendering model of one source document. It carries
// just enough to regenerate the output page from the body store and the
// registry, without re-reading the source.
type Page struct {
	Document string      `json:"document"`
	Blocks   []PageBlock `json:"blocks"`
}

// PageBlock is one segment of a page: markdown prose, or an entity section
// produced by a directive.
type PageBlock struct {
	Kind     string          `json:"kind"` // "prose" or "entity"
	BodyHash string          `json:"body_hash,omitempty"`
	Headers  []domain.Header `json:"headers,omitempty"`
	Refs     []EntityRef     `json:"refs,omitempty"`
}

const (
	blockProse  = "prose"
	blockEntity = "entity"
)

// EntityRef identifies an entity of the page's document for field display.
type EntityRef struct {
	Type domain.EntityType `json:"type"`
	Key  string            `json:"key"`
}
