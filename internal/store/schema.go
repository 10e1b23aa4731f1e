package store

import (
	"slices"

	"github.com/roach88/persistkit/internal/record"
)

// Schema is the ordered set of record kinds a container accepts.
type Schema struct {
	entities []string
}

// NewSchema builds a schema from record prototypes, e.g.
//
//	store.NewSchema(&Note{}, &Tag{})
//
// Prototypes with an empty kind (such as a zero Document) are ignored.
func NewSchema(prototypes ...record.Record) Schema {
	names := make([]string, 0, len(prototypes))
	for _, p := range prototypes {
		names = append(names, p.RecordKind())
	}
	return NewSchemaOf(names...)
}

// NewSchemaOf builds a schema from kind names. Duplicates and empty names
// are dropped; first occurrence wins the position.
func NewSchemaOf(names ...string) Schema {
	var s Schema
	for _, n := range names {
		if n == "" || slices.Contains(s.entities, n) {
			continue
		}
		s.entities = append(s.entities, n)
	}
	return s
}

// Entities returns the kind names in registration order.
func (s Schema) Entities() []string {
	return slices.Clone(s.entities)
}

// Contains reports whether kind is registered.
func (s Schema) Contains(kind string) bool {
	return slices.Contains(s.entities, kind)
}

// Len returns the number of registered kinds.
func (s Schema) Len() int {
	return len(s.entities)
}
