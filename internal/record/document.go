package record

import "github.com/google/uuid"

// Document is a schemaless record: a kind, an ID and a bag of fields.
// Seed files and the CLI work in Documents; kinds are described by CUE
// schemas rather than Go types.
type Document struct {
	Kind   string         `json:"kind" yaml:"kind"`
	ID     string         `json:"id" yaml:"id"`
	Fields map[string]any `json:"fields" yaml:"fields"`

	Timestamps `yaml:",inline"`
}

// NewDocument creates a Document. An empty id is replaced by a
// time-ordered UUIDv7 so documents sort by creation.
func NewDocument(kind, id string, fields map[string]any) *Document {
	if id == "" {
		id = NewID()
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return &Document{Kind: kind, ID: id, Fields: fields}
}

// RecordKind implements Record.
func (d *Document) RecordKind() string { return d.Kind }

// RecordKey implements Record.
func (d *Document) RecordKey() string { return d.ID }

// NewID returns a new UUIDv7 string.
func NewID() string {
	return UUIDv7Generator{}.Generate()
}

// IDGenerator produces record IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 IDs.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
