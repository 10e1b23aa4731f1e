// Package seed reads YAML files of records used to preload containers.
//
// A seed file lists documents by kind:
//
//	schema: ./schema   # optional, relative to the seed file
//	records:
//	  - kind: Note
//	    id: note-1
//	    fields: {name: "First"}
//	  - kind: Note      # id filled in with a UUIDv7
//	    fields: {name: "Second"}
package seed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/persistkit/internal/record"
)

// File is a parsed seed file.
type File struct {
	// Schema is the CUE schema directory for the records. Optional.
	Schema string `yaml:"schema,omitempty"`

	// Records are the documents to insert, in file order.
	Records []*record.Document `yaml:"records"`
}

// Option configures Load and Parse.
type Option func(*options)

type options struct {
	ids      record.IDGenerator
	basePath string
}

// WithIDGenerator sets the generator used for records without an id.
// Defaults to record.UUIDv7Generator.
func WithIDGenerator(g record.IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithBasePath resolves a relative schema path against dir.
func WithBasePath(dir string) Option {
	return func(o *options) { o.basePath = dir }
}

// Load reads and parses the seed file at path. A relative schema path is
// resolved against the seed file's directory.
func Load(path string, opts ...Option) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	opts = append([]Option{WithBasePath(filepath.Dir(path))}, opts...)
	return Parse(data, opts...)
}

// Parse parses seed YAML. Unknown fields are rejected.
func Parse(data []byte, opts ...Option) (*File, error) {
	o := options{ids: record.UUIDv7Generator{}}
	for _, opt := range opts {
		opt(&o)
	}

	// Parse YAML with strict field validation (catches typos like "field:" vs "fields:")
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := normalize(&f, o); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	return &f, nil
}

// normalize fills in defaults and rejects entries that cannot be stored.
func normalize(f *File, o options) error {
	if f.Schema != "" && !filepath.IsAbs(f.Schema) && o.basePath != "" {
		f.Schema = filepath.Join(o.basePath, f.Schema)
	}

	seen := make(map[[2]string]int, len(f.Records))
	for i, doc := range f.Records {
		if doc == nil {
			return fmt.Errorf("records[%d]: empty entry", i)
		}
		if doc.Kind == "" {
			return fmt.Errorf("records[%d]: kind is required", i)
		}
		if doc.ID == "" {
			doc.ID = o.ids.Generate()
		}
		if doc.Fields == nil {
			doc.Fields = map[string]any{}
		}

		key := [2]string{doc.Kind, doc.ID}
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("records[%d]: duplicate %s %q (first at records[%d])", i, doc.Kind, doc.ID, prev)
		}
		seen[key] = i
	}
	return nil
}

// Kinds returns the distinct kinds in the file, in first-seen order.
func (f *File) Kinds() []string {
	var kinds []string
	seen := make(map[string]bool)
	for _, doc := range f.Records {
		if !seen[doc.Kind] {
			seen[doc.Kind] = true
			kinds = append(kinds, doc.Kind)
		}
	}
	return kinds
}
