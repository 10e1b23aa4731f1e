// Package schema loads record kind definitions written in CUE and validates
// documents against them.
//
// Kinds are declared under a top-level record struct:
//
//	package records
//
//	record: Note: {
//		name:      string
//		priority?: int & >=0
//	}
//
// Uses CUE SDK's Go API directly (not CLI subprocess).
package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/persistkit/internal/record"
	"github.com/roach88/persistkit/internal/store"
)

// Field describes one field of a record kind.
type Field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Optional bool   `json:"optional,omitempty"`
}

// Kind is a record kind definition.
type Kind struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`

	value cue.Value
}

// Set is the collection of kinds loaded from one schema directory.
type Set struct {
	kinds     []Kind
	byName    map[string]int
	fileCount int
}

// Load reads every .cue file in dir and extracts the record kinds.
// Failures are returned as *LoadError.
func Load(dir string) (*Set, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := checkBuild(value); err != nil {
		return nil, err
	}

	set, err := fromValue(value)
	if err != nil {
		return nil, err
	}
	set.fileCount = len(cueFiles)
	return set, nil
}

// Compile builds a Set from CUE source text.
func Compile(src string) (*Set, error) {
	value := cuecontext.New().CompileString(src)
	if err := checkBuild(value); err != nil {
		return nil, err
	}
	return fromValue(value)
}

// checkBuild reports build errors anywhere in value. Incomplete values such
// as `name: string` are expected in a schema and are not errors.
func checkBuild(value cue.Value) error {
	err := value.Err()
	if err == nil {
		err = value.Validate()
	}
	if err != nil {
		return &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	return nil
}

func fromValue(value cue.Value) (*Set, error) {
	recordsVal := value.LookupPath(cue.ParsePath("record"))
	if !recordsVal.Exists() {
		return nil, &LoadError{Code: ErrCodeNoKinds, Message: "no record kinds found in schema"}
	}

	iter, err := recordsVal.Fields()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidKind, Message: fmt.Sprintf("iterating record kinds: %v", err), Pos: recordsVal.Pos()}
	}

	set := &Set{byName: make(map[string]int)}
	for iter.Next() {
		kind, err := parseKind(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		set.byName[kind.Name] = len(set.kinds)
		set.kinds = append(set.kinds, kind)
	}

	if len(set.kinds) == 0 {
		return nil, &LoadError{Code: ErrCodeNoKinds, Message: "no record kinds found in schema"}
	}
	return set, nil
}

// parseKind extracts one kind definition, e.g. the value of record.Note.
func parseKind(name string, v cue.Value) (Kind, error) {
	if v.IncompleteKind() != cue.StructKind {
		return Kind{}, &LoadError{
			Code:    ErrCodeInvalidKind,
			Message: fmt.Sprintf("record.%s must be a struct, got %v", name, v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	kind := Kind{Name: name, Fields: []Field{}, value: v}

	iter, err := v.Fields(cue.Optional(true))
	if err != nil {
		return Kind{}, formatCUEError(err, ErrCodeInvalidKind)
	}
	for iter.Next() {
		kind.Fields = append(kind.Fields, Field{
			Name:     iter.Label(),
			Type:     typeName(iter.Value()),
			Optional: iter.IsOptional(),
		})
	}
	return kind, nil
}

// typeName converts a CUE type to a display name.
func typeName(v cue.Value) string {
	switch k := v.IncompleteKind(); k {
	case cue.StringKind:
		return "string"
	case cue.IntKind:
		return "int"
	case cue.FloatKind:
		return "float"
	case cue.NumberKind:
		return "number"
	case cue.BoolKind:
		return "bool"
	case cue.ListKind:
		return "array"
	case cue.StructKind:
		return "object"
	case cue.NullKind:
		return "null"
	case cue.TopKind:
		return "any"
	default:
		return k.String()
	}
}

// Kinds returns the kind definitions in declaration order.
func (s *Set) Kinds() []Kind {
	out := make([]Kind, len(s.kinds))
	copy(out, s.kinds)
	return out
}

// Lookup returns the kind called name.
func (s *Set) Lookup(name string) (Kind, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Kind{}, false
	}
	return s.kinds[i], true
}

// FileCount returns the number of CUE files the set was loaded from. It is
// zero for sets built with Compile.
func (s *Set) FileCount() int {
	return s.fileCount
}

// StoreSchema returns the kinds as a store.Schema, in declaration order.
func (s *Set) StoreSchema() store.Schema {
	names := make([]string, len(s.kinds))
	for i, k := range s.kinds {
		names[i] = k.Name
	}
	return store.NewSchemaOf(names...)
}

// Validate checks doc against its kind: the document's fields are unified
// with the kind definition and the result must be concrete. Failures are
// returned as *ValidationError.
func (s *Set) Validate(doc *record.Document) error {
	kind, ok := s.Lookup(doc.Kind)
	if !ok {
		return &ValidationError{
			Code:    ErrCodeUnknownKind,
			Kind:    doc.Kind,
			ID:      doc.ID,
			Message: fmt.Sprintf("unknown record kind %q", doc.Kind),
		}
	}

	fields := doc.Fields
	if fields == nil {
		fields = map[string]any{}
	}

	encoded := kind.value.Context().Encode(fields)
	if err := encoded.Err(); err != nil {
		return &ValidationError{
			Code:    ErrCodeInvalidDocument,
			Kind:    doc.Kind,
			ID:      doc.ID,
			Message: fmt.Sprintf("encoding fields: %v", err),
		}
	}

	unified := kind.value.Unify(encoded)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		verr := &ValidationError{
			Code:    ErrCodeInvalidDocument,
			Kind:    doc.Kind,
			ID:      doc.ID,
			Message: err.Error(),
		}
		if errs := errors.Errors(err); len(errs) > 0 {
			verr.Message = errs[0].Error()
		}
		return verr
	}
	return nil
}

// ValidateAll validates every document and returns all failures.
func (s *Set) ValidateAll(docs []*record.Document) []error {
	var errs []error
	for _, doc := range docs {
		if err := s.Validate(doc); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// FindCUEFiles returns the .cue files directly inside dir.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error, code string) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}

	first := errs[0]
	var pos token.Pos
	if positions := errors.Positions(first); len(positions) > 0 {
		pos = positions[0]
	}
	return &LoadError{Code: code, Message: first.Error(), Pos: pos}
}
