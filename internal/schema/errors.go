package schema

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error code constants, shared with the CLI.
const (
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	// Kind definition errors
	ErrCodeNoKinds     = "E101" // No record kinds declared
	ErrCodeInvalidKind = "E102" // Kind is not a struct

	// Document errors
	ErrCodeUnknownKind     = "E201" // Document kind not declared
	ErrCodeInvalidDocument = "E202" // Document does not satisfy its kind
)

// LoadError represents an error that occurred while loading a schema.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidationError reports a document that does not satisfy its kind.
type ValidationError struct {
	Code    string
	Kind    string
	ID      string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %q: %s", e.Code, e.Kind, e.ID, e.Message)
}
