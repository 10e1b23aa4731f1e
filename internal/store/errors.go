package store

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownKind is returned when a record's kind is not part of the
	// container's schema.
	ErrUnknownKind = errors.New("kind not in schema")
	// ErrNotFound is returned by single-record fetches that match nothing.
	ErrNotFound = errors.New("record not found")
	// ErrContainerClosed is returned by operations on a closed container.
	ErrContainerClosed = errors.New("container closed")
)

// ContainerInitError reports that a container's backend could not be
// initialized: bad path, I/O failure, or an on-disk schema this version
// cannot read.
type ContainerInitError struct {
	Config Configuration
	Err    error
}

func (e *ContainerInitError) Error() string {
	where := "in-memory store"
	if path, ok := e.Config.URL(); ok {
		where = path
	}
	return fmt.Sprintf("failed to initialize model container (%s): %v", where, e.Err)
}

func (e *ContainerInitError) Unwrap() error {
	return e.Err
}

// SchemaVersionError is wrapped by ContainerInitError when the database was
// written by a newer version of the store.
type SchemaVersionError struct {
	Found     int
	Supported int
}

func (e *SchemaVersionError) Error() string {
	return fmt.Sprintf("database schema version %d is newer than supported version %d", e.Found, e.Supported)
}

// CommitError reports a failed commit. The failure cause (unknown kind,
// encoding, SQL) is not classified further; inspect Err with errors.Is/As.
// The context's pending changes are left in place.
type CommitError struct {
	Changes int
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("commit %d change(s): %v", e.Changes, e.Err)
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
