package store

import (
	"bytes"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/roach88/persistkit/internal/record"
)

// note is the record type most tests store.
type note struct {
	record.Timestamps
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (n *note) RecordKind() string { return "Note" }
func (n *note) RecordKey() string  { return n.ID }

// tag is a second kind, used to check per-kind isolation.
type tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func (t *tag) RecordKind() string { return "Tag" }
func (t *tag) RecordKey() string  { return t.ID }

// broken cannot be encoded as JSON.
type broken struct {
	ID string   `json:"id"`
	Ch chan int `json:"ch"`
}

func (b *broken) RecordKind() string { return "Broken" }
func (b *broken) RecordKey() string  { return b.ID }

func testSchema() Schema {
	return NewSchema(&note{}, &tag{}, &broken{})
}

// createTestContainer creates a new durable container in a temp dir.
func createTestContainer(t *testing.T, opts ...Option) *Container {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	opts = append([]Option{WithPath(path)}, opts...)
	c, err := OpenContainer(testSchema(), opts...)
	if err != nil {
		t.Fatalf("OpenContainer() failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// createMemoryContainer creates a new in-memory container.
func createMemoryContainer(t *testing.T, opts ...Option) *Container {
	t.Helper()
	opts = append([]Option{WithInMemory(true)}, opts...)
	c, err := OpenContainer(testSchema(), opts...)
	if err != nil {
		t.Fatalf("OpenContainer() failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// bufferLogger returns a logger writing text records into the returned buffer.
func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, nil)), buf
}

// rowCount counts all rows in the records table, bypassing the schema check.
func rowCount(t *testing.T, c *Container) int {
	t.Helper()
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

// seqOf returns the stored seq of (kind, id).
func seqOf(t *testing.T, c *Container, kind, id string) int64 {
	t.Helper()
	var seq int64
	err := c.db.QueryRow("SELECT seq FROM records WHERE kind = ? AND id = ?", kind, id).Scan(&seq)
	if err != nil {
		t.Fatalf("read seq of %s %q: %v", kind, id, err)
	}
	return seq
}

// verifyPragma checks that a pragma is set to the expected value.
func verifyPragma(db *sql.DB, name, expected string) error {
	var value string
	if err := db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
