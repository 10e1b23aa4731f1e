package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/persistkit/internal/record"
)

// StoredRecord is one row as read back from the store.
type StoredRecord struct {
	Kind      string          `json:"kind"`
	ID        string          `json:"id"`
	Seq       int64           `json:"seq"`
	Data      json.RawMessage `json:"data"`
	Hash      string          `json:"hash"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	UpdatedAt *time.Time      `json:"updated_at,omitempty"`
}

// Reads go straight to the database and see only committed rows; they are
// safe from any goroutine.

// FetchRaw returns every stored row of kind.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if no rows exist.
func (c *Context) FetchRaw(ctx context.Context, kind string) ([]StoredRecord, error) {
	if !c.container.schema.Contains(kind) {
		return nil, fmt.Errorf("fetch %s: %w", kind, ErrUnknownKind)
	}

	rows, err := c.container.db.QueryContext(ctx, `
		SELECT kind, id, seq, data, hash, created_at, updated_at
		FROM records
		WHERE kind = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		rec, err := scanStoredRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}

	if out == nil {
		out = []StoredRecord{}
	}
	return out, nil
}

// FetchRawByKey returns the row for (kind, id), or ErrNotFound.
func (c *Context) FetchRawByKey(ctx context.Context, kind, id string) (StoredRecord, error) {
	if !c.container.schema.Contains(kind) {
		return StoredRecord{}, fmt.Errorf("fetch %s: %w", kind, ErrUnknownKind)
	}

	row := c.container.db.QueryRowContext(ctx, `
		SELECT kind, id, seq, data, hash, created_at, updated_at
		FROM records
		WHERE kind = ? AND id = ?
	`, kind, id)

	rec, err := scanStoredRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredRecord{}, fmt.Errorf("fetch %s %q: %w", kind, id, ErrNotFound)
	}
	return rec, err
}

// Count returns the number of stored rows of kind.
func (c *Context) Count(ctx context.Context, kind string) (int, error) {
	if !c.container.schema.Contains(kind) {
		return 0, fmt.Errorf("count %s: %w", kind, ErrUnknownKind)
	}

	var n int
	err := c.container.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE kind = ?`, kind,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

// recordPtr constrains PT to a pointer to T that is a Record.
type recordPtr[T any] interface {
	*T
	record.Record
}

// FetchAll decodes every stored record of T's kind, in fetch order.
// The kind is taken from the zero value of T, so T must report a fixed kind;
// use FetchKind for types like record.Document whose kind is per-value.
func FetchAll[T any, PT recordPtr[T]](ctx context.Context, c *Context) ([]PT, error) {
	return FetchKind[T, PT](ctx, c, PT(new(T)).RecordKind())
}

// FetchKind decodes every stored record of kind into T.
func FetchKind[T any, PT recordPtr[T]](ctx context.Context, c *Context, kind string) ([]PT, error) {
	raw, err := c.FetchRaw(ctx, kind)
	if err != nil {
		return nil, err
	}

	out := make([]PT, 0, len(raw))
	for _, r := range raw {
		v := PT(new(T))
		if err := decodeData(r.Data, v); err != nil {
			return nil, fmt.Errorf("decode %s %q: %w", kind, r.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// FetchOne decodes the record of kind with the given key, or returns
// ErrNotFound.
func FetchOne[T any, PT recordPtr[T]](ctx context.Context, c *Context, kind, id string) (PT, error) {
	raw, err := c.FetchRawByKey(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	v := PT(new(T))
	if err := decodeData(raw.Data, v); err != nil {
		return nil, fmt.Errorf("decode %s %q: %w", kind, id, err)
	}
	return v, nil
}

// decodeData decodes a stored body into v. Numbers landing in interface
// values stay json.Number so a fetch-modify-save cycle writes them back
// digit for digit.
func decodeData(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanStoredRecord(s rowScanner) (StoredRecord, error) {
	var (
		rec                  StoredRecord
		data                 string
		createdAt, updatedAt sql.NullString
	)

	if err := s.Scan(&rec.Kind, &rec.ID, &rec.Seq, &data, &rec.Hash, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredRecord{}, err
		}
		return StoredRecord{}, fmt.Errorf("scan record: %w", err)
	}
	rec.Data = json.RawMessage(data)

	var err error
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return StoredRecord{}, fmt.Errorf("scan record %s %q: created_at: %w", rec.Kind, rec.ID, err)
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return StoredRecord{}, fmt.Errorf("scan record %s %q: updated_at: %w", rec.Kind, rec.ID, err)
	}
	return rec, nil
}

func parseTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
