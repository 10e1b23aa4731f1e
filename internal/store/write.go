package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/persistkit/internal/record"
)

// encodedRecord is a record ready to be written.
type encodedRecord struct {
	kind      string
	id        string
	data      string
	hash      string
	createdAt sql.NullString
	updatedAt sql.NullString
}

// encodeRecord serializes r and computes its content hash.
func encodeRecord(r record.Record) (encodedRecord, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return encodedRecord{}, fmt.Errorf("encode %s %q: %w", r.RecordKind(), r.RecordKey(), err)
	}

	hash, err := record.ContentHash(r)
	if err != nil {
		return encodedRecord{}, fmt.Errorf("encode %s %q: %w", r.RecordKind(), r.RecordKey(), err)
	}

	enc := encodedRecord{
		kind: r.RecordKind(),
		id:   r.RecordKey(),
		data: string(data),
		hash: hash,
	}
	if ts := record.TimestampsOf(r); ts != nil {
		enc.createdAt = formatTime(ts.CreatedAt)
		enc.updatedAt = formatTime(ts.UpdatedAt)
	}
	return enc, nil
}

func formatTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}

// validate checks a pending change against the schema before anything is
// written.
func (c *Container) validate(ch change) error {
	kind := ch.rec.RecordKind()
	if !c.schema.Contains(kind) {
		return fmt.Errorf("%s %q: %w", kind, ch.rec.RecordKey(), ErrUnknownKind)
	}
	if ch.rec.RecordKey() == "" {
		return fmt.Errorf("%s: empty record key", kind)
	}
	return nil
}

// apply writes changes in one transaction. Either every change lands or
// none does.
func (c *Container) apply(ctx context.Context, changes []change) error {
	encoded := make([]encodedRecord, len(changes))
	for i, ch := range changes {
		if err := c.validate(ch); err != nil {
			return err
		}
		if ch.op != opInsert {
			continue
		}
		enc, err := encodeRecord(ch.rec)
		if err != nil {
			return err
		}
		encoded[i] = enc
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for i, ch := range changes {
		switch ch.op {
		case opInsert:
			if err := c.writeRecord(ctx, tx, encoded[i]); err != nil {
				return err
			}
		case opDelete:
			if err := deleteRecord(ctx, tx, ch.rec.RecordKind(), ch.rec.RecordKey()); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown change op %d", ch.op)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// writeRecord upserts one row. A row whose encoded data is byte-for-byte
// unchanged is left alone, so its seq keeps pointing at the last real write.
func (c *Container) writeRecord(ctx context.Context, tx *sql.Tx, enc encodedRecord) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO records
		(kind, id, seq, data, hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			seq = excluded.seq,
			data = excluded.data,
			hash = excluded.hash,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
		WHERE records.data <> excluded.data
	`,
		enc.kind,
		enc.id,
		c.seq.Next(),
		enc.data,
		enc.hash,
		enc.createdAt,
		enc.updatedAt,
	)
	if err != nil {
		return fmt.Errorf("write %s %q: %w", enc.kind, enc.id, err)
	}
	return nil
}

func deleteRecord(ctx context.Context, tx *sql.Tx, kind, id string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM records WHERE kind = ? AND id = ?`, kind, id)
	if err != nil {
		return fmt.Errorf("delete %s %q: %w", kind, id, err)
	}
	return nil
}
