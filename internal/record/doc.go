// Package record defines the contract between persisted Go types and the
// store.
//
// A record is any type that implements Record: it names its kind (the schema
// entity it belongs to) and its key (identity within that kind). Everything
// else about the type is opaque; the store serializes it whole with
// encoding/json.
//
// # Lifecycle timestamps
//
// Types that embed Timestamps get created/updated bookkeeping:
//
//	type Note struct {
//	    record.Timestamps
//	    ID   string `json:"id"`
//	    Name string `json:"name"`
//	}
//
//	record.ApplyLifecycleUpdate(note)
//
// The update is a two-state machine. A record starts Uninitialized (no
// CreatedAt). The first update moves it to Initialized and stamps both
// fields with the same instant; every later update only moves UpdatedAt.
// CreatedAt is write-once.
//
// # Canonical JSON
//
// MarshalCanonical and ContentHash give a deterministic byte form of a
// record (sorted keys, NFC strings, no HTML escaping). The store uses the
// hash to skip rewriting rows whose content did not change.
//
// This package imports nothing internal.
package record
