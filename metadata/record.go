// Package metadata models the per-edition metadata record.
//
// A record is created with version 1 when its edition is issued. Every
// authorized mutation replaces the payload and bumps the version by exactly
// one; Extra is never touched by the engine. Burning removes the record for
// good: edition numbers only move forward, so an id is never reissued.
package metadata

import (
	"fmt"
	"maps"

	"github.com/fxamacker/cbor/v2"

	"github.com/xraph/edition/types"
)

var (
	ErrInvalidID      = types.Invalid("metadata: edition id must not be negative")
	ErrInvalidVersion = types.Invalid("metadata: version must be at least 1")
)

// Payload is free-form application metadata.
type Payload map[string]any

// Clone returns a shallow copy of p.
func (p Payload) Clone() Payload {
	if p == nil {
		return Payload{}
	}
	return maps.Clone(p)
}

// Record is the datum of a metadata object.
type Record struct {
	_       struct{}        `cbor:",toarray"`
	ID      int64           `json:"id"`
	Payload Payload         `json:"payload"`
	Version int64           `json:"version"`
	Extra   cbor.RawMessage `json:"extra,omitempty"`
}

// New returns the version-1 record for id.
func New(id int64, payload Payload) (Record, error) {
	if id < 0 {
		return Record{}, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	return Record{ID: id, Payload: payload.Clone(), Version: 1}, nil
}

// Mutate returns the next version of r carrying payload.
func (r Record) Mutate(payload Payload) Record {
	return Record{
		ID:      r.ID,
		Payload: payload.Clone(),
		Version: r.Version + 1,
		Extra:   r.Extra,
	}
}

// Validate checks a record read from the store.
func (r Record) Validate() error {
	if r.ID < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, r.ID)
	}
	if r.Version < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidVersion, r.Version)
	}
	return nil
}
