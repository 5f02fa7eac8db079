// Package payment holds the payment table and the matcher that turns it into
// transfers for a purchase.
//
// Each entry lists what one recipient is owed per issued item in one or more
// settlement units. A purchase settles in exactly one unit: entries without
// an amount for that unit are alternative options and are skipped, not
// treated as partial obligations.
package payment

import (
	"errors"
	"fmt"

	"github.com/xraph/edition/types"
)

var (
	ErrNoMatchingOption = errors.New("payment: no matching payment option")
	ErrInvalidQuantity  = types.Invalid("payment: quantity must be at least 1")
	ErrAmountOverflow   = errors.New("payment: amount overflows")
	ErrInvalidTable     = types.Invalid("payment: invalid payment table")
)

// Entry is one recipient and its per-item amounts.
type Entry struct {
	_         struct{}      `cbor:",toarray"`
	Recipient types.Address `json:"recipient" yaml:"recipient"`
	PerUnit   types.Value   `json:"per_unit" yaml:"per_unit"`
}

// Table is the datum of the payment-table object. The entry list is always
// replaced whole; Version counts replacements starting at 1.
type Table struct {
	_       struct{} `cbor:",toarray"`
	Entries []Entry  `json:"entries"`
	Version int64    `json:"version"`
}

// NewTable returns the first version of a table. Units are stored in the
// lowercase form ParseUnit returns.
func NewTable(entries []Entry) (Table, error) {
	return buildTable(entries, 1)
}

// Replace returns the next version holding entries.
func (t Table) Replace(entries []Entry) (Table, error) {
	return buildTable(entries, t.Version+1)
}

func buildTable(entries []Entry, version int64) (Table, error) {
	normalized, err := normalizeEntries(entries)
	if err != nil {
		return Table{}, err
	}
	t := Table{Entries: normalized, Version: version}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// Validate checks that every entry names a recipient and only positive
// amounts in valid units, each in canonical form. An empty table is valid;
// it matches no purchase.
func (t Table) Validate() error {
	for i, e := range t.Entries {
		if e.Recipient == "" {
			return fmt.Errorf("%w: entry %d has no recipient", ErrInvalidTable, i)
		}
		if e.PerUnit.IsZero() {
			return fmt.Errorf("%w: entry %d has no amounts", ErrInvalidTable, i)
		}
		for _, u := range e.PerUnit.Units() {
			parsed, err := types.ParseUnit(string(u))
			if err != nil {
				return fmt.Errorf("%w: entry %d: %w", ErrInvalidTable, i, err)
			}
			if parsed != u {
				return fmt.Errorf("%w: entry %d unit %s is not lowercase", ErrInvalidTable, i, u)
			}
			if e.PerUnit[u] <= 0 {
				return fmt.Errorf("%w: entry %d amount for %s must be positive", ErrInvalidTable, i, u)
			}
		}
	}
	return nil
}

// Units lists the settlement units the table accepts.
func (t Table) Units() []types.Unit {
	var all types.Value
	for _, e := range t.Entries {
		all = all.Add(e.PerUnit)
	}
	return all.Units()
}

// normalizeEntries copies entries with every unit parsed and lowercased.
// Two spellings of one unit in the same entry are rejected.
func normalizeEntries(entries []Entry) ([]Entry, error) {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		per := make(types.Value, len(e.PerUnit))
		for u, q := range e.PerUnit {
			if q == 0 {
				continue
			}
			parsed, err := types.ParseUnit(string(u))
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidTable, i, err)
			}
			if _, dup := per[parsed]; dup {
				return nil, fmt.Errorf("%w: entry %d lists %s twice", ErrInvalidTable, i, parsed)
			}
			per[parsed] = q
		}
		out[i] = Entry{Recipient: e.Recipient, PerUnit: per}
	}
	return out, nil
}
