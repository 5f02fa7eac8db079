// Package types provides the value types shared across the engine.
package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// PolicyIDLen is the hex length of a policy identifier (28 bytes).
const PolicyIDLen = 56

// Native is the settlement unit of the ledger's native currency.
const Native Unit = "lovelace"

// ErrInvalidUnit is returned by ParseUnit.
var ErrInvalidUnit = Invalid("types: invalid unit")

// Unit identifies an asset class: the native currency, or a token named by
// its policy ID followed by the hex-encoded asset name.
type Unit string

// AssetUnit joins a hex policy ID and a hex asset name.
func AssetUnit(policy, assetNameHex string) Unit {
	return Unit(strings.ToLower(policy) + strings.ToLower(assetNameHex))
}

// ParseUnit validates a unit string. It accepts "lovelace" or a hex policy
// ID (56 chars) followed by an asset name of at most 32 bytes.
func ParseUnit(s string) (Unit, error) {
	if s == string(Native) {
		return Native, nil
	}
	if len(s) < PolicyIDLen || len(s) > PolicyIDLen+64 || len(s)%2 != 0 {
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidUnit, s, err)
	}

	return Unit(strings.ToLower(s)), nil
}

// IsNative reports whether u is the native currency.
func (u Unit) IsNative() bool { return u == Native }

// Policy returns the policy ID part of a token unit, or "" for native and
// free-form units.
func (u Unit) Policy() string {
	if u.IsNative() || len(u) < PolicyIDLen {
		return ""
	}

	return string(u[:PolicyIDLen])
}

// AssetName returns the hex asset name part of a token unit.
func (u Unit) AssetName() string {
	if u.Policy() == "" {
		return ""
	}

	return string(u[PolicyIDLen:])
}

// String implements fmt.Stringer.
func (u Unit) String() string { return string(u) }

// Address is an opaque, ledger-specific location for objects.
type Address string

// ScriptAddress returns the address of a script identified by its hash.
func ScriptAddress(hash []byte) Address {
	return Address("script_" + hex.EncodeToString(hash))
}

// String implements fmt.Stringer.
func (a Address) String() string { return string(a) }
