package edition

import (
	"github.com/xraph/edition/metadata"
	"github.com/xraph/edition/payment"
	"github.com/xraph/edition/types"
)

// Re-export common types so callers don't have to import the leaf packages.

// Unit is re-exported from the types package.
type Unit = types.Unit

// Value is re-exported from the types package.
type Value = types.Value

// Address is re-exported from the types package.
type Address = types.Address

// Payload is re-exported from the metadata package.
type Payload = metadata.Payload

// PaymentEntry is re-exported from the payment package.
type PaymentEntry = payment.Entry

// Transfer is re-exported from the payment package.
type Transfer = payment.Transfer

// Native is the native settlement unit.
const Native = types.Native

// Re-export constructors
var (
	Of        = types.Of
	ParseUnit = types.ParseUnit
)
