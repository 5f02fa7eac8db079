package edition

import "github.com/xraph/edition/id"

// ID identifies one engine operation in logs, plugin events and audit
// records.
type ID = id.ID

// Prefix identifies the kind of ID encoded in a TypeID.
type Prefix = id.Prefix
