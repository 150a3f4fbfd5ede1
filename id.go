package vault

import "github.com/xraph/vault/id"

// ID is the identifier type for events, recoveries, withdrawals and batches.
type ID = id.ID

// Prefix identifies the record type encoded in a TypeID.
type Prefix = id.Prefix
