// Package id defines TypeID-based identifiers for Vault records that are
// not subscriptions: emitted events, recoveries, withdrawals and batch runs.
//
// Subscriptions themselves are keyed by a sequential integer (see the
// subscription package). Everything else uses a single ID struct with a
// prefix that identifies the record type. IDs are K-sortable (UUIDv7-based),
// globally unique, and URL-safe in the format "prefix_suffix".
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the record type encoded in a TypeID.
type Prefix string

// Prefix constants for all Vault record types.
const (
	PrefixEvent      Prefix = "evt" // Emitted notification
	PrefixRecovery   Prefix = "rcv" // Stranded-funds recovery
	PrefixWithdrawal Prefix = "wdr" // Merchant withdrawal
	PrefixBatch      Prefix = "bat" // Batch charge run
)

// ID is the identifier type for all non-subscription Vault records.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "evt_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// EventID identifies an emitted event (prefix: "evt").
type EventID = ID

// RecoveryID identifies a recovery record (prefix: "rcv").
type RecoveryID = ID

// WithdrawalID identifies a merchant withdrawal (prefix: "wdr").
type WithdrawalID = ID

// BatchID identifies a batch charge run (prefix: "bat").
type BatchID = ID

// NewEventID generates a new unique event ID.
func NewEventID() ID { return New(PrefixEvent) }

// NewRecoveryID generates a new unique recovery ID.
func NewRecoveryID() ID { return New(PrefixRecovery) }

// NewWithdrawalID generates a new unique withdrawal ID.
func NewWithdrawalID() ID { return New(PrefixWithdrawal) }

// NewBatchID generates a new unique batch ID.
func NewBatchID() ID { return New(PrefixBatch) }

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}
