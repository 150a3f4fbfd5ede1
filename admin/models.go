// Package admin holds the singleton vault configuration and the records
// produced by admin-only operations.
package admin

import (
	"fmt"

	"github.com/xraph/vault/id"
	"github.com/xraph/vault/types"
)

// Config is the vault configuration created once by Init.
type Config struct {
	types.Entity
	// Asset identifies the funding asset moved by the transfer client.
	Asset string `json:"asset"`
	// Admin is the principal holding admin authority.
	Admin types.Principal `json:"admin"`
	// MinTopup is the smallest accepted deposit.
	MinTopup types.Amount `json:"min_topup"`
	// Custody is the account that holds prepaid funds on behalf of
	// subscribers. Deposits move into it, withdrawals and recoveries move
	// out of it.
	Custody types.Principal `json:"custody"`
}

// RecoveryReason documents why stranded funds were recovered.
type RecoveryReason uint32

const (
	// ReasonAccidentalTransfer covers funds sent to custody by mistake.
	ReasonAccidentalTransfer RecoveryReason = iota
	// ReasonDeprecatedFlow covers funds left behind by a retired flow.
	ReasonDeprecatedFlow
	// ReasonUnreachableSubscriber covers balances whose owner cannot act.
	ReasonUnreachableSubscriber
)

var reasonNames = map[RecoveryReason]string{
	ReasonAccidentalTransfer:    "accidental_transfer",
	ReasonDeprecatedFlow:        "deprecated_flow",
	ReasonUnreachableSubscriber: "unreachable_subscriber",
}

// IsValid reports whether r is a known reason.
func (r RecoveryReason) IsValid() bool {
	_, ok := reasonNames[r]
	return ok
}

func (r RecoveryReason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason(%d)", uint32(r))
}

// ParseRecoveryReason parses the snake_case name of a reason.
func ParseRecoveryReason(s string) (RecoveryReason, error) {
	for r, name := range reasonNames {
		if name == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("admin: unknown recovery reason %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r RecoveryReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *RecoveryReason) UnmarshalText(data []byte) error {
	parsed, err := ParseRecoveryReason(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Recovery is the audit record of a stranded-funds recovery.
type Recovery struct {
	ID        id.RecoveryID   `json:"id"`
	Admin     types.Principal `json:"admin"`
	Recipient types.Principal `json:"recipient"`
	Amount    types.Amount    `json:"amount"`
	Reason    RecoveryReason  `json:"reason"`
	Timestamp uint64          `json:"timestamp"`
}
