// Package types provides common value types used across Vault.
package types

import "time"

// Entity carries bookkeeping timestamps for persisted records.
// Embed this in domain types that the stores write.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates an Entity stamped at the given time.
func NewEntity(at time.Time) Entity {
	at = at.UTC()
	return Entity{
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// Touch sets UpdatedAt to the given time.
func (e *Entity) Touch(at time.Time) {
	e.UpdatedAt = at.UTC()
}

// Age returns how long before now the entity was created.
func (e Entity) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// FromUnix converts a ledger timestamp (seconds) into a time.Time.
// Values past the int64 range are clamped.
func FromUnix(sec uint64) time.Time {
	if sec > 1<<63-1 {
		sec = 1<<63 - 1
	}
	return time.Unix(int64(sec), 0).UTC()
}
