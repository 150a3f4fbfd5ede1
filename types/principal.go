package types

// Principal is an opaque identity (subscriber, merchant, admin or custody
// account). Principals are compared by equality only.
type Principal string

// String returns the principal as a plain string.
func (p Principal) String() string { return string(p) }

// IsZero reports whether the principal is empty.
func (p Principal) IsZero() bool { return p == "" }
