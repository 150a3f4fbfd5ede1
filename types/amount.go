package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"
	"math/bits"
)

// Amount is a signed 128-bit integer in the smallest unit of the funding
// asset. All arithmetic is integer-only and every operation that can leave
// the representable range reports it instead of wrapping.
//
// The zero value is 0.
//
//nolint:recvcheck // Value receivers for arithmetic, pointer receivers for UnmarshalText/Scan.
type Amount struct {
	hi int64
	lo uint64
}

// Bounds of the representable range.
var (
	MaxAmount = Amount{hi: 1<<63 - 1, lo: 1<<64 - 1}
	MinAmount = Amount{hi: -1 << 63, lo: 0}
)

var (
	bigMax = MaxAmount.Big()
	bigMin = MinAmount.Big()
)

// NewAmount creates an Amount from an int64.
func NewAmount(v int64) Amount {
	hi := int64(0)
	if v < 0 {
		hi = -1
	}
	return Amount{hi: hi, lo: uint64(v)}
}

// AmountFromBig converts a big.Int. ok is false when b is outside the range.
func AmountFromBig(b *big.Int) (Amount, bool) {
	if b.Cmp(bigMax) > 0 || b.Cmp(bigMin) < 0 {
		return Amount{}, false
	}
	mask := new(big.Int).SetUint64(1<<64 - 1)
	lo := new(big.Int).And(b, mask).Uint64()
	hi := new(big.Int).Rsh(b, 64).Int64()
	return Amount{hi: hi, lo: lo}, true
}

// ParseAmount parses a base-10 integer string.
func ParseAmount(s string) (Amount, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("amount: parse %q: not an integer", s)
	}
	a, ok := AmountFromBig(b)
	if !ok {
		return Amount{}, fmt.Errorf("amount: parse %q: out of range", s)
	}
	return a, nil
}

// MustParseAmount is like ParseAmount but panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a+b. ok is false when the sum is not representable.
func (a Amount) Add(b Amount) (Amount, bool) {
	lo, carry := bits.Add64(a.lo, b.lo, 0)
	hi, _ := bits.Add64(uint64(a.hi), uint64(b.hi), carry)
	r := Amount{hi: int64(hi), lo: lo}
	if (a.hi < 0) == (b.hi < 0) && (r.hi < 0) != (a.hi < 0) {
		return Amount{}, false
	}
	return r, true
}

// Sub returns a-b. ok is false when the difference is not representable.
func (a Amount) Sub(b Amount) (Amount, bool) {
	lo, borrow := bits.Sub64(a.lo, b.lo, 0)
	hi, _ := bits.Sub64(uint64(a.hi), uint64(b.hi), borrow)
	r := Amount{hi: int64(hi), lo: lo}
	if (a.hi < 0) != (b.hi < 0) && (r.hi < 0) != (a.hi < 0) {
		return Amount{}, false
	}
	return r, true
}

// Mul returns a*b. ok is false when the product is not representable.
func (a Amount) Mul(b Amount) (Amount, bool) {
	return AmountFromBig(new(big.Int).Mul(a.Big(), b.Big()))
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	switch {
	case a.hi < b.hi:
		return -1
	case a.hi > b.hi:
		return 1
	case a.lo < b.lo:
		return -1
	case a.lo > b.lo:
		return 1
	default:
		return 0
	}
}

// Sign returns -1, 0 or +1.
func (a Amount) Sign() int {
	switch {
	case a.hi < 0:
		return -1
	case a.hi == 0 && a.lo == 0:
		return 0
	default:
		return 1
	}
}

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool { return a.hi == 0 && a.lo == 0 }

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool { return a.hi < 0 }

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool { return a.Sign() > 0 }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.Cmp(b) < 0 }

// Big returns a as a big.Int.
func (a Amount) Big() *big.Int {
	b := new(big.Int).SetInt64(a.hi)
	b.Lsh(b, 64)
	return b.Add(b, new(big.Int).SetUint64(a.lo))
}

// Float64 returns the nearest float64. Intended for metrics only.
func (a Amount) Float64() float64 {
	f, _ := new(big.Float).SetInt(a.Big()).Float64()
	return f
}

// String returns the base-10 representation.
func (a Amount) String() string {
	if a.hi == 0 {
		return fmt.Sprintf("%d", a.lo)
	}
	return a.Big().String()
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON encodes the amount as a JSON string so that values beyond
// 2^53 survive JavaScript consumers.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return a.UnmarshalText([]byte(s))
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount: unmarshal %s: %w", data, err)
	}
	return a.UnmarshalText([]byte(n.String()))
}

// Value implements driver.Valuer. Amounts are stored as decimal text.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Amount{}
		return nil
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case int64:
		*a = NewAmount(v)
		return nil
	default:
		return fmt.Errorf("amount: cannot scan %T into Amount", src)
	}
}
