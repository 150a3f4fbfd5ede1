package vault

// SafeAdd returns a+b, failing with ErrOverflow above the range and
// ErrUnderflow below it.
func SafeAdd(a, b Amount) (Amount, error) {
	r, ok := a.Add(b)
	if !ok {
		if a.IsNegative() {
			return Amount{}, ErrUnderflow
		}
		return Amount{}, ErrOverflow
	}
	return r, nil
}

// SafeSub returns a-b, failing with ErrOverflow above the range and
// ErrUnderflow below it.
func SafeSub(a, b Amount) (Amount, error) {
	r, ok := a.Sub(b)
	if !ok {
		if a.IsNegative() {
			return Amount{}, ErrUnderflow
		}
		return Amount{}, ErrOverflow
	}
	return r, nil
}

// SafeMul returns a*b, failing with ErrOverflow when the product is not
// representable.
func SafeMul(a, b Amount) (Amount, error) {
	r, ok := a.Mul(b)
	if !ok {
		return Amount{}, ErrOverflow
	}
	return r, nil
}

// ValidateNonNegative fails with ErrUnderflow when amount < 0.
func ValidateNonNegative(amount Amount) error {
	if amount.IsNegative() {
		return ErrUnderflow
	}
	return nil
}

// AddToBalance credits a non-negative amount to a balance. The result is
// never negative.
func AddToBalance(balance, amount Amount) (Amount, error) {
	if err := ValidateNonNegative(amount); err != nil {
		return Amount{}, err
	}
	r, err := SafeAdd(balance, amount)
	if err != nil {
		return Amount{}, err
	}
	if r.IsNegative() {
		return Amount{}, ErrUnderflow
	}
	return r, nil
}

// SubFromBalance debits a non-negative amount from a balance. Any negative
// input or result fails with ErrUnderflow.
func SubFromBalance(balance, amount Amount) (Amount, error) {
	if err := ValidateNonNegative(amount); err != nil {
		return Amount{}, err
	}
	r, err := SafeSub(balance, amount)
	if err != nil {
		return Amount{}, err
	}
	if r.IsNegative() {
		return Amount{}, ErrUnderflow
	}
	return r, nil
}

// saturatingAdd adds two timestamps, clamping at the maximum.
func saturatingAdd(a, b uint64) uint64 {
	if s := a + b; s >= a {
		return s
	}
	return ^uint64(0)
}

// checkedAdd adds two timestamps, failing with ErrOverflow on wrap.
func checkedAdd(a, b uint64) (uint64, error) {
	if s := a + b; s >= a {
		return s, nil
	}
	return 0, ErrOverflow
}
