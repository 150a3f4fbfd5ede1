package transfer

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/vault/types"
)

// Ledger is an in-process asset book keyed by asset and principal. It is
// meant for tests, simulations and single-node deployments.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]map[types.Principal]types.Amount
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[string]map[types.Principal]types.Amount)}
}

// Mint credits amount of asset to p.
func (l *Ledger) Mint(asset string, p types.Principal, amount types.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next, ok := l.book(asset)[p].Add(amount)
	if !ok {
		return fmt.Errorf("transfer: mint %s to %s overflows", amount, p)
	}
	l.book(asset)[p] = next
	return nil
}

// Balance returns p's holding of asset.
func (l *Ledger) Balance(asset string, p types.Principal) types.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[asset][p]
}

// Transfer moves amount from one principal to another.
func (l *Ledger) Transfer(ctx context.Context, asset string, from, to types.Principal, amount types.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount.IsNegative() {
		return fmt.Errorf("transfer: negative amount %s", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	book := l.book(asset)
	src := book[from]
	if src.LessThan(amount) {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientFunds, from, src, amount)
	}
	if from == to {
		return nil
	}
	dst, ok := book[to].Add(amount)
	if !ok {
		return fmt.Errorf("transfer: credit to %s overflows", to)
	}
	book[from], _ = src.Sub(amount)
	book[to] = dst
	return nil
}

func (l *Ledger) book(asset string) map[types.Principal]types.Amount {
	b, ok := l.balances[asset]
	if !ok {
		b = make(map[types.Principal]types.Amount)
		l.balances[asset] = b
	}
	return b
}

var _ Client = (*Ledger)(nil)
