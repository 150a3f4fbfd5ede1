// Package transfer moves the settlement asset between principals. The vault
// only tracks prepaid balances; the asset itself lives wherever a Client
// puts it.
package transfer

import (
	"context"
	"errors"

	"github.com/xraph/vault/types"
)

// ErrInsufficientFunds is returned when the source principal cannot cover
// a transfer.
var ErrInsufficientFunds = errors.New("transfer: insufficient funds")

// Client performs asset transfers.
type Client interface {
	Transfer(ctx context.Context, asset string, from, to types.Principal, amount types.Amount) error
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, asset string, from, to types.Principal, amount types.Amount) error

// Transfer calls f.
func (f ClientFunc) Transfer(ctx context.Context, asset string, from, to types.Principal, amount types.Amount) error {
	return f(ctx, asset, from, to, amount)
}

// Nop accepts every transfer without moving anything.
var Nop Client = ClientFunc(func(context.Context, string, types.Principal, types.Principal, types.Amount) error {
	return nil
})
