// Package treasury holds the shared fund balance. Stake escrow is
// tracked by the membership ledger, not here; treasury funds move only
// through deposits, approved proposal payouts, and admin withdrawal.
package treasury

import (
	"context"

	"stakegov/internal/governance/domain"
)

// Transferer settles an outbound value transfer with the external
// execution environment. A returned error means no value moved.
type Transferer interface {
	Transfer(ctx context.Context, recipient string, amount domain.Amount) error
}

// TransferFunc adapts a function to the Transferer interface.
type TransferFunc func(ctx context.Context, recipient string, amount domain.Amount) error

// Transfer calls f.
func (f TransferFunc) Transfer(ctx context.Context, recipient string, amount domain.Amount) error {
	return f(ctx, recipient, amount)
}

// Treasury is the pooled fund balance. Plain data structure; the engine
// serializes access.
type Treasury struct {
	balance domain.Amount
}

// New returns an empty treasury.
func New() *Treasury {
	return &Treasury{}
}

// Balance returns the current balance.
func (t *Treasury) Balance() domain.Amount {
	return t.balance
}

// Deposit credits the balance. Zero deposits and credits that would
// overflow the balance are rejected.
func (t *Treasury) Deposit(amount domain.Amount) error {
	if amount == 0 {
		return domain.ErrZeroDeposit
	}
	if t.balance+amount < t.balance {
		return domain.ErrAmountOverflow
	}
	t.balance += amount
	return nil
}

// Payout transfers amount to recipient and debits the balance. The
// transfer runs first and the debit commits only after it succeeds, so a
// failed transfer leaves the balance untouched.
func (t *Treasury) Payout(ctx context.Context, via Transferer, recipient string, amount domain.Amount) error {
	if amount > t.balance {
		return domain.ErrInsufficientBalance
	}
	if via != nil {
		if err := via.Transfer(ctx, recipient, amount); err != nil {
			return domain.ErrTransferFailed
		}
	}
	t.balance -= amount
	return nil
}

// Restore sets the balance from persisted state.
func (t *Treasury) Restore(balance domain.Amount) {
	t.balance = balance
}
