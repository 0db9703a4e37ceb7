package credits

import (
	"context"
	"errors"
	"fmt"

	"resume-builder/internal/accounts"
)

var (
	// ErrInsufficientCredits indicates a non-ultimate account has no credits left.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrFinalizeFailed wraps storage failures of the post-persist decrement.
	ErrFinalizeFailed = errors.New("credit finalization failed")
)

// Ledger is the slice of the account store the gate needs.
type Ledger interface {
	ConsumeCredit(ctx context.Context, accountID string) (accounts.Account, error)
}

// Gate decides whether a generation may start and consumes the credit
// once its result is persisted.
type Gate struct {
	Ledger Ledger
}

// NewGate constructs a Gate over the given ledger.
func NewGate(ledger Ledger) *Gate {
	return &Gate{Ledger: ledger}
}

// Check is a read-only pre-check against the snapshot returned by the
// reconciler.
func (g *Gate) Check(acct accounts.Account) error {
	if acct.Unlimited() {
		return nil
	}
	if acct.CreditsRemaining < 1 {
		return ErrInsufficientCredits
	}
	return nil
}

// Finalize atomically decrements the account's balance by one. Ultimate
// accounts are returned unchanged. A decrement that matched no row means a
// concurrent run spent the last credit first.
func (g *Gate) Finalize(ctx context.Context, acct accounts.Account) (accounts.Account, error) {
	if acct.Unlimited() {
		return acct, nil
	}
	if g.Ledger == nil {
		return acct, fmt.Errorf("%w: ledger not configured", ErrFinalizeFailed)
	}
	updated, err := g.Ledger.ConsumeCredit(ctx, acct.ID)
	if errors.Is(err, accounts.ErrNoCredits) {
		return acct, ErrInsufficientCredits
	}
	if err != nil {
		return acct, fmt.Errorf("%w: %w", ErrFinalizeFailed, err)
	}
	return updated, nil
}

// Remaining reports the balance to show a caller; ok is false for
// unlimited plans.
func Remaining(acct accounts.Account) (n int, ok bool) {
	if acct.Unlimited() {
		return 0, false
	}
	return acct.CreditsRemaining, true
}
