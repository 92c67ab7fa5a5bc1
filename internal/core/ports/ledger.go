package ports

import "context"

// ReserveLedger is the external balance ledger. Every owned unit is backed by
// a reservation equal to its price at acquisition time; the ledger's internal
// accounting is not part of this module.
type ReserveLedger interface {
	// CanReserve reports whether the account's free balance covers amount.
	CanReserve(ctx context.Context, account string, amount uint64) (bool, error)
	// Reserve moves amount from free to reserved balance. Fails with
	// domain.ErrInsufficientBalance.
	Reserve(ctx context.Context, account string, amount uint64) error
	// Unreserve releases a previously reserved amount back to free balance.
	Unreserve(ctx context.Context, account string, amount uint64) error
	// Transfer moves amount between the free balances of two accounts.
	// Fails with domain.ErrInsufficientBalance.
	Transfer(ctx context.Context, from, to string, amount uint64) error
}
