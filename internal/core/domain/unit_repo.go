package domain

import "context"

// UnitRepository owns the asset records, the per-owner index and the global
// counter. The three mutating methods each run as a single atomic storage
// transaction: a failure leaves no partial state behind.
type UnitRepository interface {
	// GetUnit returns the unit with the given dna, or nil if absent.
	GetUnit(ctx context.Context, dna DNA) (*Unit, error)
	ContainsUnit(ctx context.Context, dna DNA) (bool, error)
	// CountUnits returns the number of units ever created. Units are never
	// deleted, so this always equals the live record count.
	CountUnits(ctx context.Context) (uint32, error)
	// OwnedUnits returns a snapshot of the owner's index. Insertion order,
	// except that removals swap the last element into the vacated slot.
	OwnedUnits(ctx context.Context, owner string) ([]DNA, error)
	// CreateUnit inserts a new unit, appends it to its owner's index and
	// increments the counter. Fails with ErrDuplicateUnit, ErrOwnerCapacity
	// or ErrTotalCapacity.
	CreateUnit(ctx context.Context, unit Unit) error
	// TransferUnit appends the unit to the recipient's index, removes it
	// from the sender's (swap-with-last) and updates the owner field. Fails
	// with ErrTransferToSelf if from and to are the same account, with
	// ErrOwnerCapacity if the recipient's index is full, or with
	// ErrUnitNotFound if the unit is missing from the sender's index, which
	// indicates an index/registry inconsistency.
	TransferUnit(ctx context.Context, dna DNA, from, to string) error
	// SetUnitPrice updates the listed price. Fails with ErrUnitNotFound.
	SetUnitPrice(ctx context.Context, dna DNA, price uint64) error
	Close()
}
