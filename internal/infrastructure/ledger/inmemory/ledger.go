package inmemoryledger

import (
	"context"
	"sync"

	"github.com/brood-labs/broodd/internal/core/domain"
)

type account struct {
	free     uint64
	reserved uint64
}

// Ledger is an in-process reserve ledger, used by tests and as the default
// collaborator when no persistent ledger is configured.
type Ledger struct {
	lock     sync.RWMutex
	accounts map[string]*account
}

func NewReserveLedger(initialBalances map[string]uint64) *Ledger {
	accounts := make(map[string]*account)
	for acc, balance := range initialBalances {
		accounts[acc] = &account{free: balance}
	}
	return &Ledger{accounts: accounts}
}

func (l *Ledger) CanReserve(_ context.Context, acc string, amount uint64) (bool, error) {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.lookup(acc).free >= amount, nil
}

func (l *Ledger) Reserve(_ context.Context, acc string, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	a := l.get(acc)
	if a.free < amount {
		return domain.ErrInsufficientBalance.New(
			"account %s has %d free, cannot reserve %d", acc, a.free, amount,
		)
	}
	a.free -= amount
	a.reserved += amount
	return nil
}

func (l *Ledger) Unreserve(_ context.Context, acc string, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	a := l.get(acc)
	if a.reserved < amount {
		// release whatever is actually held rather than going negative
		amount = a.reserved
	}
	a.reserved -= amount
	a.free += amount
	return nil
}

func (l *Ledger) Transfer(_ context.Context, from, to string, amount uint64) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	src := l.get(from)
	if src.free < amount {
		return domain.ErrInsufficientBalance.New(
			"account %s has %d free, cannot transfer %d", from, src.free, amount,
		)
	}
	src.free -= amount
	l.get(to).free += amount
	return nil
}

// Deposit credits an account's free balance. Test and bootstrap helper, not
// part of the ledger port.
func (l *Ledger) Deposit(acc string, amount uint64) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.get(acc).free += amount
}

func (l *Ledger) Free(acc string) uint64 {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.lookup(acc).free
}

func (l *Ledger) Reserved(acc string) uint64 {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.lookup(acc).reserved
}

// lookup reads an account without inserting it, so it is safe under the read
// lock. Unknown accounts read as empty.
func (l *Ledger) lookup(acc string) account {
	if a, ok := l.accounts[acc]; ok {
		return *a
	}
	return account{}
}

// get lazily creates the account; callers must hold the write lock.
func (l *Ledger) get(acc string) *account {
	a, ok := l.accounts[acc]
	if !ok {
		a = &account{}
		l.accounts[acc] = a
	}
	return a
}
