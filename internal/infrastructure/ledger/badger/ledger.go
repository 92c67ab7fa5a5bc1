package badgerledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/brood-labs/broodd/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const ledgerStoreDir = "ledger"

type accountDTO struct {
	Account  string
	Free     uint64
	Reserved uint64
}

// Ledger is a badger-backed reserve ledger. It gives the CLI persistent
// balances across invocations; a real deployment would replace it with the
// hosting environment's ledger.
type Ledger struct {
	store *badgerhold.Store
}

func NewReserveLedger(baseDir string, logger badger.Logger) (*Ledger, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, ledgerStoreDir)
	}

	isInMemory := len(dir) <= 0
	opts := badger.DefaultOptions(dir)
	opts.Logger = logger
	if isInMemory {
		opts.InMemory = true
	}

	store, err := badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger store: %s", err)
	}

	return &Ledger{store}, nil
}

func (l *Ledger) CanReserve(_ context.Context, acc string, amount uint64) (bool, error) {
	account, err := l.getAccount(acc)
	if err != nil {
		return false, err
	}
	return account.Free >= amount, nil
}

func (l *Ledger) Reserve(_ context.Context, acc string, amount uint64) error {
	return l.store.Badger().Update(func(tx *badger.Txn) error {
		account, err := l.txGetAccount(tx, acc)
		if err != nil {
			return err
		}
		if account.Free < amount {
			return domain.ErrInsufficientBalance.New(
				"account %s has %d free, cannot reserve %d", acc, account.Free, amount,
			)
		}
		account.Free -= amount
		account.Reserved += amount
		return l.store.TxUpsert(tx, acc, account)
	})
}

func (l *Ledger) Unreserve(_ context.Context, acc string, amount uint64) error {
	return l.store.Badger().Update(func(tx *badger.Txn) error {
		account, err := l.txGetAccount(tx, acc)
		if err != nil {
			return err
		}
		if account.Reserved < amount {
			amount = account.Reserved
		}
		account.Reserved -= amount
		account.Free += amount
		return l.store.TxUpsert(tx, acc, account)
	})
}

func (l *Ledger) Transfer(_ context.Context, from, to string, amount uint64) error {
	return l.store.Badger().Update(func(tx *badger.Txn) error {
		src, err := l.txGetAccount(tx, from)
		if err != nil {
			return err
		}
		if src.Free < amount {
			return domain.ErrInsufficientBalance.New(
				"account %s has %d free, cannot transfer %d", from, src.Free, amount,
			)
		}
		dst, err := l.txGetAccount(tx, to)
		if err != nil {
			return err
		}
		src.Free -= amount
		dst.Free += amount
		if err := l.store.TxUpsert(tx, from, src); err != nil {
			return err
		}
		return l.store.TxUpsert(tx, to, dst)
	})
}

func (l *Ledger) Deposit(acc string, amount uint64) error {
	return l.store.Badger().Update(func(tx *badger.Txn) error {
		account, err := l.txGetAccount(tx, acc)
		if err != nil {
			return err
		}
		account.Free += amount
		return l.store.TxUpsert(tx, acc, account)
	})
}

func (l *Ledger) Balances(acc string) (free, reserved uint64, err error) {
	account, err := l.getAccount(acc)
	if err != nil {
		return 0, 0, err
	}
	return account.Free, account.Reserved, nil
}

func (l *Ledger) Close() {
	// nolint:all
	l.store.Close()
}

func (l *Ledger) getAccount(acc string) (accountDTO, error) {
	var account accountDTO
	if err := l.store.Get(acc, &account); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return accountDTO{Account: acc}, nil
		}
		return accountDTO{}, err
	}
	return account, nil
}

func (l *Ledger) txGetAccount(tx *badger.Txn, acc string) (accountDTO, error) {
	var account accountDTO
	if err := l.store.TxGet(tx, acc, &account); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return accountDTO{Account: acc}, nil
		}
		return accountDTO{}, err
	}
	return account, nil
}
