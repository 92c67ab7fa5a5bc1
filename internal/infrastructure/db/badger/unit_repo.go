package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/brood-labs/broodd/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const (
	unitStoreDir = "units"
	counterKey   = "counter"
)

type unitRepository struct {
	store    *badgerhold.Store
	maxOwned uint32
	maxTotal uint32
}

type unitDTO struct {
	DNA       string
	Price     uint64
	Owner     string
	CreatedAt int64
	UpdatedAt int64
}

type ownerIndexDTO struct {
	Owner string
	Units []string
}

type counterDTO struct {
	Count uint32
}

func NewUnitRepository(config ...interface{}) (domain.UnitRepository, error) {
	if len(config) != 4 {
		return nil, fmt.Errorf("invalid config")
	}
	baseDir, ok := config[0].(string)
	if !ok {
		return nil, fmt.Errorf("invalid base directory")
	}
	var logger badger.Logger
	if config[1] != nil {
		logger, ok = config[1].(badger.Logger)
		if !ok {
			return nil, fmt.Errorf("invalid logger")
		}
	}
	maxOwned, ok := config[2].(uint32)
	if !ok {
		return nil, fmt.Errorf("invalid max owned bound")
	}
	maxTotal, ok := config[3].(uint32)
	if !ok {
		return nil, fmt.Errorf("invalid max total bound")
	}

	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, unitStoreDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open unit store: %s", err)
	}

	return &unitRepository{store, maxOwned, maxTotal}, nil
}

func (r *unitRepository) GetUnit(ctx context.Context, dna domain.DNA) (*domain.Unit, error) {
	var dto unitDTO
	if err := r.store.Get(dna.String(), &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	unit, err := dto.toUnit()
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func (r *unitRepository) ContainsUnit(ctx context.Context, dna domain.DNA) (bool, error) {
	var dto unitDTO
	if err := r.store.Get(dna.String(), &dto); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *unitRepository) CountUnits(ctx context.Context) (uint32, error) {
	var counter counterDTO
	if err := r.store.Get(counterKey, &counter); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return counter.Count, nil
}

func (r *unitRepository) OwnedUnits(ctx context.Context, owner string) ([]domain.DNA, error) {
	var index ownerIndexDTO
	if err := r.store.Get(owner, &index); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseDNAs(index.Units)
}

func (r *unitRepository) CreateUnit(ctx context.Context, unit domain.Unit) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		key := unit.DNA.String()

		var existing unitDTO
		err := r.store.TxGet(tx, key, &existing)
		if err == nil {
			return domain.ErrDuplicateUnit.New("dna %s already registered", key)
		}
		if !errors.Is(err, badgerhold.ErrNotFound) {
			return err
		}

		counter, err := r.getCounter(tx)
		if err != nil {
			return err
		}
		if counter.Count >= r.maxTotal {
			return domain.ErrTotalCapacity.New("registry is full (%d units)", counter.Count)
		}

		index, err := r.getOwnerIndex(tx, unit.Owner)
		if err != nil {
			return err
		}
		if uint32(len(index.Units)) >= r.maxOwned {
			return domain.ErrOwnerCapacity.New(
				"account %s already owns %d units", unit.Owner, len(index.Units),
			)
		}
		index.Units = append(index.Units, key)

		now := time.Now().UnixMilli()
		dto := unitDTO{
			DNA:       key,
			Price:     unit.Price,
			Owner:     unit.Owner,
			CreatedAt: unit.CreatedAt,
			UpdatedAt: now,
		}
		if err := r.store.TxInsert(tx, key, dto); err != nil {
			return err
		}
		if err := r.store.TxUpsert(tx, unit.Owner, index); err != nil {
			return err
		}

		counter.Count++
		return r.store.TxUpsert(tx, counterKey, counter)
	})
}

func (r *unitRepository) TransferUnit(
	ctx context.Context, dna domain.DNA, from, to string,
) error {
	if from == to {
		// the two index updates below assume distinct owners
		return domain.ErrTransferToSelf.New(
			"account %s cannot transfer to itself", from,
		)
	}
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		key := dna.String()

		var dto unitDTO
		if err := r.store.TxGet(tx, key, &dto); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrUnitNotFound.New("unit %s not found", key)
			}
			return err
		}

		toIndex, err := r.getOwnerIndex(tx, to)
		if err != nil {
			return err
		}
		if uint32(len(toIndex.Units)) >= r.maxOwned {
			return domain.ErrOwnerCapacity.New(
				"account %s already owns %d units", to, len(toIndex.Units),
			)
		}
		toIndex.Units = append(toIndex.Units, key)

		fromIndex, err := r.getOwnerIndex(tx, from)
		if err != nil {
			return err
		}
		if !fromIndex.swapRemove(key) {
			return domain.ErrUnitNotFound.New(
				"unit %s missing from index of account %s", key, from,
			)
		}

		if err := r.store.TxUpsert(tx, to, toIndex); err != nil {
			return err
		}
		if err := r.store.TxUpsert(tx, from, fromIndex); err != nil {
			return err
		}

		dto.Owner = to
		dto.UpdatedAt = time.Now().UnixMilli()
		return r.store.TxUpdate(tx, key, dto)
	})
}

func (r *unitRepository) SetUnitPrice(
	ctx context.Context, dna domain.DNA, price uint64,
) error {
	return r.store.Badger().Update(func(tx *badger.Txn) error {
		key := dna.String()

		var dto unitDTO
		if err := r.store.TxGet(tx, key, &dto); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return domain.ErrUnitNotFound.New("unit %s not found", key)
			}
			return err
		}

		dto.Price = price
		dto.UpdatedAt = time.Now().UnixMilli()
		return r.store.TxUpdate(tx, key, dto)
	})
}

func (r *unitRepository) Close() {
	// nolint:all
	r.store.Close()
}

func (r *unitRepository) getCounter(tx *badger.Txn) (counterDTO, error) {
	var counter counterDTO
	if err := r.store.TxGet(tx, counterKey, &counter); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return counterDTO{}, nil
		}
		return counterDTO{}, err
	}
	return counter, nil
}

func (r *unitRepository) getOwnerIndex(tx *badger.Txn, owner string) (ownerIndexDTO, error) {
	var index ownerIndexDTO
	if err := r.store.TxGet(tx, owner, &index); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return ownerIndexDTO{Owner: owner}, nil
		}
		return ownerIndexDTO{}, err
	}
	return index, nil
}

// swapRemove drops the given key by moving the last element into its slot.
// O(1), does not preserve order.
func (i *ownerIndexDTO) swapRemove(key string) bool {
	for pos, unit := range i.Units {
		if unit == key {
			last := len(i.Units) - 1
			i.Units[pos] = i.Units[last]
			i.Units = i.Units[:last]
			return true
		}
	}
	return false
}

func (d unitDTO) toUnit() (*domain.Unit, error) {
	var dna domain.DNA
	if err := dna.FromString(d.DNA); err != nil {
		return nil, err
	}
	return &domain.Unit{
		DNA:       dna,
		Price:     d.Price,
		Owner:     d.Owner,
		CreatedAt: d.CreatedAt,
	}, nil
}

func parseDNAs(keys []string) ([]domain.DNA, error) {
	dnas := make([]domain.DNA, 0, len(keys))
	for _, key := range keys {
		var dna domain.DNA
		if err := dna.FromString(key); err != nil {
			return nil, err
		}
		dnas = append(dnas, dna)
	}
	return dnas, nil
}
