package db_test

import (
	"context"
	"testing"

	"github.com/brood-labs/broodd/internal/core/domain"
	"github.com/brood-labs/broodd/internal/infrastructure/db"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func TestUnitRepository(t *testing.T) {
	stores := []struct {
		name   string
		config func(t *testing.T) db.ServiceConfig
	}{
		{
			name: "badger",
			config: func(t *testing.T) db.ServiceConfig {
				return db.ServiceConfig{
					DataStoreType:   "badger",
					MaxOwned:        3,
					MaxTotal:        5,
					DataStoreConfig: []interface{}{"", nil},
				}
			},
		},
		{
			name: "sqlite",
			config: func(t *testing.T) db.ServiceConfig {
				return db.ServiceConfig{
					DataStoreType:   "sqlite",
					MaxOwned:        3,
					MaxTotal:        5,
					DataStoreConfig: []interface{}{t.TempDir()},
				}
			},
		},
	}

	tests := []struct {
		name string
		run  func(*testing.T, domain.UnitRepository)
	}{
		{"create and get", testCreateAndGet},
		{"duplicate dna", testDuplicateDNA},
		{"owner capacity", testOwnerCapacity},
		{"total capacity", testTotalCapacity},
		{"transfer", testTransfer},
		{"swap remove order", testSwapRemoveOrder},
		{"index inconsistency", testIndexInconsistency},
		{"set price", testSetPrice},
	}

	for _, store := range stores {
		t.Run(store.name, func(t *testing.T) {
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					svc, err := db.NewService(store.config(t))
					require.NoError(t, err)
					t.Cleanup(svc.Close)

					tt.run(t, svc.Units())
				})
			}
		})
	}
}

func testCreateAndGet(t *testing.T, repo domain.UnitRepository) {
	missing, err := repo.GetUnit(ctx, testDNA(0xff))
	require.NoError(t, err)
	require.Nil(t, missing)

	exists, err := repo.ContainsUnit(ctx, testDNA(0xff))
	require.NoError(t, err)
	require.False(t, exists)

	count, err := repo.CountUnits(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	unit := domain.Unit{
		DNA:       testDNA(1),
		Price:     50,
		Owner:     "alice",
		CreatedAt: 1700000000,
	}
	require.NoError(t, repo.CreateUnit(ctx, unit))

	got, err := repo.GetUnit(ctx, unit.DNA)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, unit, *got)

	exists, err = repo.ContainsUnit(ctx, unit.DNA)
	require.NoError(t, err)
	require.True(t, exists)

	count, err = repo.CountUnits(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)

	owned, err := repo.OwnedUnits(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []domain.DNA{unit.DNA}, owned)
}

func testDuplicateDNA(t *testing.T, repo domain.UnitRepository) {
	unit := domain.Unit{DNA: testDNA(1), Price: 50, Owner: "alice"}
	require.NoError(t, repo.CreateUnit(ctx, unit))

	// same dna, different owner: still rejected, nothing is written
	unit.Owner = "bob"
	err := repo.CreateUnit(ctx, unit)
	require.Error(t, err)
	require.True(t, domain.ErrDuplicateUnit.Is(err))

	count, err := repo.CountUnits(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)

	owned, err := repo.OwnedUnits(ctx, "bob")
	require.NoError(t, err)
	require.Empty(t, owned)
}

func testOwnerCapacity(t *testing.T, repo domain.UnitRepository) {
	for i := byte(1); i <= 3; i++ {
		require.NoError(t, repo.CreateUnit(ctx, domain.Unit{
			DNA: testDNA(i), Price: 50, Owner: "alice",
		}))
	}

	err := repo.CreateUnit(ctx, domain.Unit{DNA: testDNA(4), Price: 50, Owner: "alice"})
	require.Error(t, err)
	require.True(t, domain.ErrOwnerCapacity.Is(err))

	// the rejected unit left no trace
	exists, err := repo.ContainsUnit(ctx, testDNA(4))
	require.NoError(t, err)
	require.False(t, exists)
	count, err := repo.CountUnits(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(3), count)
}

func testTotalCapacity(t *testing.T, repo domain.UnitRepository) {
	owners := []string{"a", "b", "c", "d", "e"}
	for i, owner := range owners {
		require.NoError(t, repo.CreateUnit(ctx, domain.Unit{
			DNA: testDNA(byte(i + 1)), Price: 50, Owner: owner,
		}))
	}

	err := repo.CreateUnit(ctx, domain.Unit{DNA: testDNA(6), Price: 50, Owner: "f"})
	require.Error(t, err)
	require.True(t, domain.ErrTotalCapacity.Is(err))

	count, err := repo.CountUnits(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(5), count)
}

func testTransfer(t *testing.T, repo domain.UnitRepository) {
	unit := domain.Unit{DNA: testDNA(1), Price: 50, Owner: "alice"}
	require.NoError(t, repo.CreateUnit(ctx, unit))

	require.NoError(t, repo.TransferUnit(ctx, unit.DNA, "alice", "bob"))

	got, err := repo.GetUnit(ctx, unit.DNA)
	require.NoError(t, err)
	require.Equal(t, "bob", got.Owner)

	aliceOwned, err := repo.OwnedUnits(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, aliceOwned)
	bobOwned, err := repo.OwnedUnits(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, []domain.DNA{unit.DNA}, bobOwned)

	// the counter tracks creations, not ownership changes
	count, err := repo.CountUnits(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)

	t.Run("unknown unit", func(t *testing.T) {
		err := repo.TransferUnit(ctx, testDNA(0xff), "alice", "bob")
		require.Error(t, err)
		require.True(t, domain.ErrUnitNotFound.Is(err))
	})

	t.Run("same account", func(t *testing.T) {
		err := repo.TransferUnit(ctx, unit.DNA, "bob", "bob")
		require.Error(t, err)
		require.True(t, domain.ErrTransferToSelf.Is(err))

		// the owner's index is untouched
		owned, err := repo.OwnedUnits(ctx, "bob")
		require.NoError(t, err)
		require.Equal(t, []domain.DNA{unit.DNA}, owned)
	})

	t.Run("recipient at capacity", func(t *testing.T) {
		for i := byte(2); i <= 3; i++ {
			require.NoError(t, repo.CreateUnit(ctx, domain.Unit{
				DNA: testDNA(i), Price: 50, Owner: "bob",
			}))
		}
		require.NoError(t, repo.CreateUnit(ctx, domain.Unit{
			DNA: testDNA(4), Price: 50, Owner: "alice",
		}))

		err := repo.TransferUnit(ctx, testDNA(4), "alice", "bob")
		require.Error(t, err)
		require.True(t, domain.ErrOwnerCapacity.Is(err))

		// sender untouched
		got, err := repo.GetUnit(ctx, testDNA(4))
		require.NoError(t, err)
		require.Equal(t, "alice", got.Owner)
		owned, err := repo.OwnedUnits(ctx, "alice")
		require.NoError(t, err)
		require.Equal(t, []domain.DNA{testDNA(4)}, owned)
	})
}

func testSwapRemoveOrder(t *testing.T, repo domain.UnitRepository) {
	for i := byte(1); i <= 3; i++ {
		require.NoError(t, repo.CreateUnit(ctx, domain.Unit{
			DNA: testDNA(i), Price: 50, Owner: "alice",
		}))
	}

	// removing the first element moves the last one into its slot
	require.NoError(t, repo.TransferUnit(ctx, testDNA(1), "alice", "bob"))

	owned, err := repo.OwnedUnits(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []domain.DNA{testDNA(3), testDNA(2)}, owned)

	// removing the last element is a plain truncation
	require.NoError(t, repo.TransferUnit(ctx, testDNA(2), "alice", "bob"))

	owned, err = repo.OwnedUnits(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []domain.DNA{testDNA(3)}, owned)
}

func testIndexInconsistency(t *testing.T, repo domain.UnitRepository) {
	unit := domain.Unit{DNA: testDNA(1), Price: 50, Owner: "alice"}
	require.NoError(t, repo.CreateUnit(ctx, unit))

	// the unit exists but is not in bob's index
	err := repo.TransferUnit(ctx, unit.DNA, "bob", "carol")
	require.Error(t, err)
	require.True(t, domain.ErrUnitNotFound.Is(err))

	// the aborted transfer left everything in place
	got, err := repo.GetUnit(ctx, unit.DNA)
	require.NoError(t, err)
	require.Equal(t, "alice", got.Owner)
	owned, err := repo.OwnedUnits(ctx, "carol")
	require.NoError(t, err)
	require.Empty(t, owned)
}

func testSetPrice(t *testing.T, repo domain.UnitRepository) {
	unit := domain.Unit{DNA: testDNA(1), Price: 50, Owner: "alice"}
	require.NoError(t, repo.CreateUnit(ctx, unit))

	require.NoError(t, repo.SetUnitPrice(ctx, unit.DNA, 75))
	got, err := repo.GetUnit(ctx, unit.DNA)
	require.NoError(t, err)
	require.Equal(t, uint64(75), got.Price)

	require.NoError(t, repo.SetUnitPrice(ctx, unit.DNA, 0))
	got, err = repo.GetUnit(ctx, unit.DNA)
	require.NoError(t, err)
	require.False(t, got.IsForSale())

	err = repo.SetUnitPrice(ctx, testDNA(0xff), 10)
	require.Error(t, err)
	require.True(t, domain.ErrUnitNotFound.Is(err))
}

func testDNA(b byte) domain.DNA {
	var dna domain.DNA
	for i := range dna {
		dna[i] = b
	}
	return dna
}
