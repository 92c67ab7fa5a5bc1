package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brood-labs/broodd/internal/core/domain"
)

type unitRepository struct {
	db       *sql.DB
	maxOwned uint32
	maxTotal uint32
}

func NewUnitRepository(config ...interface{}) (domain.UnitRepository, error) {
	if len(config) != 3 {
		return nil, fmt.Errorf("invalid config: expected 3 arguments, got %d", len(config))
	}
	db, ok := config[0].(*sql.DB)
	if !ok {
		return nil, fmt.Errorf(
			"cannot open unit repository: expected *sql.DB but got %T", config[0],
		)
	}
	maxOwned, ok := config[1].(uint32)
	if !ok {
		return nil, fmt.Errorf("invalid max owned bound")
	}
	maxTotal, ok := config[2].(uint32)
	if !ok {
		return nil, fmt.Errorf("invalid max total bound")
	}

	return &unitRepository{db, maxOwned, maxTotal}, nil
}

func (r *unitRepository) GetUnit(ctx context.Context, dna domain.DNA) (*domain.Unit, error) {
	row := r.db.QueryRowContext(
		ctx, "SELECT dna, price, owner, created_at FROM unit WHERE dna = ?", dna.String(),
	)
	return scanUnit(row)
}

func (r *unitRepository) ContainsUnit(ctx context.Context, dna domain.DNA) (bool, error) {
	var one int
	err := r.db.QueryRowContext(
		ctx, "SELECT 1 FROM unit WHERE dna = ?", dna.String(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *unitRepository) CountUnits(ctx context.Context) (uint32, error) {
	var count uint32
	if err := r.db.QueryRowContext(
		ctx, "SELECT count FROM registry_counter WHERE id = 0",
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to read counter: %w", err)
	}
	return count, nil
}

func (r *unitRepository) OwnedUnits(ctx context.Context, owner string) ([]domain.DNA, error) {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT dna FROM owned_unit WHERE owner = ? ORDER BY position", owner,
	)
	if err != nil {
		return nil, err
	}
	// nolint:errcheck
	defer rows.Close()

	var dnas []domain.DNA
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		var dna domain.DNA
		if err := dna.FromString(key); err != nil {
			return nil, err
		}
		dnas = append(dnas, dna)
	}
	return dnas, rows.Err()
}

func (r *unitRepository) CreateUnit(ctx context.Context, unit domain.Unit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// nolint:errcheck
	defer tx.Rollback()

	key := unit.DNA.String()

	var one int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM unit WHERE dna = ?", key).Scan(&one)
	if err == nil {
		return domain.ErrDuplicateUnit.New("dna %s already registered", key)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	var count uint32
	if err := tx.QueryRowContext(
		ctx, "SELECT count FROM registry_counter WHERE id = 0",
	).Scan(&count); err != nil {
		return fmt.Errorf("failed to read counter: %w", err)
	}
	if count >= r.maxTotal {
		return domain.ErrTotalCapacity.New("registry is full (%d units)", count)
	}

	owned, err := countOwned(ctx, tx, unit.Owner)
	if err != nil {
		return err
	}
	if owned >= r.maxOwned {
		return domain.ErrOwnerCapacity.New(
			"account %s already owns %d units", unit.Owner, owned,
		)
	}

	now := time.Now().UnixMilli()
	if _, err := tx.ExecContext(
		ctx,
		"INSERT INTO unit (dna, price, owner, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		key, unit.Price, unit.Owner, unit.CreatedAt, now,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(
		ctx,
		"INSERT INTO owned_unit (owner, dna, position) VALUES (?, ?, ?)",
		unit.Owner, key, owned,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(
		ctx, "UPDATE registry_counter SET count = count + 1 WHERE id = 0",
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *unitRepository) TransferUnit(
	ctx context.Context, dna domain.DNA, from, to string,
) error {
	if from == to {
		// the recipient's position is counted before the sender's row is
		// removed, which only holds for distinct owners
		return domain.ErrTransferToSelf.New(
			"account %s cannot transfer to itself", from,
		)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// nolint:errcheck
	defer tx.Rollback()

	key := dna.String()

	var one int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM unit WHERE dna = ?", key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrUnitNotFound.New("unit %s not found", key)
	}
	if err != nil {
		return err
	}

	owned, err := countOwned(ctx, tx, to)
	if err != nil {
		return err
	}
	if owned >= r.maxOwned {
		return domain.ErrOwnerCapacity.New("account %s already owns %d units", to, owned)
	}

	if err := swapRemoveOwned(ctx, tx, from, key); err != nil {
		return err
	}

	if _, err := tx.ExecContext(
		ctx,
		"INSERT INTO owned_unit (owner, dna, position) VALUES (?, ?, ?)",
		to, key, owned,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(
		ctx,
		"UPDATE unit SET owner = ?, updated_at = ? WHERE dna = ?",
		to, time.Now().UnixMilli(), key,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *unitRepository) SetUnitPrice(
	ctx context.Context, dna domain.DNA, price uint64,
) error {
	res, err := r.db.ExecContext(
		ctx,
		"UPDATE unit SET price = ?, updated_at = ? WHERE dna = ?",
		price, time.Now().UnixMilli(), dna.String(),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrUnitNotFound.New("unit %s not found", dna)
	}
	return nil
}

func (r *unitRepository) Close() {
	_ = r.db.Close()
}

func countOwned(ctx context.Context, tx *sql.Tx, owner string) (uint32, error) {
	var count uint32
	if err := tx.QueryRowContext(
		ctx, "SELECT COUNT(*) FROM owned_unit WHERE owner = ?", owner,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// swapRemoveOwned deletes the (owner, dna) row and moves the row at the
// highest position into the vacated slot, keeping positions dense without
// preserving order.
func swapRemoveOwned(ctx context.Context, tx *sql.Tx, owner, dna string) error {
	var pos uint32
	err := tx.QueryRowContext(
		ctx,
		"SELECT position FROM owned_unit WHERE owner = ? AND dna = ?", owner, dna,
	).Scan(&pos)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrUnitNotFound.New(
			"unit %s missing from index of account %s", dna, owner,
		)
	}
	if err != nil {
		return err
	}

	var last uint32
	if err := tx.QueryRowContext(
		ctx,
		"SELECT MAX(position) FROM owned_unit WHERE owner = ?", owner,
	).Scan(&last); err != nil {
		return err
	}

	if _, err := tx.ExecContext(
		ctx, "DELETE FROM owned_unit WHERE owner = ? AND dna = ?", owner, dna,
	); err != nil {
		return err
	}

	if last != pos {
		if _, err := tx.ExecContext(
			ctx,
			"UPDATE owned_unit SET position = ? WHERE owner = ? AND position = ?",
			pos, owner, last,
		); err != nil {
			return err
		}
	}
	return nil
}

func scanUnit(row *sql.Row) (*domain.Unit, error) {
	var (
		key       string
		price     uint64
		owner     string
		createdAt int64
	)
	err := row.Scan(&key, &price, &owner, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var dna domain.DNA
	if err := dna.FromString(key); err != nil {
		return nil, err
	}
	return &domain.Unit{
		DNA:       dna,
		Price:     price,
		Owner:     owner,
		CreatedAt: createdAt,
	}, nil
}
