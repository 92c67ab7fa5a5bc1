package db

import (
	"embed"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/brood-labs/broodd/internal/core/domain"
	"github.com/brood-labs/broodd/internal/core/ports"
	badgerdb "github.com/brood-labs/broodd/internal/infrastructure/db/badger"
	sqlitedb "github.com/brood-labs/broodd/internal/infrastructure/db/sqlite"
	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sqlite/migration/*
var migrations embed.FS

var unitStoreTypes = map[string]func(...interface{}) (domain.UnitRepository, error){
	"badger": badgerdb.NewUnitRepository,
	"sqlite": sqlitedb.NewUnitRepository,
}

const sqliteDbFile = "sqlite.db"

type ServiceConfig struct {
	DataStoreType string

	// MaxOwned and MaxTotal are the capacity bounds enforced inside every
	// store transaction.
	MaxOwned uint32
	MaxTotal uint32

	DataStoreConfig []interface{}
}

type service struct {
	unitStore domain.UnitRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	unitStoreFactory, ok := unitStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("unit store type not supported")
	}
	if config.MaxOwned == 0 || config.MaxTotal == 0 {
		return nil, fmt.Errorf("capacity bounds must be greater than 0")
	}

	var unitStore domain.UnitRepository
	var err error

	switch config.DataStoreType {
	case "badger":
		storeConfig := append(
			config.DataStoreConfig, config.MaxOwned, config.MaxTotal,
		)
		unitStore, err = unitStoreFactory(storeConfig...)
		if err != nil {
			return nil, fmt.Errorf("failed to open unit store: %s", err)
		}

	case "sqlite":
		if len(config.DataStoreConfig) != 1 {
			return nil, fmt.Errorf("invalid data store config")
		}
		baseDir, ok := config.DataStoreConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}

		dbFile := filepath.Join(baseDir, sqliteDbFile)
		db, err := sqlitedb.OpenDb(dbFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %s", err)
		}

		driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to init driver: %s", err)
		}

		source, err := iofs.New(migrations, "sqlite/migration")
		if err != nil {
			return nil, fmt.Errorf("failed to embed migrations: %s", err)
		}

		m, err := migrate.NewWithInstance("iofs", source, "brooddb", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migration instance: %s", err)
		}

		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, fmt.Errorf("failed to run migrations: %s", err)
		}

		unitStore, err = unitStoreFactory(db, config.MaxOwned, config.MaxTotal)
		if err != nil {
			return nil, fmt.Errorf("failed to open unit store: %s", err)
		}

	default:
		return nil, fmt.Errorf("unknown data store db type")
	}

	return &service{unitStore}, nil
}

func (s *service) Units() domain.UnitRepository {
	return s.unitStore
}

func (s *service) Close() {
	s.unitStore.Close()
}
