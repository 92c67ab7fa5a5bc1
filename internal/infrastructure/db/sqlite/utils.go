package sqlitedb

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

func OpenDb(dbFile string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dbFile)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; serialize access at the pool level
	db.SetMaxOpenConns(1)
	return db, nil
}
