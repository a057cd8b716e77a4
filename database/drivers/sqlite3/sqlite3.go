package sqlite

import (
	"database/sql"
	"path/filepath"

	// import sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"github.com/positionledger/positionledger/database"
)

// Connect opens a connection to sqlite database and returns a pointer to database.DB
func Connect(db string) (*database.Instance, error) {
	if db == "" {
		return nil, database.ErrNoDatabaseProvided
	}
	location := db
	if db != ":memory:" && !filepath.IsAbs(db) {
		location = filepath.Join(database.DB.DataPath, db)
	}

	dbConn, err := sql.Open(database.DBSQLite3, location)
	if err != nil {
		return nil, err
	}
	if err = database.DB.SetSQLiteConnection(dbConn); err != nil {
		return nil, err
	}
	database.DB.SetConnected(true)
	return database.DB, nil
}
