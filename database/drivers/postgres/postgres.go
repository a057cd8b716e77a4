package postgres

import (
	"database/sql"
	"fmt"

	// import lib/pq postgres driver
	_ "github.com/lib/pq"
	"github.com/positionledger/positionledger/database"
)

// Connect opens a connection to Postgres database and returns a pointer to database.DB
func Connect(cfg *database.Config) (*database.Instance, error) {
	if cfg == nil {
		return nil, database.ErrNoDatabaseProvided
	}
	if cfg.Database == "" {
		return nil, database.ErrNoDatabaseProvided
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}

	dbConn, err := sql.Open(database.DBPostgreSQL, DSN(cfg))
	if err != nil {
		return nil, err
	}
	if err = database.DB.SetPostgresConnection(dbConn); err != nil {
		return nil, fmt.Errorf("%w %s:%d", err, cfg.Host, cfg.Port)
	}
	database.DB.SetConnected(true)
	return database.DB, nil
}

// DSN builds a lib/pq connection string from the config
func DSN(cfg *database.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		cfg.Password,
		cfg.Database,
		cfg.SSLMode)
}
