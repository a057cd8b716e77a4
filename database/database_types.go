package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"sync"

	"github.com/positionledger/positionledger/database/drivers"
)

// Instance holds all information for a database instance
type Instance struct {
	SQL       *sql.DB
	DataPath  string
	config    *Config
	connected bool
	m         sync.RWMutex
}

// Config holds all database configurable options including enable/disabled & DSN settings
type Config struct {
	Enabled bool   `json:"enabled"`
	Verbose bool   `json:"verbose"`
	Driver  string `json:"driver"`
	drivers.ConnectionDetails
}

var (
	// DB Global Database Connection
	DB = &Instance{}
	// MigrationDir which folder to look in for current migrations
	MigrationDir = filepath.Join("..", "..", "database", "migrations")
	// ErrNoDatabaseProvided error to display when no database is provided
	ErrNoDatabaseProvided = errors.New("no database provided")
	// ErrDatabaseSupportDisabled error to display when database support is disabled
	ErrDatabaseSupportDisabled = errors.New("database support disabled")
	// ErrDatabaseNotConnected is returned when a query is attempted without a connection
	ErrDatabaseNotConnected = errors.New("database is not connected")
	// SupportedDrivers slice of supported database driver types
	SupportedDrivers = []string{DBSQLite, DBSQLite3, DBPostgreSQL}
	// DefaultSQLiteDatabase is the default sqlite3 database name to use
	DefaultSQLiteDatabase = "ledger.db"

	errNilInstance = errors.New("database instance is nil")
	errNilConfig   = errors.New("received nil config")
	errNilSQL      = errors.New("database SQL connection is nil")
)

const (
	// DBSQLite const string for sqlite across code base
	DBSQLite = "sqlite"
	// DBSQLite3 const string for sqlite3 across code base
	DBSQLite3 = "sqlite3"
	// DBPostgreSQL const string for PostgreSQL across code base
	DBPostgreSQL = "postgres"
	// DBInvalidDriver const string for invalid driver
	DBInvalidDriver = "invalid driver"
)
