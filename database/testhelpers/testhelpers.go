package testhelpers

import (
	"path/filepath"
	"testing"

	"github.com/positionledger/positionledger/database"
	"github.com/positionledger/positionledger/database/drivers"
	sqlite "github.com/positionledger/positionledger/database/drivers/sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/goose"
)

// MigrationDir is relative to packages under database/repository
var MigrationDir = filepath.Join("..", "..", "migrations")

// ConnectSQLite opens a migrated sqlite database in a temporary directory on
// the global database instance. The connection is closed when the test ends
func ConnectSQLite(t *testing.T) *database.Instance {
	t.Helper()
	database.DB.DataPath = t.TempDir()
	require.NoError(t, database.DB.SetConfig(&database.Config{
		Enabled:           true,
		Driver:            database.DBSQLite3,
		ConnectionDetails: drivers.ConnectionDetails{Database: "ledger-test.db"},
	}))
	db, err := sqlite.Connect("ledger-test.db")
	require.NoError(t, err, "sqlite.Connect must not error")
	require.NoError(t, goose.Run("up", db.SQL, database.DBSQLite3, MigrationDir, ""), "goose up must not error")
	t.Cleanup(func() {
		assert.NoError(t, db.CloseConnection())
	})
	return db
}
