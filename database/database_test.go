package database

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thrasher-corp/sqlboiler/boil"
)

func TestSetConfig(t *testing.T) {
	var nilInstance *Instance
	assert.ErrorIs(t, nilInstance.SetConfig(&Config{}), errNilInstance)

	i := &Instance{}
	assert.ErrorIs(t, i.SetConfig(nil), errNilConfig)

	require.NoError(t, i.SetConfig(&Config{Verbose: true, Driver: DBSQLite3}))
	assert.True(t, boil.DebugMode)
	assert.IsType(t, Logger{}, boil.DebugWriter)

	require.NoError(t, i.SetConfig(&Config{Driver: DBSQLite3}))
	assert.False(t, boil.DebugMode)

	cfg := i.GetConfig()
	cfg.Driver = "mutated"
	assert.Equal(t, DBSQLite3, i.GetConfig().Driver, "GetConfig must return a copy")
}

func TestDialect(t *testing.T) {
	for driver, expected := range map[string]string{
		"postgres":   DBPostgreSQL,
		"postgresql": DBPostgreSQL,
		"sqlite":     DBSQLite3,
		"SQLite3":    DBSQLite3,
		"mysql":      DBInvalidDriver,
	} {
		i := &Instance{}
		require.NoError(t, i.SetConfig(&Config{Driver: driver}))
		assert.Equalf(t, expected, i.Dialect(), "driver %s", driver)
	}
	assert.Equal(t, DBInvalidDriver, (&Instance{}).Dialect())
}

func TestConnectionState(t *testing.T) {
	i := &Instance{}
	assert.False(t, i.IsConnected())
	assert.ErrorIs(t, i.Ping(), errNilSQL)
	_, err := i.GetSQL()
	assert.ErrorIs(t, err, ErrDatabaseNotConnected)
	assert.ErrorIs(t, i.CloseConnection(), errNilSQL)
	assert.ErrorIs(t, i.SetSQLiteConnection(nil), errNilSQL)

	var nilInstance *Instance
	assert.False(t, nilInstance.IsConnected())
	assert.ErrorIs(t, nilInstance.Ping(), errNilInstance)

	i.SetConnected(true)
	_, err = i.GetSQL()
	assert.ErrorIs(t, err, errNilSQL)
	con, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	require.NoError(t, i.SetSQLiteConnection(con))
	require.NoError(t, i.Ping())
	db, err := i.GetSQL()
	require.NoError(t, err)
	assert.NotNil(t, db)
	require.NoError(t, i.CloseConnection())
	assert.False(t, i.IsConnected())
}

func TestIsSupportedDriver(t *testing.T) {
	t.Parallel()
	assert.True(t, IsSupportedDriver("SQLITE3"))
	assert.True(t, IsSupportedDriver(DBPostgreSQL))
	assert.False(t, IsSupportedDriver("mysql"))
}

func TestLoggerWrite(t *testing.T) {
	t.Parallel()
	n, err := Logger{}.Write([]byte("SELECT 1"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
}
