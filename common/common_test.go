package common

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartEndTimeCheck(t *testing.T) {
	t.Parallel()
	past := time.Now().Add(-time.Hour)
	assert.ErrorIs(t, StartEndTimeCheck(time.Time{}, past), ErrDateUnset)
	assert.ErrorIs(t, StartEndTimeCheck(past, time.Time{}), ErrDateUnset)
	assert.ErrorIs(t, StartEndTimeCheck(past, past), ErrStartEqualsEnd)
	assert.ErrorIs(t, StartEndTimeCheck(past, past.Add(-time.Minute)), ErrStartAfterEnd)
	assert.ErrorIs(t, StartEndTimeCheck(time.Now().Add(time.Hour), time.Now().Add(2*time.Hour)), ErrStartAfterTimeNow)
	assert.NoError(t, StartEndTimeCheck(past, past.Add(time.Minute)))
}

func TestGetDefaultDataDir(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "PositionLedger", filepath.Base(GetDefaultDataDir("windows")))
	assert.Equal(t, ".positionledger", filepath.Base(GetDefaultDataDir("linux")))
}

func TestCreateDir(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, CreateDir(dir))
	require.NoError(t, CreateDir(dir), "CreateDir must not error on an existing directory")
	assert.DirExists(t, dir)
}
