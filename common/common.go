package common

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Public common errors
var (
	ErrNilPointer        = errors.New("nil pointer")
	ErrDateUnset         = errors.New("date unset")
	ErrStartAfterEnd     = errors.New("start date after end date")
	ErrStartEqualsEnd    = errors.New("start date equals end date")
	ErrStartAfterTimeNow = errors.New("start date is after current time")
)

// StartEndTimeCheck provides some basic checks which occur
// frequently in the codebase
func StartEndTimeCheck(start, end time.Time) error {
	if start.IsZero() || start.Equal(time.Unix(0, 0)) {
		return fmt.Errorf("start %w", ErrDateUnset)
	}
	if end.IsZero() || end.Equal(time.Unix(0, 0)) {
		return fmt.Errorf("end %w", ErrDateUnset)
	}
	if start.After(time.Now()) {
		return ErrStartAfterTimeNow
	}
	if start.After(end) {
		return ErrStartAfterEnd
	}
	if start.Equal(end) {
		return ErrStartEqualsEnd
	}
	return nil
}

// GetDefaultDataDir returns the default data directory
// Windows - C:\Users\%USER%\AppData\Roaming\PositionLedger
// Linux/Unix or OSX - $HOME/.positionledger
func GetDefaultDataDir(env string) string {
	if env == "windows" {
		return filepath.Join(os.Getenv("APPDATA"), "PositionLedger")
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".positionledger"
	}
	return filepath.Join(dir, ".positionledger")
}

// CreateDir creates a directory based on the supplied parameter
func CreateDir(dir string) error {
	_, err := os.Stat(dir)
	if !os.IsNotExist(err) {
		return nil
	}
	return os.MkdirAll(dir, 0o770)
}
