package log

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	errEmptyLoggerName        = errors.New("cannot have empty logger name")
	errSubLoggerAlreadyExists = errors.New("sub logger already exists")
)

// NewSubLogger allows for a new sub logger to be registered.
func NewSubLogger(name string) (*SubLogger, error) {
	if name == "" {
		return nil, errEmptyLoggerName
	}
	name = strings.ToUpper(name)
	mu.Lock()
	defer mu.Unlock()
	if _, ok := subLoggers[name]; ok {
		return nil, fmt.Errorf("'%v' %w", name, errSubLoggerAlreadyExists)
	}
	return registerNewSubLogger(name), nil
}

// SetOutput overrides the default output with a new writer
func (sl *SubLogger) SetOutput(o io.Writer) {
	sl.mtx.Lock()
	sl.output = o
	sl.mtx.Unlock()
}

// SetLevels overrides the default levels with new levels
func (sl *SubLogger) SetLevels(newLevels Levels) {
	sl.mtx.Lock()
	sl.levels = newLevels
	sl.mtx.Unlock()
}

// GetLevels returns current functional log levels
func (sl *SubLogger) GetLevels() Levels {
	sl.mtx.RLock()
	defer sl.mtx.RUnlock()
	return sl.levels
}

// Name returns the registered name of the sub logger
func (sl *SubLogger) Name() string {
	if sl == nil {
		return ""
	}
	return sl.name
}

func (sl *SubLogger) getFields() *logFields {
	if sl == nil {
		return nil
	}
	sl.mtx.RLock()
	defer sl.mtx.RUnlock()
	if sl.output == nil {
		return nil
	}
	return &logFields{
		info:   sl.levels.Info,
		warn:   sl.levels.Warn,
		debug:  sl.levels.Debug,
		error:  sl.levels.Error,
		name:   sl.name,
		output: sl.output,
		logger: logger,
	}
}
