package log

import (
	"io"
	"sync"
)

// Global vars related to the logger package
var (
	subLoggers = map[string]*SubLogger{}

	Global      *SubLogger
	ConfigMgr   *SubLogger
	DatabaseMgr *SubLogger
	LedgerMgr   *SubLogger
	PositionMgr *SubLogger
	PricingMgr  *SubLogger
	RESTSys     *SubLogger
)

// SubLogger is a named log stream with its own levels and outputs
type SubLogger struct {
	name   string
	levels Levels
	output io.Writer
	mtx    sync.RWMutex
}

// logFields is used to store data in a non-global and thread-safe manner
// so logs cannot be modified mid-log causing a data-race issue
type logFields struct {
	info   bool
	warn   bool
	debug  bool
	error  bool
	name   string
	output io.Writer
	logger Logger
}
