package database

import "github.com/positionledger/positionledger/log"

// Logger implements io.Writer interface to redirect SQLBoiler debug output to
// the database sub logger
type Logger struct{}

// Write takes input and sends to the database sub logger
func (l Logger) Write(p []byte) (n int, err error) {
	log.Debugf(log.DatabaseMgr, "SQL: %s", p)
	return len(p), nil
}

// MigrationLogger satisfies the goose logger interface
type MigrationLogger struct{}

// Print passes off to log.Infoln
func (MigrationLogger) Print(v ...any) {
	log.Infoln(log.DatabaseMgr, v...)
}

// Printf passes off to log.Infof
func (MigrationLogger) Printf(format string, v ...any) {
	log.Infof(log.DatabaseMgr, format, v...)
}

// Println passes off to log.Infoln
func (MigrationLogger) Println(v ...any) {
	log.Infoln(log.DatabaseMgr, v...)
}

// Fatal passes off to log.Errorln, the caller decides whether to exit
func (MigrationLogger) Fatal(v ...any) {
	log.Errorln(log.DatabaseMgr, v...)
}

// Fatalf passes off to log.Errorf, the caller decides whether to exit
func (MigrationLogger) Fatalf(format string, v ...any) {
	log.Errorf(log.DatabaseMgr, format, v...)
}
