package log

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Info takes a pointer subLogger struct and string and writes the log line
func Info(sl *SubLogger, data string) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(levelInfo, func() string { return data })
}

// Infoln takes a pointer subLogger struct and interface and writes the log line
func Infoln(sl *SubLogger, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(levelInfo, func() string { return fmt.Sprint(v...) }, v...)
}

// Infof takes a pointer subLogger struct, string and interface formats and
// writes the log line
func Infof(sl *SubLogger, data string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(levelInfo, func() string { return fmt.Sprintf(data, v...) }, v...)
}

// Debug takes a pointer subLogger struct and string and writes the log line
func Debug(sl *SubLogger, data string) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(levelDebug, func() string { return data })
}

// Debugln takes a pointer subLogger struct and interface and writes the log line
func Debugln(sl *SubLogger, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(levelDebug, func() string { return fmt.Sprint(v...) }, v...)
}

// Debugf takes a pointer subLogger struct, string and interface formats and
// writes the log line
func Debugf(sl *SubLogger, data string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(levelDebug, func() string { return fmt.Sprintf(data, v...) }, v...)
}

// Warn takes a pointer subLogger struct and string and writes the log line
func Warn(sl *SubLogger, data string) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(levelWarn, func() string { return data })
}

// Warnln takes a pointer subLogger struct and interface and writes the log line
func Warnln(sl *SubLogger, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(levelWarn, func() string { return fmt.Sprint(v...) }, v...)
}

// Warnf takes a pointer subLogger struct, string and interface formats and
// writes the log line
func Warnf(sl *SubLogger, data string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(levelWarn, func() string { return fmt.Sprintf(data, v...) }, v...)
}

// Error takes a pointer subLogger struct and string and writes the log line
func Error(sl *SubLogger, data string) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(levelError, func() string { return data })
}

// Errorln takes a pointer subLogger struct and interface and writes the log line
func Errorln(sl *SubLogger, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(levelError, func() string { return fmt.Sprint(v...) }, v...)
}

// Errorf takes a pointer subLogger struct, string and interface formats and
// writes the log line
func Errorf(sl *SubLogger, data string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.getFields().stage(levelError, func() string { return fmt.Sprintf(data, v...) }, v...)
}

type level uint8

const (
	levelInfo level = iota
	levelDebug
	levelWarn
	levelError
)

// header returns the configured header when the level is enabled
func (l *logFields) header(lvl level) (string, bool) {
	switch lvl {
	case levelInfo:
		return l.logger.InfoHeader, l.info
	case levelDebug:
		return l.logger.DebugHeader, l.debug
	case levelWarn:
		return l.logger.WarnHeader, l.warn
	case levelError:
		return l.logger.ErrorHeader, l.error
	}
	return "", false
}

// stage formats and writes a log event if its level is enabled
func (l *logFields) stage(lvl level, data func() string, args ...any) {
	if l == nil {
		return
	}
	header, ok := l.header(lvl)
	if !ok {
		return
	}
	if customLogHook != nil && customLogHook(header, l.name, args...) {
		return
	}
	var b strings.Builder
	b.WriteString(header)
	if l.logger.TimestampFormat != "" {
		b.WriteString(time.Now().Format(l.logger.TimestampFormat))
	}
	if l.logger.ShowLogSystemName {
		b.WriteString(l.logger.Spacer)
		b.WriteString(l.name)
	}
	b.WriteString(l.logger.Spacer)
	b.WriteString(data())
	if !strings.HasSuffix(b.String(), "\n") {
		b.WriteByte('\n')
	}
	if _, err := l.output.Write([]byte(b.String())); err != nil {
		displayError(err)
	}
}

func displayError(err error) {
	if err != nil {
		log.Printf("Logger write error: %v\n", err)
	}
}
