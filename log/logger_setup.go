package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	errSubloggerConfigIsNil  = errors.New("sublogger config is nil")
	errUnhandledOutputWriter = errors.New("unhandled output writer")
	errSubLoggerNotFound     = errors.New("sub logger not found")
	errConfigNil             = errors.New("log config is nil")
)

func getWriters(s *SubLoggerConfig) (io.Writer, error) {
	if s == nil {
		return nil, errSubloggerConfigIsNil
	}
	mw, err := MultiWriter()
	if err != nil {
		return nil, err
	}
	outputWriters := strings.Split(s.Output, "|")
	for x := range outputWriters {
		var writer io.Writer
		switch strings.ToLower(strings.TrimSpace(outputWriters[x])) {
		case "stdout", "console":
			writer = os.Stdout
		case "stderr":
			writer = os.Stderr
		case "file":
			if !fileLoggingConfiguredCorrectly {
				continue
			}
			writer = globalLogFile
		default:
			return nil, fmt.Errorf("%w: %s", errUnhandledOutputWriter, outputWriters[x])
		}
		if err = mw.Add(writer); err != nil {
			return nil, err
		}
	}
	return mw, nil
}

// GenDefaultSettings return struct with known sane/working logger settings
func GenDefaultSettings() Config {
	return Config{
		Enabled: boolPtr(true),
		SubLoggerConfig: SubLoggerConfig{
			Level:  "INFO|DEBUG|WARN|ERROR",
			Output: "console",
		},
		LoggerFileConfig: &FileConfig{
			FileName: "log.txt",
			Rotate:   boolPtr(false),
			MaxSize:  DefaultMaxFileSize,
		},
		AdvancedSettings: AdvancedSettings{
			ShowLogSystemName: boolPtr(true),
			Spacer:            spacer,
			TimeStampFormat:   timestampFormat,
			Headers: Headers{
				Info:  "[INFO]",
				Warn:  "[WARN]",
				Debug: "[DEBUG]",
				Error: "[ERROR]",
			},
		},
	}
}

// SetGlobalLogConfig sets the global config with the supplied config
func SetGlobalLogConfig(incoming *Config) error {
	if incoming == nil {
		return errConfigNil
	}
	mu.Lock()
	globalLogConfig = incoming
	mu.Unlock()
	return nil
}

// SetLogPath sets the directory log files are written to
func SetLogPath(newLogPath string) {
	mu.Lock()
	logPath = newLogPath
	mu.Unlock()
}

// GetLogPath returns the path log files are written to
func GetLogPath() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}

// SetFileLoggingState flags whether file output may be used
func SetFileLoggingState(correctlyConfigured bool) {
	mu.Lock()
	fileLoggingConfiguredCorrectly = correctlyConfigured
	mu.Unlock()
}

func configureSubLogger(subLogger, levels string, output io.Writer) error {
	logPtr, found := subLoggers[subLogger]
	if !found {
		return fmt.Errorf("%w %v", errSubLoggerNotFound, subLogger)
	}
	logPtr.SetOutput(output)
	logPtr.SetLevels(splitLevel(levels))
	return nil
}

// SetupSubLoggers configure all sub loggers with provided configuration values
func SetupSubLoggers(s []SubLoggerConfig) error {
	mu.Lock()
	defer mu.Unlock()
	for x := range s {
		output, err := getWriters(&s[x])
		if err != nil {
			return err
		}
		if err = configureSubLogger(strings.ToUpper(s[x].Name), s[x].Level, output); err != nil {
			return err
		}
	}
	return nil
}

// SetupGlobalLogger setup the global loggers with the default global config values
func SetupGlobalLogger() error {
	mu.Lock()
	defer mu.Unlock()
	if fileLoggingConfiguredCorrectly && globalLogConfig.LoggerFileConfig != nil {
		globalLogFile = &Rotate{
			FileName: globalLogConfig.LoggerFileConfig.FileName,
			MaxSize:  globalLogConfig.LoggerFileConfig.MaxSize,
			Rotate:   globalLogConfig.LoggerFileConfig.Rotate,
		}
	}

	enabled := globalLogConfig.Enabled == nil || *globalLogConfig.Enabled
	for _, sl := range subLoggers {
		if !enabled {
			sl.SetOutput(io.Discard)
			sl.SetLevels(Levels{})
			continue
		}
		output, err := getWriters(&globalLogConfig.SubLoggerConfig)
		if err != nil {
			return err
		}
		sl.SetOutput(output)
		sl.SetLevels(splitLevel(globalLogConfig.Level))
	}
	logger = newLogger(globalLogConfig)
	return nil
}

// CloseLogger closes the log file if one is in use
func CloseLogger() error {
	mu.Lock()
	defer mu.Unlock()
	return globalLogFile.Close()
}

func newLogger(c *Config) Logger {
	return Logger{
		TimestampFormat:   c.AdvancedSettings.TimeStampFormat,
		Spacer:            c.AdvancedSettings.Spacer,
		ShowLogSystemName: c.AdvancedSettings.ShowLogSystemName != nil && *c.AdvancedSettings.ShowLogSystemName,
		InfoHeader:        c.AdvancedSettings.Headers.Info,
		ErrorHeader:       c.AdvancedSettings.Headers.Error,
		DebugHeader:       c.AdvancedSettings.Headers.Debug,
		WarnHeader:        c.AdvancedSettings.Headers.Warn,
	}
}

func splitLevel(level string) (l Levels) {
	enabledLevels := strings.Split(level, "|")
	for x := range enabledLevels {
		switch strings.ToUpper(strings.TrimSpace(enabledLevels[x])) {
		case "DEBUG":
			l.Debug = true
		case "INFO":
			l.Info = true
		case "WARN":
			l.Warn = true
		case "ERROR":
			l.Error = true
		}
	}
	return
}

func registerNewSubLogger(subLogger string) *SubLogger {
	temp := &SubLogger{
		name:   strings.ToUpper(subLogger),
		output: os.Stdout,
		levels: splitLevel("INFO|WARN|DEBUG|ERROR"),
	}
	subLoggers[temp.name] = temp
	return temp
}

func boolPtr(b bool) *bool {
	return &b
}

// register all loggers at package init()
func init() {
	def := GenDefaultSettings()
	logger = newLogger(&def)

	Global = registerNewSubLogger("LOG")
	ConfigMgr = registerNewSubLogger("CONFIG")
	DatabaseMgr = registerNewSubLogger("DATABASE")
	LedgerMgr = registerNewSubLogger("LEDGER")
	PositionMgr = registerNewSubLogger("POSITION")
	PricingMgr = registerNewSubLogger("PRICING")
	RESTSys = registerNewSubLogger("REST")
}
