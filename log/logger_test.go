package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLevel(t *testing.T) {
	assert.Equal(t, Levels{Info: true, Debug: true, Warn: true, Error: true}, splitLevel("INFO|DEBUG|WARN|ERROR"))
	assert.Equal(t, Levels{Warn: true, Error: true}, splitLevel("warn| error"))
	assert.Equal(t, Levels{}, splitLevel(""))
}

func TestNewSubLogger(t *testing.T) {
	_, err := NewSubLogger("")
	assert.ErrorIs(t, err, errEmptyLoggerName)

	sl, err := NewSubLogger("newSubLoggerTest")
	require.NoError(t, err)
	assert.Equal(t, "NEWSUBLOGGERTEST", sl.Name())

	_, err = NewSubLogger("NEWSUBLOGGERTEST")
	assert.ErrorIs(t, err, errSubLoggerAlreadyExists)

	var nilLogger *SubLogger
	assert.Empty(t, nilLogger.Name())
	Infof(nilLogger, "must not panic %v", 1)
}

func newTestLogger(t *testing.T, name string) (*SubLogger, *bytes.Buffer) {
	t.Helper()
	sl, err := NewSubLogger(name)
	require.NoError(t, err)
	buf := &bytes.Buffer{}
	sl.SetOutput(buf)
	return sl, buf
}

func TestLevels(t *testing.T) {
	sl, buf := newTestLogger(t, "levels")
	sl.SetLevels(Levels{Info: true, Error: true})

	Infof(sl, "position %v opened", "BGI")
	assert.Contains(t, buf.String(), "[INFO]")
	assert.Contains(t, buf.String(), "position BGI opened")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))

	buf.Reset()
	Debugf(sl, "hidden")
	Warn(sl, "hidden")
	Warnln(sl, "hidden")
	assert.Empty(t, buf.String())

	Errorln(sl, "replay", "failed")
	assert.Contains(t, buf.String(), "[ERROR]")
	assert.Contains(t, buf.String(), "replayfailed")

	assert.Equal(t, Levels{Info: true, Error: true}, sl.GetLevels())
}

func TestCustomLogHook(t *testing.T) {
	sl, buf := newTestLogger(t, "hooked")
	var received []string
	SetCustomLogHook(func(header, name string, _ ...any) bool {
		received = append(received, header+name)
		return true
	})
	Info(sl, "bypassed")
	SetCustomLogHook(nil)
	assert.Empty(t, buf.String())
	assert.Equal(t, []string{"[INFO]HOOKED"}, received)

	Info(sl, "written")
	assert.Contains(t, buf.String(), "written")
}

func TestMultiWriter(t *testing.T) {
	a, b := &bytes.Buffer{}, &bytes.Buffer{}
	mw, err := MultiWriter(a, b)
	require.NoError(t, err)
	assert.ErrorIs(t, mw.Add(a), errWriterAlreadyLoaded)

	n, err := mw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", a.String())
	assert.Equal(t, "hello", b.String())

	require.NoError(t, mw.Remove(b))
	assert.ErrorIs(t, mw.Remove(b), errWriterNotFound)
	_, err = mw.Write([]byte("!"))
	require.NoError(t, err)
	assert.Equal(t, "hello!", a.String())
	assert.Equal(t, "hello", b.String())

	_, err = MultiWriter(a, a)
	assert.ErrorIs(t, err, errWriterAlreadyLoaded)
}

func TestGetWriters(t *testing.T) {
	_, err := getWriters(nil)
	assert.ErrorIs(t, err, errSubloggerConfigIsNil)

	_, err = getWriters(&SubLoggerConfig{Output: "console|carrier pigeon"})
	assert.ErrorIs(t, err, errUnhandledOutputWriter)

	w, err := getWriters(&SubLoggerConfig{Output: "stdout|stderr"})
	require.NoError(t, err)
	assert.Len(t, w.(*multiWriter).writers, 2)
}

func TestSetupSubLoggers(t *testing.T) {
	sl, _ := newTestLogger(t, "configured")
	err := SetupSubLoggers([]SubLoggerConfig{{Name: "configured", Level: "WARN", Output: "stderr"}})
	require.NoError(t, err)
	assert.Equal(t, Levels{Warn: true}, sl.GetLevels())

	err = SetupSubLoggers([]SubLoggerConfig{{Name: "missing", Level: "WARN", Output: "stderr"}})
	assert.ErrorIs(t, err, errSubLoggerNotFound)
}

func TestSetupGlobalLogger(t *testing.T) {
	assert.ErrorIs(t, SetGlobalLogConfig(nil), errConfigNil)

	disabled := GenDefaultSettings()
	disabled.Enabled = boolPtr(false)
	require.NoError(t, SetGlobalLogConfig(&disabled))
	require.NoError(t, SetupGlobalLogger())
	assert.Equal(t, Levels{}, PositionMgr.GetLevels())

	def := GenDefaultSettings()
	def.Level = "ERROR"
	require.NoError(t, SetGlobalLogConfig(&def))
	require.NoError(t, SetupGlobalLogger())
	assert.Equal(t, Levels{Error: true}, PositionMgr.GetLevels())
	assert.Equal(t, "[ERROR]", logger.ErrorHeader)

	def = GenDefaultSettings()
	require.NoError(t, SetGlobalLogConfig(&def))
	require.NoError(t, SetupGlobalLogger())
}

func TestRotate(t *testing.T) {
	dir := t.TempDir()
	SetLogPath(dir)
	defer SetLogPath("")
	assert.Equal(t, dir, GetLogPath())

	r := &Rotate{FileName: "ledger.log", Rotate: boolPtr(true), MaxSize: 1}
	_, err := r.Write(make([]byte, megabyte+1))
	assert.Error(t, err, "a single write larger than the file limit must fail")

	n, err := r.Write([]byte("first\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	_, err = r.Write(make([]byte, megabyte-1))
	require.NoError(t, err, "exceeding the limit must rotate rather than fail")
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	files, err := filepath.Glob(filepath.Join(dir, "ledger.log*"))
	require.NoError(t, err)
	assert.Len(t, files, 2)

	info, err := os.Stat(filepath.Join(dir, "ledger.log"))
	require.NoError(t, err)
	assert.Equal(t, int64(megabyte-1), info.Size())
}
