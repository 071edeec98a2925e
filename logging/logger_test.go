package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupDefaults(t *testing.T) {
	reset()
	defer reset()
	os.Unsetenv("LOG_LEVEL")

	var out bytes.Buffer
	l, err := Setup(Options{Console: &out})
	require.NoError(t, err)

	assert.Equal(t, logrus.InfoLevel, l.GetLevel(), "Logger level should default to 'info'")
	assert.Contains(t, out.String(), "Logger initialized")

	formatter, ok := l.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok, "Logger formatter should be of type TextFormatter")
	assert.True(t, formatter.FullTimestamp, "Logger formatter should have FullTimestamp enabled")
}

func TestSetupIsIdempotent(t *testing.T) {
	reset()
	defer reset()

	var out bytes.Buffer
	first, err := Setup(Options{Console: &out})
	require.NoError(t, err)

	second, err := Setup(Options{Level: "debug", Console: &out})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("Logger initialized")), "banner should be written once")
}

func TestSetupInvalidLevel(t *testing.T) {
	reset()
	defer reset()
	os.Unsetenv("LOG_LEVEL")

	_, err := Setup(Options{Level: "invalidlevel"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid logrus Level")

	_, err = Setup(Options{File: filepath.Join(t.TempDir(), "x.log"), FileLevel: "nope"})
	assert.Error(t, err)
}

func TestLogLevelEnvOverride(t *testing.T) {
	reset()
	defer reset()
	os.Setenv("LOG_LEVEL", "warn")
	defer os.Unsetenv("LOG_LEVEL")

	var out bytes.Buffer
	l, err := Setup(Options{Level: "debug", Console: &out})
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
}

func TestPerTargetLevels(t *testing.T) {
	reset()
	defer reset()
	os.Unsetenv("LOG_LEVEL")

	logFile := filepath.Join(t.TempDir(), "debug.log")
	var out bytes.Buffer
	l, err := Setup(Options{Level: "info", File: logFile, FileLevel: "debug", Console: &out})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	l.Debug("only in the file")
	l.Info("everywhere")

	assert.NotContains(t, out.String(), "only in the file")
	assert.Contains(t, out.String(), "everywhere")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "only in the file")
	assert.Contains(t, string(data), "everywhere")
}

func TestLevelsUpTo(t *testing.T) {
	levels := levelsUpTo(logrus.WarnLevel)
	assert.Equal(t, []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}, levels)
}
