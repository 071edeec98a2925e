package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options describes the log targets. An empty File disables the file target.
type Options struct {
	Level      string
	File       string
	FileLevel  string
	MaxSizeMB  int
	MaxBackups int

	// Console defaults to os.Stdout.
	Console io.Writer
}

var (
	mu     sync.Mutex
	logger *logrus.Logger
)

// Setup builds the process logger on first call and returns the same logger
// on every later call, whatever the options.
func Setup(opts Options) (*logrus.Logger, error) {
	mu.Lock()
	defer mu.Unlock()

	if logger != nil {
		return logger, nil
	}

	l, err := build(opts)
	if err != nil {
		return nil, err
	}
	logger = l

	logger.Info("===================================== Logger initialized =====================================")
	return logger, nil
}

func build(opts Options) (*logrus.Logger, error) {
	levelStr := opts.Level
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		levelStr = env
	}
	if levelStr == "" {
		levelStr = "info"
	}
	consoleLevel, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.AddHook(&writer.Hook{Writer: console, LogLevels: levelsUpTo(consoleLevel)})

	maxLevel := consoleLevel
	if opts.File != "" {
		fileLevelStr := opts.FileLevel
		if fileLevelStr == "" {
			fileLevelStr = "debug"
		}
		fileLevel, err := logrus.ParseLevel(fileLevelStr)
		if err != nil {
			return nil, fmt.Errorf("invalid file log level %q: %w", fileLevelStr, err)
		}
		l.AddHook(&writer.Hook{
			Writer: &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    opts.MaxSizeMB,
				MaxBackups: opts.MaxBackups,
			},
			LogLevels: levelsUpTo(fileLevel),
		})
		if fileLevel > maxLevel {
			maxLevel = fileLevel
		}
	}

	// Entries below every target's threshold are dropped before formatting.
	l.SetLevel(maxLevel)
	return l, nil
}

// levelsUpTo returns every level at least as severe as min.
func levelsUpTo(min logrus.Level) []logrus.Level {
	var levels []logrus.Level
	for _, lvl := range logrus.AllLevels {
		if lvl <= min {
			levels = append(levels, lvl)
		}
	}
	return levels
}

// reset drops the process logger so tests can call Setup again.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	logger = nil
}
