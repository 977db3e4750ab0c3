package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu      sync.RWMutex
	current = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "comoestou",
	})
)

// Config holds logger configuration.
type Config struct {
	Level string
	// File enables a rotating log file next to stderr output when set.
	File string
}

// Init replaces the process logger. Call it once from main before any
// component is constructed.
func Init(cfg Config) (*log.Logger, error) {
	var writer io.Writer = os.Stderr
	if file := strings.TrimSpace(cfg.File); file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, err
		}
		writer = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	level := ParseLevel(cfg.Level)
	next := log.NewWithOptions(writer, log.Options{
		ReportCaller:    level == log.DebugLevel,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "comoestou",
	})

	mu.Lock()
	current = next
	mu.Unlock()
	return next, nil
}

// ParseLevel accepts debug, info, warn and error. Unknown input maps to info.
func ParseLevel(raw string) log.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func L() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func Debug(msg string, keyvals ...interface{}) {
	L().Debug(msg, keyvals...)
}

func Info(msg string, keyvals ...interface{}) {
	L().Info(msg, keyvals...)
}

func Warn(msg string, keyvals ...interface{}) {
	L().Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...interface{}) {
	L().Error(msg, keyvals...)
}
