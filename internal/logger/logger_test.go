package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want log.Level
	}{
		{raw: "debug", want: log.DebugLevel},
		{raw: " WARN ", want: log.WarnLevel},
		{raw: "warning", want: log.WarnLevel},
		{raw: "error", want: log.ErrorLevel},
		{raw: "", want: log.InfoLevel},
		{raw: "verbose", want: log.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.raw); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestInitWritesRotatingLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "comoestou.log")

	logger, err := Init(Config{Level: "info", File: logFile})
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	if L() != logger {
		t.Fatal("expected Init to replace the process logger")
	}

	Info("mood saved", "uid", "user-1")

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("expected log file to contain the written entry")
	}
}
