package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"DEBUG", log.DebugLevel},
		{"warn", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"info", log.InfoLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerWithWriter(t *testing.T) {
	t.Setenv("ISASCAN_LOG_LEVEL", "warn")
	t.Setenv("ISASCAN_LOG_PREFIX", "scan-test")

	var buf bytes.Buffer
	lg := NewLoggerWithWriter(&buf)
	lg.Info("hidden message")
	lg.Warn("shown message", "region", ".text")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info message logged at warn level: %q", out)
	}
	for _, want := range []string{"shown message", "scan-test", ".text"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q does not contain %q", out, want)
		}
	}
	if err := lg.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewLoggerToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "isascan.log")
	t.Setenv("ISASCAN_LOG_TO_FILE", "1")
	t.Setenv("ISASCAN_LOG_FILE", path)
	t.Setenv("ISASCAN_LOG_LEVEL", "debug")

	if !IsDebug() {
		t.Error("IsDebug() = false with ISASCAN_LOG_LEVEL=debug")
	}
	lg := NewLogger()
	lg.Debug("to the file")
	if err := lg.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "to the file") {
		t.Errorf("log file = %q", data)
	}
}
