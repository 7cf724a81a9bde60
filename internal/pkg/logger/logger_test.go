package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerNew(t *testing.T) {
	testCases := []struct {
		name  string
		level string
	}{
		{"debug level", "debug"},
		{"info level", "info"},
		{"warn level", "warn"},
		{"error level", "error"},
		{"empty level defaults to info", ""},
		{"invalid level defaults to info", "invalid"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := New(tc.level)
			if err != nil {
				t.Fatalf("Expected no error for level '%s', got %v", tc.level, err)
			}
			if logger == nil {
				t.Fatal("Expected non-nil logger")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	if got := parseLevel("debug"); got != zap.DebugLevel {
		t.Errorf("parseLevel(debug) = %v", got)
	}
	if got := parseLevel("bogus"); got != zap.InfoLevel {
		t.Errorf("parseLevel(bogus) = %v, want info", got)
	}
}

func TestNewWithFileWritesRotatedLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nyayai.log")

	logger, err := NewWithOptions(Options{Level: "info", File: path})
	if err != nil {
		t.Fatalf("NewWithOptions: %v", err)
	}
	logger.Info("written to file", zap.String("component", "test"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing entry, got: %s", data)
	}
	if !strings.Contains(string(data), `"timestamp"`) {
		t.Errorf("log file missing timestamp key, got: %s", data)
	}
}

func TestWrapperReportsCaller(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := Wrap(zap.New(core, zap.AddCaller()))

	l.Named("providers").With(zap.String("backend", "gemini")).Info("probe ok")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.LoggerName != "providers" {
		t.Errorf("Expected logger name 'providers', got '%s'", entry.LoggerName)
	}
	if entry.ContextMap()["backend"] != "gemini" {
		t.Errorf("Expected backend field, got %v", entry.ContextMap())
	}
	if !strings.HasSuffix(entry.Caller.File, "logger_test.go") {
		t.Errorf("Expected caller in logger_test.go, got %s", entry.Caller.File)
	}
}

func TestNopAndNilWrap(t *testing.T) {
	Nop().Info("discarded")
	Wrap(nil).Error("discarded")
	if WithCallerSkip(nil, 1) != nil {
		t.Error("WithCallerSkip(nil) should stay nil")
	}
}
