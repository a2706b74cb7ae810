package debuglog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LevelOff, "OFF"},
		{LogLevel(42), "UNKNOWN"},
	}

	for _, test := range tests {
		if got := test.level.String(); got != test.expected {
			t.Errorf("LogLevel.String() = %q, want %q", got, test.expected)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{" info ", LevelInfo},
		{"WARN", LevelWarn},
		{"WARNING", LevelWarn},
		{"error", LevelError},
		{"off", LevelOff},
		{"INVALID", LevelInfo},
		{"", LevelInfo},
	}

	for _, test := range tests {
		if got := ParseLogLevel(test.input); got != test.expected {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", test.input, got, test.expected)
		}
	}
}

func TestSetupWithLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "test.log")

	if err := Setup(LevelInfo, logPath); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if GetLevel() != LevelInfo {
		t.Errorf("GetLevel() = %v, want %v", GetLevel(), LevelInfo)
	}

	Debugf("debug message")
	Infof("info message %d", 1)
	Warnf("warn message")
	Errorf("error message")

	if err := Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}

	logContent := string(content)
	if strings.Contains(logContent, "debug message") {
		t.Error("DEBUG message should not appear with INFO level")
	}
	if !strings.Contains(logContent, "info message 1") {
		t.Error("INFO message should appear with INFO level")
	}
	if !strings.Contains(logContent, "WARN") || !strings.Contains(logContent, "warn message") {
		t.Error("WARN message should appear with INFO level")
	}
	if !strings.Contains(logContent, "error message") {
		t.Error("ERROR message should appear with INFO level")
	}
}

func TestSetupWithLevelOff(t *testing.T) {
	if err := Setup(LevelOff); err != nil {
		t.Fatalf("Setup with LevelOff failed: %v", err)
	}

	if GetLevel() != LevelOff {
		t.Errorf("GetLevel() = %v, want %v", GetLevel(), LevelOff)
	}

	// Must not panic without a logger.
	Debugf("debug message")
	Errorf("error message")
	WithFields(map[string]interface{}{"k": "v"}).Warnf("warn")

	if L() == nil {
		t.Error("L() should return a no-op logger, not nil")
	}
}

func TestFieldLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "field_test.log")

	if err := Setup(LevelDebug, logPath); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer Close()

	logger := WithFields(map[string]interface{}{
		"component": "controller",
		"category":  "sports",
		"page":      2,
	})

	logger.Infof("page merged")

	if err := Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}

	logContent := string(content)
	if !strings.Contains(logContent, "page merged") {
		t.Error("Log message should contain the main message")
	}
	for _, want := range []string{`"component"`, `"controller"`, `"category"`, `"sports"`, `"page"`} {
		if !strings.Contains(logContent, want) {
			t.Errorf("Log message should contain structured field %s, got %q", want, logContent)
		}
	}
}

func TestStructuredLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "zap.log")

	if err := Setup(LevelWarn, logPath); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	L().Info("dropped by level")
	L().Warn("fetch failed", zap.String("category", "health"))

	if err := Close(); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	logContent := string(content)
	if strings.Contains(logContent, "dropped by level") {
		t.Error("INFO entry should be filtered at WARN level")
	}
	if !strings.Contains(logContent, "fetch failed") || !strings.Contains(logContent, "health") {
		t.Errorf("expected WARN entry with field, got %q", logContent)
	}
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { _ = Setup(LevelOff) })

	SetLevel(LevelDebug)
	if GetLevel() != LevelDebug {
		t.Errorf("SetLevel(LevelDebug) failed, got %v", GetLevel())
	}

	SetLevel(LevelError)
	if GetLevel() != LevelError {
		t.Errorf("SetLevel(LevelError) failed, got %v", GetLevel())
	}
}
