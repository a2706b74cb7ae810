package debuglog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff // Disables all logging
)

// zap has no "off" level; anything above Fatal rejects every entry.
const zapOff = zapcore.FatalLevel + 1

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel parses a string into a LogLevel. Unknown input yields INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "OFF":
		return LevelOff
	default:
		return LevelInfo
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapOff
	}
}

var (
	mu           sync.RWMutex
	currentLevel = LevelOff
	atom         = zap.NewAtomicLevelAt(zapOff)
	logger       *zap.Logger
	logFile      *os.File
)

// Setup configures logging with the given level and an optional file path.
// If filePath is empty, it defaults to ~/.headlines/headlines.log. The TUI
// owns the terminal, so logs only ever go to a file.
func Setup(level LogLevel, filePath ...string) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	currentLevel = level
	atom.SetLevel(level.zapLevel())

	if level == LevelOff {
		return nil
	}

	var logPath string
	if len(filePath) > 0 && filePath[0] != "" {
		logPath = filePath[0]
	} else {
		home, _ := os.UserHomeDir()
		logPath = filepath.Join(home, ".headlines", "headlines.log")
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), atom)
	logFile = f
	logger = zap.New(core).Named("headlines")
	return nil
}

// SetLevel changes the current logging level
func SetLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
	atom.SetLevel(level.zapLevel())
}

// GetLevel returns the current logging level
func GetLevel() LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// L returns the structured logger for components that log with typed fields.
// It is a no-op logger until Setup enables logging.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Close flushes and closes the log file if open
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	return closeLocked()
}

func closeLocked() error {
	if logger != nil {
		_ = logger.Sync()
		logger = nil
	}
	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		return err
	}
	return nil
}

func sugar() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	if logger == nil {
		return nil
	}
	return logger.Sugar()
}

func Debugf(format string, args ...any) {
	if s := sugar(); s != nil {
		s.Debugf(format, args...)
	}
}

func Infof(format string, args ...any) {
	if s := sugar(); s != nil {
		s.Infof(format, args...)
	}
}

func Warnf(format string, args ...any) {
	if s := sugar(); s != nil {
		s.Warnf(format, args...)
	}
}

func Errorf(format string, args ...any) {
	if s := sugar(); s != nil {
		s.Errorf(format, args...)
	}
}

// FieldLogger attaches key-value context to every message.
type FieldLogger struct {
	fields map[string]interface{}
}

// WithFields returns a logger with the specified fields
func WithFields(fields map[string]interface{}) *FieldLogger {
	return &FieldLogger{fields: fields}
}

func (fl *FieldLogger) sugar() *zap.SugaredLogger {
	s := sugar()
	if s == nil {
		return nil
	}

	keys := make([]string, 0, len(fl.fields))
	for k := range fl.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]interface{}, 0, len(keys)*2)
	for _, k := range keys {
		kv = append(kv, k, fl.fields[k])
	}
	return s.With(kv...)
}

func (fl *FieldLogger) Debugf(format string, args ...any) {
	if s := fl.sugar(); s != nil {
		s.Debugf(format, args...)
	}
}

func (fl *FieldLogger) Infof(format string, args ...any) {
	if s := fl.sugar(); s != nil {
		s.Infof(format, args...)
	}
}

func (fl *FieldLogger) Warnf(format string, args ...any) {
	if s := fl.sugar(); s != nil {
		s.Warnf(format, args...)
	}
}

func (fl *FieldLogger) Errorf(format string, args ...any) {
	if s := fl.sugar(); s != nil {
		s.Errorf(format, args...)
	}
}
