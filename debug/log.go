package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.Mutex
	logger  = zap.NewNop().Sugar()
	enabled bool
)

// DefaultPath returns ~/.config/go-chords/debug.log
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "go-chords", "debug.log")
}

// NewLogger builds a zap logger writing to path. The file is truncated on
// every run; the terminal belongs to the UI so nothing goes to stdout.
func NewLogger(path string, verbose bool) (*zap.SugaredLogger, error) {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(f), level)
	return zap.New(core).Sugar(), nil
}

// Enable installs l as the logger behind Log and LogEvery
func Enable(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()

	logger = l
	enabled = true
	logger.Named("debug").Debug("=== Debug logging started ===")
}

// Disable flushes and detaches the logger
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		_ = logger.Sync()
	}
	logger = zap.NewNop().Sugar()
	enabled = false
}

// Logger returns the installed logger (a no-op logger until Enable)
func Logger() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Log writes a debug message tagged with category
func Log(category, format string, args ...any) {
	Logger().Named(category).Debugf(format, args...)
}

var counters = make(map[string]int)

// LogEvery logs every nth call with the same category and format. n <= 1
// logs every call.
func LogEvery(n int, category, format string, args ...any) {
	if n <= 1 {
		Log(category, format, args...)
		return
	}

	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
