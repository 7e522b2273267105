// Package log provides structured logging to both console and file.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FileName is the log file created inside the log directory.
const FileName = "gitquest.log"

// Config holds logging configuration.
type Config struct {
	// Dir is the directory of the log file. Empty disables file output.
	Dir string
	// Level is the minimum level: trace, debug, info, warn, error.
	Level string
	// Format is the console format: console or json.
	Format string
	// Console receives console output. Defaults to os.Stderr.
	Console io.Writer
}

var (
	mu     sync.RWMutex
	logger zerolog.Logger
	file   *os.File
)

func init() {
	logger = newLogger(os.Stderr, "console", nil)
}

// Init configures the global logger. The file always receives JSON lines;
// the console receives the configured format.
// Also redirects Go's standard log package to the log file.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	if cfg.Console == nil {
		cfg.Console = os.Stderr
	}
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var f *os.File
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		var err error
		f, err = os.OpenFile(filepath.Join(cfg.Dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
	}

	if file != nil {
		_ = file.Close()
	}
	file = f
	logger = newLogger(cfg.Console, cfg.Format, f)

	if f != nil {
		stdlog.SetOutput(f)
		stdlog.SetFlags(stdlog.Ldate | stdlog.Ltime)
	}
	return nil
}

func newLogger(console io.Writer, format string, f *os.File) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	out := console
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"}
	}
	if f != nil {
		out = zerolog.MultiLevelWriter(out, f)
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLogger replaces the global logger. Used by tests to capture output.
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// With creates a child logger context, e.g. for a component.
func With() zerolog.Context {
	mu.RLock()
	defer mu.RUnlock()
	return logger.With()
}

// Debug starts a debug message.
func Debug() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return logger.Debug()
}

// Info starts an info message.
func Info() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return logger.Info()
}

// Warn starts a warning message.
func Warn() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return logger.Warn()
}

// Error starts an error message.
func Error() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return logger.Error()
}

// Printf writes a formatted message to stdout and logs it at info level.
func Printf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Print(msg)
	if f := currentFile(); f != nil {
		Info().Msg(strings.TrimRight(msg, "\n"))
	}
}

// Println writes a message with a newline to stdout and logs it at info level.
func Println(args ...interface{}) {
	msg := fmt.Sprintln(args...)
	fmt.Print(msg)
	if f := currentFile(); f != nil {
		Info().Msg(strings.TrimRight(msg, "\n"))
	}
}

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...interface{}) {
	Error().Msgf(format, args...)
}

func currentFile() *os.File {
	mu.RLock()
	defer mu.RUnlock()
	return file
}

// Close closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	logger = newLogger(os.Stderr, "console", nil)
	return err
}
