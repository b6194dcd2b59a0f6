// Package debug provides a trace facility gated by an env var or build
// flag, used throughout the engine instead of a logging library.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EnableDebug is a build flag that can be overridden at build time:
// go build -ldflags "-X github.com/standardbeagle/turbocop/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// QuietMode suppresses all debug output, e.g. when stdout carries the
// --format json payload and nothing else may write to it.
var QuietMode = false

var (
	debugOutput io.Writer
	debugFile   *os.File
	debugMutex  sync.Mutex
)

// SetQuietMode enables quiet mode, suppressing all debug output.
func SetQuietMode(enabled bool) {
	QuietMode = enabled
}

// SetDebugOutput sets a custom writer for debug output. Pass nil to
// disable debug output entirely.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// InitDebugLogFile initializes debug logging to a file and returns its path.
// Call CloseDebugLog when done to ensure the file is properly closed.
func InitDebugLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "turbocop-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s.log", timestamp))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugFile = file
	debugOutput = file
	return logPath, nil
}

// CloseDebugLog closes the debug log file if one is open.
func CloseDebugLog() error {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debugFile != nil {
		err := debugFile.Close()
		debugFile = nil
		debugOutput = nil
		return err
	}
	return nil
}

// IsDebugEnabled returns true if debug mode is enabled and output isn't suppressed.
func IsDebugEnabled() bool {
	if QuietMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	if os.Getenv("DEBUG") == "1" || os.Getenv("DEBUG") == "true" {
		return true
	}
	return false
}

func getDebugWriter() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// Printf prints debug information only when debug mode is enabled and output is configured.
func Printf(format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG] "+format, args...)
}

// Println prints debug information only when debug mode is enabled and output is configured.
func Println(args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprint(w, "[DEBUG] ")
	fmt.Fprintln(w, args...)
}

// Log provides structured debug logging with component names.
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG:%s] "+format, append([]interface{}{component}, args...)...)
}

// LogConfig logs configuration-resolution activity (component E).
func LogConfig(format string, args ...interface{}) {
	Log("CONFIG", format, args...)
}

// LogRule logs per-file rule dispatch activity (components D, G, J).
func LogRule(format string, args ...interface{}) {
	Log("RULE", format, args...)
}

// LogDirective logs inline-directive parsing/filtering (component H).
func LogDirective(format string, args ...interface{}) {
	Log("DIRECTIVE", format, args...)
}

// LogCorrection logs correction-set assembly and application (component I).
func LogCorrection(format string, args ...interface{}) {
	Log("CORRECTION", format, args...)
}

// LogCache logs result-cache hits/misses/invalidation (component M).
func LogCache(format string, args ...interface{}) {
	Log("CACHE", format, args...)
}

// Fatal outputs a catastrophic error message to the debug log and returns
// a fatal error. It does not call os.Exit; callers decide what to do.
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if !QuietMode {
		if w := getDebugWriter(); w != nil {
			fmt.Fprintf(w, "[FATAL] %s", msg)
		}
	}
	return fmt.Errorf("fatal error: %s", msg)
}

// CatastrophicError outputs an error that indicates system failure to the
// debug log. In quiet mode, this is suppressed.
func CatastrophicError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !QuietMode {
		if w := getDebugWriter(); w != nil {
			fmt.Fprintf(w, "[CATASTROPHIC] %s", msg)
		}
	}
}
