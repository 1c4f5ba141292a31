package log

import (
	"io"
	"sync"
)

// process holds the logger installed by the serve and CLI commands.
// Packages constructed without a logger use it.
var process struct {
	sync.RWMutex
	logger *Logger
}

// SetDefaultLogger installs logger for components built without one.
func SetDefaultLogger(logger *Logger) {
	process.Lock()
	process.logger = logger
	process.Unlock()
}

// DefaultLogger returns the installed logger. Before a command installs one,
// it is a JSON logger on stderr at info.
func DefaultLogger() *Logger {
	process.RLock()
	logger := process.logger
	process.RUnlock()
	if logger != nil {
		return logger
	}

	process.Lock()
	defer process.Unlock()
	if process.logger == nil {
		process.logger = Default()
	}
	return process.logger
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(Config{Level: LevelError, Format: FormatJSON, Output: NewOutput(io.Discard)})
}
