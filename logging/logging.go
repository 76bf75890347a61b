// Package logging centralizes structured logging setup for both binaries,
// following the teacher pattern: logger.New(level) once in main, then
// logger.Sugar.WithServiceName(name) to derive a per-component child
// logger that is threaded through as a field rather than used as a global.
package logging

import (
	"github.com/datatrails/go-datatrails-common/logger"
)

// Init configures the process-wide logger at the given level ("NOOP",
// "INFO", "DEBUG", ...). Call once from main.
func Init(level string) {
	logger.New(level)
}

// For derives a named child logger for one component (server, client,
// sampler, ...).
func For(component string) logger.Logger {
	return logger.Sugar.WithServiceName(component)
}
