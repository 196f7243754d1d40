/* pkg/logger/logger.go */

package logger

import (
	"go.uber.org/zap"
)

var log *zap.Logger

// L returns the process-wide logger, initializing a fallback if needed.
func L() *zap.Logger {
	if log == nil {
		InitializeWithFallback()
	}
	return log
}

// Sync flushes any buffered log entries.
func Sync() error {
	if log == nil {
		return nil
	}
	return log.Sync()
}
