/* pkg/logger/config.go */

package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultConsoleEncoderConfig renders terse console output; timestamps and
// levels stay machine-readable so log lines can still be grepped.
func DefaultConsoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// ParseLogLevel maps LOG_LEVEL values onto zap levels, defaulting to warn so
// normal command output is not drowned by engine chatter.
func ParseLogLevel(level string) zapcore.Level {
	switch level {
	case "TRACE", "DEBUG":
		return zapcore.DebugLevel
	case "INFO":
		return zapcore.InfoLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "FATAL":
		return zapcore.FatalLevel
	default:
		return zapcore.WarnLevel
	}
}

// ResolveLogPath returns the configured log file path, or "" when file
// logging is disabled.
func ResolveLogPath() string {
	return os.Getenv("VERSIO_LOG_FILE")
}
