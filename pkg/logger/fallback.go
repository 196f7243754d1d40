/* pkg/logger/fallback.go */

package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewFallbackLogger builds a console-only logger for environments where no
// log file can be opened.
func NewFallbackLogger() *zap.Logger {
	cfg := DefaultConsoleEncoderConfig()

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(cfg),
		zapcore.Lock(os.Stderr),
		ParseLogLevel(os.Getenv("LOG_LEVEL")),
	)

	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
}

// InitializeWithFallback wires the global logger: console always, plus a
// JSON file sink when VERSIO_LOG_FILE points somewhere writable.
func InitializeWithFallback() {
	path := ResolveLogPath()
	if path == "" {
		log = NewFallbackLogger()
		zap.ReplaceGlobals(log)
		return
	}

	writer, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		fmt.Fprintln(os.Stderr, "⚠️  Could not write to log file, falling back to console:", err)
		log = NewFallbackLogger()
		zap.ReplaceGlobals(log)
		return
	}

	jsonCfg := zap.NewProductionEncoderConfig()
	jsonCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	jsonCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(DefaultConsoleEncoderConfig()), zapcore.Lock(os.Stderr), ParseLogLevel(os.Getenv("LOG_LEVEL"))),
		zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), zapcore.AddSync(writer), zapcore.DebugLevel),
	)

	log = zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel))
	zap.ReplaceGlobals(log)
}
