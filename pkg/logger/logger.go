package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

var Log *slog.Logger

// Init initializes the global slog logger with a text handler at Info level.
func Init() {
	InitWithLevel("")
}

// InitWithLevel initializes the global logger honoring the provided level
// string ("debug", "info", "warn", "error"). If level is empty the
// VAGENTD_LOG_LEVEL environment variable is consulted instead. The sink can
// be redirected to a file via VAGENTD_LOG_SINK=file:/path/to/log, which is
// useful when the terminal is occupied by test output.
func InitWithLevel(level string) {
	sink := os.Getenv("VAGENTD_LOG_SINK")
	lvl := strings.ToLower(strings.TrimSpace(level))
	if lvl == "" {
		lvl = strings.ToLower(strings.TrimSpace(os.Getenv("VAGENTD_LOG_LEVEL")))
	}
	var lv slog.Level
	switch lvl {
	case "debug":
		lv = slog.LevelDebug
	case "warn", "warning":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}

	if strings.HasPrefix(sink, "file:") {
		path := strings.TrimPrefix(sink, "file:")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
		if err == nil {
			Log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lv}))
			return
		}
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v\n", path, err)
	}
	Log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lv}))
}

func ensure() *slog.Logger {
	if Log == nil {
		InitWithLevel("")
	}
	return Log
}

// Debug logs at debug level with alternating key/value args.
func Debug(msg string, args ...any) { ensure().Debug(msg, args...) }

// Info logs at info level with alternating key/value args.
func Info(msg string, args ...any) { ensure().Info(msg, args...) }

// Warn logs at warn level with alternating key/value args.
func Warn(msg string, args ...any) { ensure().Warn(msg, args...) }

// Error logs at error level with alternating key/value args.
func Error(msg string, args ...any) { ensure().Error(msg, args...) }
