package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"authd/internal/infrastructure/config"
)

// Logger is the service-wide structured logger. It embeds *slog.Logger, so
// callers use the standard Info/Warn/Error methods directly; every record
// carries the service name and build version as default attributes.
//
// Safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds a Logger from configuration. Format selects the handler (JSON
// unless "text" is requested), Output selects stdout or stderr, and Level
// sets the filter threshold.
func New(cfg config.LoggingConfig, version string) *Logger {
	var out io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "authd"),
		slog.String("version", version),
	})

	return &Logger{Logger: slog.New(handler)}
}

// parseLevel maps a config string to a slog level, falling back to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a Logger that attaches the given key-value pairs to every
// record, for example With("component", "api").
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default returns a JSON logger at info level for use during early startup,
// before the configuration file has been read.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev")
}
