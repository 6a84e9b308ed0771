package logging

import (
	"log/slog"
	"os"

	"github.com/yukyra-eren/flarum-ext-money/internal/platform/correlation"
)

// InitLogger initializes the process-wide slog default logger.
// level: "debug", "info", "warn", "error" (defaults to "info")
// format: "json" or "text" (defaults to "text")
func InitLogger(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(correlation.NewHandler(handler)))
}

// WithAccount returns a logger carrying an account_id field.
func WithAccount(accountID string) *slog.Logger {
	return slog.Default().With("account_id", accountID)
}

// WithEvent returns a logger carrying an event kind field.
func WithEvent(kind string) *slog.Logger {
	return slog.Default().With("event", kind)
}
