package obs

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

type LoggerOptions struct {
	Env    string
	Level  string
	Format string // "text" forces tint, "json" forces JSON; empty picks by Env
	Writer io.Writer
}

// NewLogger configures slog with colourful output for dev and JSON elsewhere.
func NewLogger(opts LoggerOptions) *slog.Logger {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stdout
	}
	level := ParseLevel(opts.Level)
	if useText(opts) {
		return slog.New(tint.NewHandler(writer, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			AddSource:  true,
			NoColor:    writer != os.Stdout,
		}))
	}
	return slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	}))
}

func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

func useText(opts LoggerOptions) bool {
	switch opts.Format {
	case "text":
		return true
	case "json":
		return false
	}
	return opts.Env == "dev" || opts.Env == "local"
}
