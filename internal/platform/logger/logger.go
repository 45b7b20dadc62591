package logger

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Env   string
	Level string
}

// New builds the process logger. Development gets a console writer, every
// other environment gets JSON lines. The global zerolog logger is replaced so
// packages logging through zerolog/log share the same sink.
func New(cfg Config) zerolog.Logger {
	var w io.Writer = os.Stdout
	if cfg.Env == "development" {
		w = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	zl := zerolog.New(w).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
	log.Logger = zl
	zerolog.DefaultContextLogger = &log.Logger
	return zl
}

func ParseLevel(s string) zerolog.Level {
	switch s {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// From returns the logger attached to ctx, falling back to the global one.
func From(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// With attaches l to ctx.
func With(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}
