// Package logging defines the structured logger used across the backend and
// its zerolog implementation.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a context-aware, structured logger. The variadic args are
// key-value pairs:
//
//	log.Info(ctx, "poem created", "poem_id", id, "user_id", uid)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

type ZerologLogger struct {
	l zerolog.Logger
	// fields added through With, re-applied to request-scoped loggers.
	fields []any
}

// New builds a logger writing to w. format "console" gives human-readable
// output; anything else is JSON lines. An unknown level falls back to info.
func New(w io.Writer, level, format string) *ZerologLogger {
	if w == nil {
		w = os.Stdout
	}
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return NewZerologLogger(zerolog.New(w).Level(lvl).With().Timestamp().Logger())
}

func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{l: l}
}

// Zerolog exposes the underlying logger for zerolog-aware middleware.
func (z *ZerologLogger) Zerolog() zerolog.Logger { return z.l }

func (z *ZerologLogger) Debug(ctx context.Context, msg string, args ...any) {
	z.from(ctx).Debug().Fields(args).Msg(msg)
}

func (z *ZerologLogger) Info(ctx context.Context, msg string, args ...any) {
	z.from(ctx).Info().Fields(args).Msg(msg)
}

func (z *ZerologLogger) Warn(ctx context.Context, msg string, args ...any) {
	z.from(ctx).Warn().Fields(args).Msg(msg)
}

func (z *ZerologLogger) Error(ctx context.Context, msg string, args ...any) {
	z.from(ctx).Error().Fields(args).Msg(msg)
}

func (z *ZerologLogger) With(args ...any) Logger {
	fields := append(append([]any{}, z.fields...), args...)
	return &ZerologLogger{l: z.l.With().Fields(args).Logger(), fields: fields}
}

// from prefers the request-scoped logger installed by Middleware so entries
// carry the request id.
func (z *ZerologLogger) from(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
			if len(z.fields) == 0 {
				return l
			}
			scoped := l.With().Fields(z.fields).Logger()
			return &scoped
		}
	}
	return &z.l
}

// Nop discards everything. Handy in tests.
func Nop() *ZerologLogger {
	return NewZerologLogger(zerolog.Nop())
}
