package logger

import (
	"context"
)

// Logger is the structured logger used by every loader component.
// Log methods take a message followed by key-value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a child logger that adds the key-value pairs to every entry.
	With(args ...any) Logger

	// WithContext returns a child logger carrying the gadget name stored in ctx, if any.
	WithContext(ctx context.Context) Logger
}

type gadgetKey struct{}

// WithGadget stores the name of the gadget being served in ctx.
func WithGadget(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, gadgetKey{}, name)
}

// GadgetFromContext returns the gadget name stored by WithGadget.
func GadgetFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(gadgetKey{}).(string)
	return name
}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any)                 {}
func (nopLogger) Info(string, ...any)                  {}
func (nopLogger) Warn(string, ...any)                  {}
func (nopLogger) Error(string, ...any)                 {}
func (n nopLogger) With(...any) Logger                 { return n }
func (n nopLogger) WithContext(context.Context) Logger { return n }
