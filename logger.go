package thicket

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that discards every record. Enabled returns
// false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger so SetLogger may be called from any
// goroutine while a render loop is logging.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for thicket and its sub-packages. By
// default nothing is logged. Pass nil to restore the silent default.
//
// Levels used:
//   - [slog.LevelDebug]: paint decisions (full or incremental, regions)
//   - [slog.LevelWarn]: structural misuse, rejected attribute values and,
//     in debug mode, stale caches
//
// Example:
//
//	thicket.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. Sub-packages call it to share the
// configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// warnf logs a non-fatal misuse warning.
func warnf(format string, args ...any) {
	l := Logger()
	if !l.Enabled(context.Background(), slog.LevelWarn) {
		return
	}
	l.Warn(fmt.Sprintf(format, args...))
}
