// Package logx is the narrow structured-logging facade used by every
// package in gnbasync. It exists so that the rest of the module never
// imports logiface or log/slog directly: a component takes a [Logger],
// which is nil-safe, and emits key/value pairs the way the logiface
// ecosystem expects (alternating key, value, key, value...).
package logx

import (
	"log/slog"

	"github.com/joeycumines/logiface"
	logifaceslog "github.com/joeycumines/logiface-slog"
)

// Logger is the facade every gnbasync component logs through.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// discard is the zero-cost nil-object Logger, returned by Discard and used
// whenever a component is constructed without an explicit logger option.
type discard struct{}

func (discard) Debug(string, ...any) {}
func (discard) Info(string, ...any)  {}
func (discard) Warn(string, ...any)  {}
func (discard) Error(string, ...any) {}

// Discard returns a Logger that drops everything.
func Discard() Logger { return discard{} }

// logifaceLogger adapts a *logiface.Logger[*logifaceslog.Event] (a
// slog-backed logiface logger) to the narrow Logger facade.
type logifaceLogger struct {
	l *logiface.Logger[*logifaceslog.Event]
}

// NewSlog builds a Logger backed by logiface, writing through handler via
// the logiface-slog adapter.
func NewSlog(handler slog.Handler, opts ...logiface.Option[*logifaceslog.Event]) Logger {
	all := make([]logiface.Option[*logifaceslog.Event], 0, len(opts)+1)
	all = append(all, logifaceslog.L.WithSlogHandler(handler))
	all = append(all, opts...)
	return &logifaceLogger{l: logifaceslog.L.New(all...)}
}

func (g *logifaceLogger) Debug(msg string, kv ...any) { g.log(g.l.Debug(), msg, kv) }
func (g *logifaceLogger) Info(msg string, kv ...any)  { g.log(g.l.Info(), msg, kv) }
func (g *logifaceLogger) Warn(msg string, kv ...any)  { g.log(g.l.Warning(), msg, kv) }
func (g *logifaceLogger) Error(msg string, kv ...any) { g.log(g.l.Err(), msg, kv) }

// log streams kv onto b as generic Interface-typed fields, then writes msg.
// A key that isn't a string falls back to a generic field name.
func (g *logifaceLogger) log(b *logiface.Builder[*logifaceslog.Event], msg string, kv []any) {
	if b == nil {
		return
	}
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		if key == "" {
			key = "field"
		}
		b = b.Interface(key, kv[i+1])
	}
	b.Log(msg)
}
