package sipparser

import (
	"fmt"
	"log/slog"

	gosiplog "github.com/ghettovoice/gosip/log"
)

func sprint(args ...interface{}) string                  { return fmt.Sprint(args...) }
func sprintf(format string, args ...interface{}) string  { return fmt.Sprintf(format, args...) }

// slogAdapter adapts this process's slog default logger to gosip's
// Logger interface, so the parser's own diagnostics flow through the
// same structured logging as everything else in this process.
type slogAdapter struct {
	prefix string
	fields map[string]any
}

func newSlogAdapter() *slogAdapter {
	return &slogAdapter{}
}

func (a *slogAdapter) args() []any {
	args := make([]any, 0, len(a.fields)*2+2)
	if a.prefix != "" {
		args = append(args, "prefix", a.prefix)
	}
	for k, v := range a.fields {
		args = append(args, k, v)
	}
	return args
}

func (a *slogAdapter) Fields() gosiplog.Fields {
	f := make(gosiplog.Fields, len(a.fields))
	for k, v := range a.fields {
		f[k] = v
	}
	return f
}

func (a *slogAdapter) WithFields(fields map[string]interface{}) gosiplog.Logger {
	merged := make(map[string]any, len(a.fields)+len(fields))
	for k, v := range a.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &slogAdapter{prefix: a.prefix, fields: merged}
}

func (a *slogAdapter) Prefix() string { return a.prefix }

func (a *slogAdapter) WithPrefix(prefix string) gosiplog.Logger {
	return &slogAdapter{prefix: prefix, fields: a.fields}
}

func (a *slogAdapter) Print(args ...interface{})                 { slog.Info(sprint(args...), a.args()...) }
func (a *slogAdapter) Printf(format string, args ...interface{}) { slog.Info(sprintf(format, args...), a.args()...) }
func (a *slogAdapter) Trace(args ...interface{})                 { slog.Debug(sprint(args...), a.args()...) }
func (a *slogAdapter) Tracef(format string, args ...interface{}) { slog.Debug(sprintf(format, args...), a.args()...) }
func (a *slogAdapter) Debug(args ...interface{})                 { slog.Debug(sprint(args...), a.args()...) }
func (a *slogAdapter) Debugf(format string, args ...interface{}) { slog.Debug(sprintf(format, args...), a.args()...) }
func (a *slogAdapter) Info(args ...interface{})                  { slog.Info(sprint(args...), a.args()...) }
func (a *slogAdapter) Infof(format string, args ...interface{})  { slog.Info(sprintf(format, args...), a.args()...) }
func (a *slogAdapter) Warn(args ...interface{})                  { slog.Warn(sprint(args...), a.args()...) }
func (a *slogAdapter) Warnf(format string, args ...interface{})  { slog.Warn(sprintf(format, args...), a.args()...) }
func (a *slogAdapter) Error(args ...interface{})                 { slog.Error(sprint(args...), a.args()...) }
func (a *slogAdapter) Errorf(format string, args ...interface{}) { slog.Error(sprintf(format, args...), a.args()...) }
func (a *slogAdapter) Fatal(args ...interface{})                 { slog.Error(sprint(args...), a.args()...) }
func (a *slogAdapter) Fatalf(format string, args ...interface{}) { slog.Error(sprintf(format, args...), a.args()...) }
func (a *slogAdapter) Panic(args ...interface{})                 { slog.Error(sprint(args...), a.args()...) }
func (a *slogAdapter) Panicf(format string, args ...interface{}) { slog.Error(sprintf(format, args...), a.args()...) }
func (a *slogAdapter) SetLevel(level uint32)                     {}
