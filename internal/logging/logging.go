// Package logging provides the process-wide structured logger. Every
// component accepts a *zap.Logger rather than reaching for a global, except
// at the composition root (cmd/*) where New is called once.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production or development zap.Logger depending on prod.
// Development mode uses console encoding and debug level for local runs;
// production mode uses JSON encoding at info level for aggregation.
func New(prod bool) (*zap.Logger, error) {
	if prod {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return cfg.Build()
	}
	return zap.NewDevelopment()
}

// Urgent tags a log line so a log-shipping pipeline (or a human grepping
// the file) can pick out kill-switch and safety-veto events, per spec.md
// §7's "URGENT alerts" requirement.
func Urgent(l *zap.Logger, msg string, fields ...zap.Field) {
	l.Error("URGENT: "+msg, fields...)
}
