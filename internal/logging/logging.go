package logging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	ModeProduction = "prod"
	ModeDebug      = "debug"
)

var logger = zap.NewNop()

func SetLogger(l *zap.Logger) {
	logger = l
}

// Build creates the process logger for the given mode.
// An empty mode is treated as debug. logFilePath is optional and added to the outputs.
func Build(mode, logFilePath string) (*zap.Logger, error) {
	var logCfg zap.Config
	switch mode {
	case ModeProduction:
		logCfg = zap.NewProductionConfig()
	case ModeDebug, "":
		logCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown mode %q: only %q, %q or empty value are allowed", mode, ModeProduction, ModeDebug)
	}
	if logFilePath != "" {
		logCfg.OutputPaths = append(logCfg.OutputPaths, logFilePath)
	}
	return logCfg.Build()
}

type loggingCtxKey int

const (
	logKey = loggingCtxKey(iota)
)

func FromContextS(ctx context.Context) *zap.SugaredLogger {
	return FromContext(ctx).Sugar()
}

func FromContext(ctx context.Context) *zap.Logger {
	if vlog, ok := ctx.Value(logKey).(*zap.Logger); ok {
		return vlog
	}
	return logger
}

func NewContextS(ctx context.Context, fields ...interface{}) (nctx context.Context) {
	nctx, _ = NewContextSL(ctx, fields...)
	return
}

func NewContextSL(ctx context.Context, fields ...interface{}) (nctx context.Context, slog *zap.SugaredLogger) {
	slog = FromContextS(ctx).With(fields...)
	nctx = context.WithValue(ctx, logKey, slog.Desugar())
	return
}

// CopyContext carries the logger of from into to. Use it to detach long operations
// from a short-lived request context without losing log fields.
func CopyContext(from, to context.Context) (nctx context.Context) {
	return context.WithValue(to, logKey, FromContext(from))
}
