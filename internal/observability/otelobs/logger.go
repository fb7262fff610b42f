package otelobs

import (
	"context"

	"go.uber.org/zap"

	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
)

type zapLogger struct {
	logger *zap.Logger
	extra  []zap.Field
}

func toZapFields(fields []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			out = append(out, zap.Error(err))
			continue
		}
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

func (l *zapLogger) log(ctx context.Context, level func(string, ...zap.Field), msg string, fields []observability.Field) {
	zfields := append(append([]zap.Field{}, l.extra...), toZapFields(fields)...)
	if span := sdkSpanFromContext(ctx); span != nil {
		zfields = append(zfields, zap.String("trace_id", span.TraceID()), zap.String("span_id", span.SpanID()))
	}
	level(msg, zfields...)
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, l.logger.Debug, msg, fields)
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, l.logger.Info, msg, fields)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, l.logger.Warn, msg, fields)
}

func (l *zapLogger) Error(ctx context.Context, msg string, fields ...observability.Field) {
	l.log(ctx, l.logger.Error, msg, fields)
}

func (l *zapLogger) With(fields ...observability.Field) observability.Logger {
	return &zapLogger{logger: l.logger, extra: append(append([]zap.Field{}, l.extra...), toZapFields(fields)...)}
}

func (l *zapLogger) sync() error {
	// zap returns a harmless error syncing stdout on some platforms; callers
	// only care that buffered entries were flushed, so that case is ignored.
	_ = l.logger.Sync()
	return nil
}

func sdkSpanFromContext(ctx context.Context) observability.SpanContext {
	adapter := (&tracerAdapter{}).SpanFromContext(ctx)
	sc := adapter.Context()
	if sc.TraceID() == "00000000000000000000000000000000" || sc.TraceID() == "" {
		return nil
	}
	return sc
}
