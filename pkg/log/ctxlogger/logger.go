// Package ctxlogger attaches request-scoped identifiers to zap loggers.
package ctxlogger

import (
	"context"

	"github.com/smallbiznis/vindisync/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type subscriptionKey struct{}

// ContextWithSubscription annotates ctx with the Vindi subscription being reconciled.
func ContextWithSubscription(ctx context.Context, subscriptionID string) context.Context {
	if subscriptionID == "" {
		return ctx
	}
	return context.WithValue(ctx, subscriptionKey{}, subscriptionID)
}

func SubscriptionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(subscriptionKey{}).(string)
	return value
}

// FromContext is WithContext applied to the global logger.
func FromContext(ctx context.Context) *zap.Logger {
	return WithContext(ctx, zap.L())
}

// WithContext returns base with the correlation id, trace ids and the
// subscription id found on ctx. Missing values are omitted.
func WithContext(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.L()
	}
	if ctx == nil {
		return base
	}

	fields := make([]zap.Field, 0, 4)
	fields = append(fields, ExtractCorrelation(ctx))
	fields = append(fields, ExtractTrace(ctx)...)
	if subscriptionID := SubscriptionFromContext(ctx); subscriptionID != "" {
		fields = append(fields, zap.String("vindi_subscription_id", subscriptionID))
	}
	return base.With(fields...)
}

func ExtractCorrelation(ctx context.Context) zap.Field {
	if cid := correlation.ExtractCorrelationID(ctx); cid != "" {
		return zap.String("correlation_id", cid)
	}
	return zap.Skip()
}

func ExtractTrace(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
