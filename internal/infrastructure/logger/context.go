package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type scopeKey struct{}

// scope is the request-scoped logging state carried in a context. The
// identifiers are kept next to the logger so the SQL logger and handlers
// can read them back without re-parsing log fields.
type scope struct {
	logger    *zap.Logger
	requestID string
	userID    string
	orderID   string
}

func scopeFrom(ctx context.Context) scope {
	if s, ok := ctx.Value(scopeKey{}).(scope); ok {
		return s
	}
	return scope{}
}

// WithContext attaches logger to ctx, keeping identifiers already in scope
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	s := scopeFrom(ctx)
	s.logger = logger
	return context.WithValue(ctx, scopeKey{}, s)
}

// FromContext returns the request logger, or a no-op logger outside a request
func FromContext(ctx context.Context) *zap.Logger {
	if l := scopeFrom(ctx).logger; l != nil {
		return l
	}
	return zap.NewNop()
}

// enrich stores one identifier and tags the scoped logger with it. Setting
// the same identifier twice replaces it instead of duplicating the field.
func enrich(ctx context.Context, field string, value string, set func(*scope)) context.Context {
	s := scopeFrom(ctx)
	set(&s)
	base := s.logger
	if base == nil {
		base = zap.NewNop()
	}
	s.logger = base.With(zap.String(field, value))
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithRequestID tags every later log line of the request with its id
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" || RequestID(ctx) == requestID {
		return ctx
	}
	return enrich(ctx, "request_id", requestID, func(s *scope) { s.requestID = requestID })
}

// WithUserID records the authenticated shopper
func WithUserID(ctx context.Context, userID string) context.Context {
	if userID == "" || UserID(ctx) == userID {
		return ctx
	}
	return enrich(ctx, "user_id", userID, func(s *scope) { s.userID = userID })
}

// WithOrderID records the order a request operates on, so checkout, capture
// and cancel logs (including SQL) can be grepped by order.
func WithOrderID(ctx context.Context, orderID string) context.Context {
	if orderID == "" || OrderID(ctx) == orderID {
		return ctx
	}
	return enrich(ctx, "order_id", orderID, func(s *scope) { s.orderID = orderID })
}

// RequestID returns the request id in scope
func RequestID(ctx context.Context) string { return scopeFrom(ctx).requestID }

// UserID returns the authenticated user id in scope
func UserID(ctx context.Context) string { return scopeFrom(ctx).userID }

// OrderID returns the order id in scope
func OrderID(ctx context.Context) string { return scopeFrom(ctx).orderID }

// TraceFields returns trace_id and span_id of the active span, if any
func TraceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// L returns the request logger correlated with the active trace.
// Usage: logger.L(ctx).Info("order captured", zap.String("capture_id", id))
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	if fields := TraceFields(ctx); fields != nil {
		return l.With(fields...)
	}
	return l
}
