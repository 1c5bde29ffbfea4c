package obscontext

import "context"

type contextKey string

const (
	requestIDKey    contextKey = "request_id"
	customerCodeKey contextKey = "customer_code"
)

// WithRequestID stores the request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request identifier, if any.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithCustomerCode stores the customer code on the context.
func WithCustomerCode(ctx context.Context, customerCode string) context.Context {
	if customerCode == "" {
		return ctx
	}
	return context.WithValue(ctx, customerCodeKey, customerCode)
}

// CustomerCodeFromContext returns the customer code, if any.
func CustomerCodeFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(customerCodeKey).(string); ok {
		return v
	}
	return ""
}
