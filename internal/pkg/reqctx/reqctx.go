// Package reqctx carries the two pieces of per-request identity the rest
// of the system needs out of band: the opaque account id write endpoints
// require, and a request id for correlating log lines to one HTTP call.
package reqctx

import "context"

type ctxKey int

const (
	accountIDKey ctxKey = iota
	requestIDKey
)

func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// AccountID returns the account id attached by auth middleware, or "" if
// none is present (an unauthenticated read-only request).
func AccountID(ctx context.Context) string {
	v, _ := ctx.Value(accountIDKey).(string)
	return v
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}
