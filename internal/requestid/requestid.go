// Package requestid carries the per-request correlation ID through context.Context.
package requestid

import "context"

// Header is the HTTP header the ID is read from and echoed in
const Header = "X-Request-ID"

type ctxKey struct{}

// WithID returns a copy of ctx carrying id
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the ID stored by WithID, or ""
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
