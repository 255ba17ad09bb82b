// Package auth provides bearer authentication for the biens API: API keys
// stored in SQLite, signed tokens and the middleware that checks them.
package auth

import "context"

type emailKey struct{}

// WithEmail returns a copy of ctx carrying the authenticated email.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey{}, email)
}

// EmailFromContext returns the authenticated email, or "" for anonymous requests.
func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(emailKey{}).(string)
	return email
}
