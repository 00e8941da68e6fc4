package account

import "context"

type sessionTokenKey struct{}

// WithSessionToken attaches the caller's session token to ctx.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenKey{}, token)
}

// SessionToken returns the session token carried by ctx.
func SessionToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(sessionTokenKey{}).(string)
	return token, ok && token != ""
}
