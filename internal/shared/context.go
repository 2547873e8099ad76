package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

type principalContextKey struct{}

// PrincipalInfo carries the authenticated identity through a request.
// Name is the case-preserving display name the authorization engine
// compares against resource ownership fields.
type PrincipalInfo struct {
	ID   string
	Name string
}

// ContextWithPrincipal stores the authenticated principal in context.
func ContextWithPrincipal(ctx context.Context, p PrincipalInfo) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the authenticated principal, if any.
func PrincipalFromContext(ctx context.Context) (PrincipalInfo, bool) {
	p, ok := ctx.Value(principalContextKey{}).(PrincipalInfo)
	return p, ok
}
