package roleAuth

import "context"

type authContextKey struct{}

// WithAuthContext attaches ac to ctx. The authentication middleware calls it
// after a credential has been verified.
func WithAuthContext(ctx context.Context, ac *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, ac)
}

// AuthContextFromContext returns the authorization context attached by
// [WithAuthContext], if any.
func AuthContextFromContext(ctx context.Context) (*AuthContext, bool) {
	if ctx == nil {
		return nil, false
	}
	ac, ok := ctx.Value(authContextKey{}).(*AuthContext)
	return ac, ok && ac != nil
}
