package middleware

import (
	"net/http"

	roleAuth "github.com/MrEthical07/roleAuth"
)

// Guard extracts the request credential, authenticates it with engine and
// attaches the resulting [roleAuth.AuthContext] to the request context.
// Rejections are written as JSON error bodies.
func Guard(engine *roleAuth.Engine, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, roleAuth.ErrEngineNotReady)
				return
			}

			cred, err := ExtractCredential(r, opts)
			if err != nil {
				WriteError(w, err)
				return
			}

			ac, err := engine.Authenticate(r.Context(), cred)
			if err != nil {
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(roleAuth.WithAuthContext(r.Context(), ac)))
		})
	}
}
