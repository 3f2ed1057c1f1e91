package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	roleAuth "github.com/MrEthical07/roleAuth"
)

// Gin adapts [Guard] to a gin handler. On success the authenticated request
// continues down the gin chain; on rejection the chain is aborted.
func Gin(engine *roleAuth.Engine, opts Options) gin.HandlerFunc {
	guard := Guard(engine, opts)
	return func(c *gin.Context) {
		passed := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		})

		guard(next).ServeHTTP(c.Writer, c.Request)

		if !passed {
			c.Abort()
		}
	}
}

// AuthContext returns the authorization context attached by [Gin] or [Guard].
func AuthContext(c *gin.Context) (*roleAuth.AuthContext, bool) {
	return roleAuth.AuthContextFromContext(c.Request.Context())
}
