// Package httpapi exposes a roleAuth engine over HTTP with gin.
//
// Routes:
//
//	POST /login           {email, secret, role}
//	POST /refresh-token   supervisor bearer token -> {eToken}
//	POST /verify-session  recruiter renewal token -> {user}
//	POST /renew-session   recruiter renewal token -> new pair, rotated cookie
//	POST /logout          authenticated -> {success: true}
//	GET  /me              authenticated -> authorization context
//	GET  /health
//	GET  /metrics         Prometheus exposition
//
// Rejections use the {"code", "message"} body from the middleware package.
package httpapi
