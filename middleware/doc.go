// Package middleware turns HTTP requests into roleAuth credentials and guards
// handlers with Engine.Authenticate.
//
// # Credential precedence
//
// [ExtractCredential] follows one explicit order: bearer Authorization header,
// renewal cookie, renewal header, then the JSON body field "refreshToken".
// A bearer token selects the supervisor branch; every other source carries a
// renewal token and selects the recruiter branch.
//
// # Adapters
//
//   - [Guard] for net/http handler chains.
//   - [Gin] for gin routers.
//
// # What this package must NOT do
//
//   - Parse or verify tokens (delegates to Engine).
//   - Touch the identity store.
package middleware
