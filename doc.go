// Package roleAuth provides role-based authentication and session lifecycle for
// two actor classes that share one identity store.
//
// Supervisors hold a short-lived access token only. Their sessions are
// stateless: renewal exchanges a (possibly expired) access token for a fresh
// one and logout writes nothing. Recruiters hold an access token plus a
// long-lived renewal token that is persisted on the identity record. Only the
// most recently issued renewal token verifies, and logout clears it.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Architecture boundaries
//
// roleAuth is the public surface: [Engine], [Builder], [Config], the error
// taxonomy and value types. Token handling lives in jwt, hashing in password,
// persistence in identity, and flow orchestration under internal/flows.
// Request extraction and HTTP handlers live in middleware and httpapi.
//
// # What this package must NOT do
//
//   - Cache sessions in process. Every verification re-reads the identity.
//   - Retry store calls.
//   - Emit tokens, secrets or credential hashes in logs or audit events.
package roleAuth
