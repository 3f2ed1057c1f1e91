// Package flows contains the orchestration behind every Engine operation.
//
// Each Run* function takes the shared [Deps] and returns a result carrying a
// [FailureKind]. The root package maps failure kinds to its public sentinel
// errors and owns metrics and audit emission.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import roleAuth (import cycle).
//   - Retry store calls.
package flows
