// Package identity owns the identity record and its persistence.
//
// Three [Store] backends share one contract: [MemoryStore] for tests and
// development, [RedisStore] for hash-per-identity storage driven by Lua
// scripts, and [SQLStore] for Postgres (pgx), MySQL and SQLite.
//
// Renewal token writes are single-field atomic updates. No backend reads the
// current token back before replacing it.
//
// # What this package must NOT do
//
//   - Hash or verify credentials.
//   - Issue or parse tokens.
//   - Decide whether an identity may authenticate; it only reports state.
package identity
