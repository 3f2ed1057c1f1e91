// Package password hashes and verifies identity credentials.
//
// # Supported formats
//
// Argon2id hashes use the PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// bcrypt hashes ($2a$, $2b$, $2y$) are accepted for verification and may be
// produced by [Bcrypt] when an operator selects it. [Verifier] dispatches on the
// hash prefix; anything else verifies as false.
//
// # What this package must NOT do
//
//   - Store or retrieve credentials. Callers supply plaintext and receive hashes.
//   - Count failures, retry, or lock accounts.
//   - Log plaintext or hash material.
package password
