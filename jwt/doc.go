// Package jwt issues and verifies the signed access and renewal tokens used by roleAuth.
//
// Each token class has its own [Manager], signing secret, TTL and "typ" claim. [Issuer]
// pairs the two and refuses to run with a shared secret.
//
// # Failure classes
//
// [Manager.Parse] reports two distinct failures: [ErrExpired] when the signature and all
// other claims are intact but the token is past its expiry, and [ErrInvalid] for anything
// else. [Manager.ParseAllowExpired] verifies everything except expiry and exists only for
// the supervisor renewal path.
//
// # What this package must NOT do
//
//   - Access any store or perform I/O.
//   - Import roleAuth or identity.
package jwt
