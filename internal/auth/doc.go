// Package auth implements accounts, tenants, and the token lifecycle.
//
// Two token kinds exist. Access tokens are RS256-signed, short-lived, and
// validated by signature alone. Refresh tokens are HS256-signed and paired
// with a server-side record; the signed jti names the record, and the record
// row's existence decides whether the token is live. Rotation and logout
// delete the record, which revokes every copy of the token at once.
//
// Repositories persist to SQLite. Email uniqueness is enforced only by the
// database constraint, never by a read-then-write check.
package auth
