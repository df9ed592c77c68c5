// Package password implements salted password hashing and verification with
// Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Only the encoded hash is ever stored; the credential store never sees a
// raw password after Hash returns. Verification is constant-time over the
// derived key.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Credential storage and
// the single-error-for-unknown-user-or-bad-password behavior live in the
// credential package.
package password
